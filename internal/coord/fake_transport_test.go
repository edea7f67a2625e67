package coord

import (
	"context"
	"sync"
)

// fakeTransport wires a handful of in-process Nodes together for tests,
// in place of the HTTP PeerTransport (internal/transport). Delivery is
// synchronous-ish: each send hands off to the target Node's receive path
// on its own goroutine, preserving the "network I/O never blocks under
// the state lock" discipline the real transport also honors.
type fakeTransport struct {
	self  ProcessId
	peers []ProcessId

	mu    sync.Mutex
	nodes map[ProcessId]*Node
}

func newFakeNetwork(n int) (map[ProcessId]*Node, map[ProcessId]*fakeTransport) {
	nodes := make(map[ProcessId]*Node, n)
	transports := make(map[ProcessId]*fakeTransport, n)
	peers := make([]ProcessId, n)
	for i := 0; i < n; i++ {
		peers[i] = ProcessId(i)
	}

	for i := 0; i < n; i++ {
		ft := &fakeTransport{self: ProcessId(i), peers: peers, nodes: nodes}
		transports[ProcessId(i)] = ft
	}
	for i := 0; i < n; i++ {
		nodes[ProcessId(i)] = NewNode(ProcessId(i), n, 0, transports[ProcessId(i)], testLogger(), DelayHook{})
	}
	return nodes, transports
}

func (f *fakeTransport) Peers() []ProcessId { return f.peers }

func (f *fakeTransport) target(to ProcessId) *Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[to]
}

func (f *fakeTransport) SendMessage(ctx context.Context, to ProcessId, msg MulticastMessage) error {
	target := f.target(to)
	go target.OnReceiveMessage(ctx, msg)
	return nil
}

func (f *fakeTransport) SendAck(ctx context.Context, to ProcessId, ack Ack) error {
	target := f.target(to)
	go target.OnReceiveAck(ack)
	return nil
}

func (f *fakeTransport) SendMutexRequest(ctx context.Context, to ProcessId, req MutexRequest) error {
	target := f.target(to)
	go target.OnReceiveRequest(ctx, req)
	return nil
}

func (f *fakeTransport) SendMutexReply(ctx context.Context, to ProcessId, from ProcessId) error {
	target := f.target(to)
	go target.OnReceiveReply(from)
	return nil
}

func (f *fakeTransport) SendElection(ctx context.Context, to ProcessId, candidate ProcessId) error {
	target := f.target(to)
	go target.OnReceiveElection(ctx, candidate)
	return nil
}

func (f *fakeTransport) SendAnswer(ctx context.Context, to ProcessId, from ProcessId) error {
	target := f.target(to)
	go target.OnReceiveAnswer(from)
	return nil
}

func (f *fakeTransport) SendCoordinator(ctx context.Context, to ProcessId, leader ProcessId) error {
	target := f.target(to)
	go target.OnReceiveCoordinator(leader)
	return nil
}
