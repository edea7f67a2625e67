package coord

import "context"

// PeerTransport is the typed point-to-point send abstraction described in
// spec §2 and §6. Node funnels all outbound traffic through it; the HTTP
// implementation lives in internal/transport and is wired in at startup.
// Per §5, sends may suspend (network I/O) and must never be called while
// Node's state lock is held.
type PeerTransport interface {
	Peers() []ProcessId

	SendMessage(ctx context.Context, to ProcessId, msg MulticastMessage) error
	SendAck(ctx context.Context, to ProcessId, ack Ack) error
	SendMutexRequest(ctx context.Context, to ProcessId, req MutexRequest) error
	SendMutexReply(ctx context.Context, to ProcessId, from ProcessId) error
	SendElection(ctx context.Context, to ProcessId, candidate ProcessId) error
	SendAnswer(ctx context.Context, to ProcessId, from ProcessId) error
	SendCoordinator(ctx context.Context, to ProcessId, leader ProcessId) error
}
