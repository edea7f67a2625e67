package coord

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmatheus/algoritmos-coord/internal/clock"
)

// DelayHook is the ACK-delay test hook from spec §4.2: forces the process
// identified by ProcessID to wait Delay before emitting its ACKs for
// MessageID, including the one it counts for itself. It is explicit configuration, not a hard-coded magic id
// (§9 Open Question 1).
type DelayHook struct {
	MessageID string
	ProcessID ProcessId
	Delay     time.Duration
}

// applies reports whether this hook fires for the given message, on this
// process.
func (h DelayHook) applies(self ProcessId, messageID string) bool {
	return h.MessageID != "" && h.MessageID == messageID && h.ProcessID == self
}

// Node is the single struct per process described in spec §9's redesign
// note: it owns the Clock, the multicast/mutex/election state blocks, and
// the outbound transport, all guarded by one state lock. The three engines
// never call each other directly; they only share Clock and mu.
type Node struct {
	Self  ProcessId
	N     int
	Clock *clock.Clock

	transport PeerTransport
	log       *zap.SugaredLogger
	delayHook DelayHook

	// mu guards every field below: the holdback heap, the ack table, the
	// mutex state block and the election state block. Network I/O never
	// happens while mu is held (§5 Shared-resource policy).
	mu sync.Mutex

	// --- multicast state (§4.2) ---
	holdback holdbackHeap
	acks     map[string]int

	// --- mutex state (§4.3) ---
	mutexState      MutexStateKind
	requestTS       int
	pendingReplies  int
	deferred        []ProcessId
	replyWaitSignal chan struct{}

	// --- election state (§4.4) ---
	role            ElectionRole
	currentLeader   *ProcessId
	electionActive  bool
	answersSeen     map[ProcessId]struct{}
	electionEpoch   int
	electionTimeout time.Duration

	// tasks tracks long-running background goroutines so they are not
	// prematurely abandoned (§5 Cancellation and timeouts).
	tasks sync.WaitGroup

	csWork func(ctx context.Context) // overridable in tests; defaults to a 5s sleep

	// onDeliverForTest, when set, is called in addition to the normal log
	// line on every multicast delivery. Exercised only by tests.
	onDeliverForTest func(msg MulticastMessage)
}

// NewNode constructs a Node for process self among N peers.
func NewNode(self ProcessId, n int, seedClock int, transport PeerTransport, log *zap.SugaredLogger, hook DelayHook) *Node {
	node := &Node{
		Self:            self,
		N:               n,
		Clock:           clock.New(seedClock),
		transport:       transport,
		log:             log,
		delayHook:       hook,
		acks:            make(map[string]int),
		mutexState:      MutexIdle,
		replyWaitSignal: make(chan struct{}, 1),
		role:            Follower,
		answersSeen:     make(map[ProcessId]struct{}),
		electionTimeout: 3 * time.Second,
	}
	node.csWork = func(ctx context.Context) {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
		}
	}
	return node
}

// SetElectionTimeout overrides the default 3s Bully answer-wait timer; must
// be called before any election starts. Exercised by tests.
func (n *Node) SetElectionTimeout(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.electionTimeout = d
}

// SetCriticalSectionWork overrides the default 5s critical-section sleep
// (§4.3 step 4); exercised by tests so mutex scenarios don't take 5s each.
func (n *Node) SetCriticalSectionWork(f func(ctx context.Context)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.csWork = f
}

// Status reports the externally-visible snapshot for GET / (§6).
func (n *Node) Status(peers []string) Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	var leader *int
	if n.currentLeader != nil {
		v := int(*n.currentLeader)
		leader = &v
	}
	return Status{
		ProcessID:      n.Self,
		CurrentClock:   n.Clock.Value(),
		MutexState:     n.mutexState.String(),
		ElectionRole:   n.role.String(),
		CurrentLeader:  leader,
		ElectionActive: n.electionActive,
		Peers:          peers,
	}
}

// goTask spawns f tracked by n.tasks, recovering any panic so it never
// escapes a background task uncaught (§7).
func (n *Node) goTask(name string, f func()) {
	n.tasks.Add(1)
	go func() {
		defer n.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Errorw("background task panicked", "task", name, "recover", r)
			}
		}()
		f()
	}()
}

// Wait blocks until all background tasks this Node spawned have finished.
// Used by tests and graceful shutdown.
func (n *Node) Wait() {
	n.tasks.Wait()
}

// Go runs f as a tracked background task, the same way every internal
// goTask call does. The ControlAPI and peer-wire handlers (§6) use this
// instead of a bare `go` so that a panic inside an engine dispatch is
// logged and the task set still drains cleanly, per §7's "no exception
// escapes a background task uncaught" and §9's task-per-inbound-message
// design note.
func (n *Node) Go(name string, f func()) {
	n.goTask(name, f)
}
