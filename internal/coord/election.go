package coord

import (
	"context"
	"time"
)

// StartElection implements the Bully "start_election" transition (§4.4): a
// no-op if an election is already in progress, otherwise challenge every
// higher-id peer and arm the answer-wait timer.
//
// A StartElection that actually starts an election, and every
// ELECTION/ANSWER/COORDINATOR receipt, ticks the shared Clock:
// §4.1 requires the clock to advance on every send/receive event, election
// messages included, and §8 property 7 / scenario 6 exercise that across
// all three engines together. The wire messages carry no timestamp of
// their own (§6), so these are plain Ticks, the same receive-event
// semantics already fixed for ACK receipt (§9 Open Question 3), not
// Observes against a remote value.
func (n *Node) StartElection(ctx context.Context) {
	n.mu.Lock()
	if n.electionActive {
		n.mu.Unlock()
		return
	}
	n.electionActive = true
	n.role = Candidate
	n.answersSeen = make(map[ProcessId]struct{})
	n.electionEpoch++
	epoch := n.electionEpoch
	timeout := n.electionTimeout
	peers := n.transport.Peers()
	n.mu.Unlock()

	n.Clock.Tick()

	higher := make([]ProcessId, 0, len(peers))
	for _, p := range peers {
		if p > n.Self {
			higher = append(higher, p)
		}
	}

	for _, peer := range higher {
		peer := peer
		n.goTask("election-send", func() {
			if err := n.transport.SendElection(ctx, peer, n.Self); err != nil {
				n.log.Errorw("failed to send ELECTION", "peer", peer, "err", err)
			}
		})
	}

	n.goTask("election-timer", func() {
		n.runAnswerWaitTimer(ctx, epoch, timeout)
	})
}

// runAnswerWaitTimer is the Bully CANDIDATE answer-wait timer (§4.4): a
// one-shot timer started at CANDIDATE entry. If it fires before a newer
// election superseded this one, it drives the CANDIDATE -> LEADER or
// CANDIDATE -> FOLLOWER transition.
func (n *Node) runAnswerWaitTimer(ctx context.Context, epoch int, timeout time.Duration) {
	select {
	case <-time.After(timeout):
	case <-ctx.Done():
		return
	}

	n.mu.Lock()
	if n.electionEpoch != epoch || !n.electionActive {
		// A newer election (or a COORDINATOR) already moved us on.
		n.mu.Unlock()
		return
	}
	sawAnswer := len(n.answersSeen) > 0
	peers := n.transport.Peers()
	if !sawAnswer {
		n.role = Leader
		self := n.Self
		n.currentLeader = &self
		n.electionActive = false
	} else {
		n.role = Follower
		n.electionActive = false
	}
	amLeader := !sawAnswer
	n.mu.Unlock()

	if amLeader {
		for _, peer := range peers {
			if peer == n.Self {
				continue
			}
			peer := peer
			n.goTask("coordinator-send", func() {
				if err := n.transport.SendCoordinator(ctx, peer, n.Self); err != nil {
					n.log.Errorw("failed to send COORDINATOR", "peer", peer, "err", err)
				}
			})
		}
		n.log.Infow("declared self leader", "process_id", n.Self)
	}
}

// OnReceiveElection implements §4.4's ELECTION-receive rule: answer and,
// if not already running an election, start our own when a lower-id peer
// challenges us; otherwise ignore and await COORDINATOR.
func (n *Node) OnReceiveElection(ctx context.Context, candidate ProcessId) {
	n.Clock.Tick()

	if n.Self <= candidate {
		return
	}

	n.goTask("answer-send", func() {
		if err := n.transport.SendAnswer(ctx, candidate, n.Self); err != nil {
			n.log.Errorw("failed to send ANSWER", "peer", candidate, "err", err)
		}
	})

	n.mu.Lock()
	active := n.electionActive
	n.mu.Unlock()

	if !active {
		// Re-entrant: starting our own election recursively calls
		// StartElection, which is guarded by electionActive (§4.4
		// concurrency note).
		n.StartElection(ctx)
	}
}

// OnReceiveAnswer implements §4.4's ANSWER-receive rule: record the
// answerer so the timer knows at least one higher peer is alive.
func (n *Node) OnReceiveAnswer(from ProcessId) {
	n.Clock.Tick()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.role == Candidate {
		n.answersSeen[from] = struct{}{}
	}
}

// OnReceiveCoordinator implements §4.4's COORDINATOR-receive rule: adopt
// the announced leader unconditionally and return to FOLLOWER.
func (n *Node) OnReceiveCoordinator(leader ProcessId) {
	n.Clock.Tick()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentLeader = &leader
	n.role = Follower
	n.electionActive = false
}

// ElectionStatus reports the current role/leader for diagnostics/tests.
func (n *Node) ElectionStatus() (ElectionRole, *ProcessId, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role, n.currentLeader, n.electionActive
}
