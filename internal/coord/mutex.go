package coord

import "context"

// RequestResource initiates Ricart-Agrawala acquisition (§4.3). It rejects
// idempotently if the process is not IDLE, and blocks the calling goroutine
// until the critical section has been entered and released.
func (n *Node) RequestResource(ctx context.Context) bool {
	n.mu.Lock()
	if n.mutexState != MutexIdle {
		n.mu.Unlock()
		n.log.Warnw("request-resource called while not idle", "state", n.mutexState.String())
		return false
	}

	reqTS := n.Clock.Tick()
	n.mutexState = MutexWanting
	n.requestTS = reqTS
	n.pendingReplies = n.N - 1
	n.deferred = nil
	select {
	case <-n.replyWaitSignal:
	default:
	}
	peers := n.transport.Peers()
	n.mu.Unlock()

	for _, peer := range peers {
		if peer == n.Self {
			continue
		}
		peer := peer
		n.goTask("mutex-request-send", func() {
			if err := n.transport.SendMutexRequest(ctx, peer, MutexRequest{RequestTS: reqTS, RequesterID: n.Self}); err != nil {
				n.log.Errorw("failed to send mutex request", "peer", peer, "err", err)
			}
		})
	}

	if n.N == 1 {
		n.enterCriticalSection(ctx)
		n.releaseResource(ctx)
		return true
	}

	select {
	case <-n.replyWaitSignal:
	case <-ctx.Done():
		return false
	}

	n.enterCriticalSection(ctx)
	n.releaseResource(ctx)
	return true
}

// OnReceiveRequest implements §4.3's request-handling rule: reply
// immediately if IDLE, or if WANTING and our own request loses the
// lexicographic priority comparison; otherwise defer.
func (n *Node) OnReceiveRequest(ctx context.Context, req MutexRequest) {
	n.Clock.Observe(req.RequestTS)

	n.mu.Lock()
	shouldReply := n.mutexState == MutexIdle ||
		(n.mutexState == MutexWanting && lessPriority(req.RequestTS, req.RequesterID, n.requestTS, n.Self))
	if !shouldReply {
		n.deferred = append(n.deferred, req.RequesterID)
	}
	n.mu.Unlock()

	if shouldReply {
		n.sendReply(ctx, req.RequesterID)
	}
}

// lessPriority is the lexicographic (ts, id) comparison from §4.3: lower
// pair wins.
func lessPriority(ts1 int, id1 ProcessId, ts2 int, id2 ProcessId) bool {
	if ts1 != ts2 {
		return ts1 < ts2
	}
	return id1 < id2
}

// OnReceiveReply counts a peer's reply; replies received outside WANTING
// are ignored with a warning (§4.3, §7 protocol violation).
func (n *Node) OnReceiveReply(from ProcessId) {
	n.Clock.Tick()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.mutexState != MutexWanting {
		n.log.Warnw("reply received outside WANTING", "from", from, "state", n.mutexState.String())
		return
	}
	n.pendingReplies--
	if n.pendingReplies <= 0 {
		select {
		case n.replyWaitSignal <- struct{}{}:
		default:
		}
	}
}

func (n *Node) enterCriticalSection(ctx context.Context) {
	n.mu.Lock()
	n.mutexState = MutexHeld
	n.mu.Unlock()

	n.log.Infow("entering critical section", "clock", n.Clock.Tick())
	n.csWork(ctx)
	n.log.Infow("leaving critical section", "clock", n.Clock.Tick())
}

// releaseResource implements §4.3's release step: go IDLE, drain the
// deferred list, then reply to everyone in it outside the lock.
func (n *Node) releaseResource(ctx context.Context) {
	n.mu.Lock()
	n.mutexState = MutexIdle
	toReply := n.deferred
	n.deferred = nil
	n.mu.Unlock()

	for _, peer := range toReply {
		n.sendReply(ctx, peer)
	}
}

func (n *Node) sendReply(ctx context.Context, to ProcessId) {
	n.goTask("mutex-reply-send", func() {
		if err := n.transport.SendMutexReply(ctx, to, n.Self); err != nil {
			n.log.Errorw("failed to send mutex reply", "peer", to, "err", err)
		}
	})
}

// MutexStatus reports the current state for diagnostics/tests.
func (n *Node) MutexStatus() (MutexStateKind, int, int, []ProcessId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	deferred := make([]ProcessId, len(n.deferred))
	copy(deferred, n.deferred)
	return n.mutexState, n.requestTS, n.pendingReplies, deferred
}
