package coord

import (
	"container/heap"
	"context"
	"time"

	"github.com/google/uuid"
)

// Multicast implements the send path of §4.2: mint a message, deliver it to
// our own holdback path so the sender acks itself uniformly, then fan it
// out to every other peer.
func (n *Node) Multicast(ctx context.Context, content string) MulticastMessage {
	ts := n.Clock.Tick()
	msg := MulticastMessage{
		SenderID:        n.Self,
		MessageID:       uuid.NewString(),
		OriginTimestamp: ts,
		Content:         content,
	}

	n.OnReceiveMessage(ctx, msg)

	for _, peer := range n.transport.Peers() {
		if peer == n.Self {
			continue
		}
		peer := peer
		n.goTask("multicast-send", func() {
			if err := n.transport.SendMessage(ctx, peer, msg); err != nil {
				n.log.Errorw("failed to send multicast message", "peer", peer, "message_id", msg.MessageID, "err", err)
			}
		})
	}
	return msg
}

// OnReceiveMessage implements the receive path of §4.2: observe the clock,
// push the holdback entry, self-ack, then ack every other peer and attempt
// delivery.
func (n *Node) OnReceiveMessage(ctx context.Context, msg MulticastMessage) {
	n.Clock.Observe(msg.OriginTimestamp)

	// The holdback key is the message's own origin timestamp, not the
	// locally-observed clock value: origin_timestamp is fixed by the
	// sender and identical at every receiver, which is what makes the
	// cross-process total order invariant (§8 property 1) hold. Keying
	// on a per-process receive-observed value would let arrival order
	// flip the comparison between two receivers. Observe above still
	// folds the message into this process's own clock per Lamport's
	// receive rule.
	n.mu.Lock()
	heap.Push(&n.holdback, holdbackEntry{receiveTS: msg.OriginTimestamp, senderID: msg.SenderID, message: msg})
	selfAckDelayed := n.delayHook.applies(n.Self, msg.MessageID)
	if !selfAckDelayed {
		n.acks[msg.MessageID]++
	}
	n.mu.Unlock()

	if selfAckDelayed {
		// The delayed process withholds its own ACK too, so no process
		// delivers the message before the delay has elapsed.
		n.goTask("self-ack-delay", func() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.delayHook.Delay):
			}
			n.OnReceiveAck(Ack{MessageID: msg.MessageID, SenderID: n.Self})
		})
	}

	ack := Ack{MessageID: msg.MessageID, SenderID: n.Self}
	for _, peer := range n.transport.Peers() {
		if peer == n.Self {
			continue
		}
		peer := peer
		n.goTask("ack-send", func() {
			if n.delayHook.applies(n.Self, msg.MessageID) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(n.delayHook.Delay):
				}
			}
			if err := n.transport.SendAck(ctx, peer, ack); err != nil {
				n.log.Errorw("failed to send ack", "peer", peer, "message_id", msg.MessageID, "err", err)
			}
		})
	}

	n.attemptDelivery()
}

// OnReceiveAck implements the ACK receive path of §4.2. Per §9 Open
// Question 3, the receive-event clock update here is a plain Tick, not an
// Observe against a remote timestamp: the ACK carries none.
func (n *Node) OnReceiveAck(a Ack) {
	n.Clock.Tick()

	n.mu.Lock()
	n.acks[a.MessageID]++
	n.mu.Unlock()

	n.attemptDelivery()
}

// attemptDelivery drains the holdback heap while its head has been acked by
// every process. Stopping at the first un-acked head is mandatory: letting
// a later message through first would violate total order (§4.2).
func (n *Node) attemptDelivery() {
	for {
		n.mu.Lock()
		if n.holdback.Len() == 0 {
			n.mu.Unlock()
			return
		}
		head := n.holdback[0]
		if n.acks[head.message.MessageID] < n.N {
			n.mu.Unlock()
			return
		}
		heap.Pop(&n.holdback)
		delete(n.acks, head.message.MessageID)
		n.mu.Unlock()

		n.deliver(head.message)
	}
}

// deliver is the application-visible delivery observable (§4.2: "a log
// line is the reference observable").
func (n *Node) deliver(msg MulticastMessage) {
	n.log.Infow("delivered multicast message",
		"message_id", msg.MessageID,
		"sender_id", msg.SenderID,
		"origin_timestamp", msg.OriginTimestamp,
		"content", msg.Content,
	)
	if n.onDeliverForTest != nil {
		n.onDeliverForTest(msg)
	}
}
