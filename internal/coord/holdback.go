package coord

import "container/heap"

// holdbackEntry is (receive_timestamp, sender_id, message), ordered
// lexicographically by (receiveTS, sender_id). OnReceiveMessage fills
// receiveTS with the message's origin timestamp, so the key is the same at
// every receiver. Ties on both fields are impossible: a sender never stamps
// two messages with the same timestamp.
type holdbackEntry struct {
	receiveTS int
	senderID  ProcessId
	message   MulticastMessage
}

// holdbackHeap is a binary min-heap keyed on (receiveTS, senderID). No
// stable priority queue is needed because the key is total (§9 Design
// Notes).
type holdbackHeap []holdbackEntry

func (h holdbackHeap) Len() int { return len(h) }

func (h holdbackHeap) Less(i, j int) bool {
	if h[i].receiveTS != h[j].receiveTS {
		return h[i].receiveTS < h[j].receiveTS
	}
	return h[i].senderID < h[j].senderID
}

func (h holdbackHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *holdbackHeap) Push(x any) {
	*h = append(*h, x.(holdbackEntry))
}

func (h *holdbackHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

var _ heap.Interface = (*holdbackHeap)(nil)
