package coord

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortTimeout(nodes map[ProcessId]*Node, d time.Duration) {
	for _, n := range nodes {
		n.SetElectionTimeout(d)
	}
}

// TestBullyElectionFromLowestConvergesOnHighestID grounds spec scenario 4
// (§8): P0 starts an election; eventually every process agrees the leader
// is the highest id (2).
func TestBullyElectionFromLowestConvergesOnHighestID(t *testing.T) {
	nodes, _ := newFakeNetwork(3)
	shortTimeout(nodes, 100*time.Millisecond)

	nodes[0].StartElection(context.Background())

	require.Eventually(t, func() bool {
		for _, n := range nodes {
			_, leader, _ := n.ElectionStatus()
			if leader == nil || *leader != 2 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	for id, n := range nodes {
		role, leader, active := n.ElectionStatus()
		assert.False(t, active, "process %d should have quiesced", id)
		require.NotNil(t, leader)
		assert.Equal(t, ProcessId(2), *leader)
		if id == 2 {
			assert.Equal(t, Leader, role)
		} else {
			assert.Equal(t, Follower, role)
		}
	}
}

// TestBullyElectionFromHighestDeclaresImmediately grounds spec scenario 5
// (§8): the highest-id process sees no higher peer, times out with no
// ANSWER, and declares itself leader.
func TestBullyElectionFromHighestDeclaresImmediately(t *testing.T) {
	nodes, _ := newFakeNetwork(3)
	shortTimeout(nodes, 50*time.Millisecond)

	nodes[2].StartElection(context.Background())

	require.Eventually(t, func() bool {
		for _, n := range nodes {
			_, leader, _ := n.ElectionStatus()
			if leader == nil || *leader != 2 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartElectionIsNoOpWhileInProgress(t *testing.T) {
	nodes, _ := newFakeNetwork(3)
	shortTimeout(nodes, time.Minute) // long enough that it can't quiesce mid-test
	n := nodes[0]

	n.StartElection(context.Background())
	_, _, active1 := n.ElectionStatus()
	require.True(t, active1)

	epochBefore := n.electionEpoch
	n.StartElection(context.Background())
	assert.Equal(t, epochBefore, n.electionEpoch, "re-invoking start_election mid-flight must be a no-op")
}

func TestOnReceiveCoordinatorAdoptsLeaderAndClearsElection(t *testing.T) {
	nodes, _ := newFakeNetwork(3)
	n := nodes[0]
	n.mu.Lock()
	n.electionActive = true
	n.role = Candidate
	n.mu.Unlock()

	n.OnReceiveCoordinator(2)

	role, leader, active := n.ElectionStatus()
	assert.Equal(t, Follower, role)
	assert.False(t, active)
	require.NotNil(t, leader)
	assert.Equal(t, ProcessId(2), *leader)
}
