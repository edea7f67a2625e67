package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmatheus/algoritmos-coord/internal/coord"
)

// status implements GET / (§6): process_id, current_clock, mutex_state,
// election_role, current_leader, election_in_progress and peers.
func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.node.Status(s.peerAddrs))
}

// --- ControlAPI: externally-triggered operations (§6). All return 202
// Accepted; the work happens in background tasks, matching the teacher's
// goroutine-per-request shape and §9's "handler returns after enqueueing."

func (s *Server) startMulticast(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Content = ""
	}

	if req.Content == "" {
		s.log.Warnw("send called with empty content")
		c.JSON(http.StatusAccepted, gin.H{"status": "noop_empty_content"})
		return
	}

	ctx := context.Background()
	s.node.Go("api-send", func() { s.node.Multicast(ctx, req.Content) })
	c.JSON(http.StatusAccepted, gin.H{"status": "multicast_started"})
}

func (s *Server) startRequestResource(c *gin.Context) {
	ctx := context.Background()
	s.node.Go("api-request-resource", func() { s.node.RequestResource(ctx) })
	c.JSON(http.StatusAccepted, gin.H{"status": "request_resource_started"})
}

func (s *Server) startElection(c *gin.Context) {
	ctx := context.Background()
	s.node.Go("api-start-election", func() { s.node.StartElection(ctx) })
	c.JSON(http.StatusAccepted, gin.H{"status": "election_started"})
}

// --- Peer wire protocol (§6). Each handler decodes its payload and
// dispatches into the corresponding coord engine, which advances the clock.

func (s *Server) receiveMessage(c *gin.Context) {
	var msg coord.MulticastMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.node.Go("api-receive-message", func() { s.node.OnReceiveMessage(context.Background(), msg) })
	c.JSON(http.StatusOK, gin.H{"status": "message_received"})
}

func (s *Server) receiveAck(c *gin.Context) {
	var ack coord.Ack
	if err := c.ShouldBindJSON(&ack); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.node.Go("api-receive-ack", func() { s.node.OnReceiveAck(ack) })
	c.JSON(http.StatusOK, gin.H{"status": "ack_received"})
}

func (s *Server) receiveMutexRequest(c *gin.Context) {
	var req coord.MutexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.node.Go("api-receive-request", func() { s.node.OnReceiveRequest(context.Background(), req) })
	c.JSON(http.StatusOK, gin.H{"status": "request_received"})
}

func (s *Server) receiveMutexReply(c *gin.Context) {
	id, ok := parseProcessID(c, "sender_id")
	if !ok {
		return
	}
	s.node.Go("api-receive-reply", func() { s.node.OnReceiveReply(id) })
	c.JSON(http.StatusOK, gin.H{"status": "reply_received"})
}

func (s *Server) receiveElection(c *gin.Context) {
	id, ok := parseProcessID(c, "candidate_id")
	if !ok {
		return
	}
	s.node.Go("api-receive-election", func() { s.node.OnReceiveElection(context.Background(), id) })
	c.JSON(http.StatusOK, gin.H{"status": "election_received"})
}

func (s *Server) receiveAnswer(c *gin.Context) {
	id, ok := parseProcessID(c, "peer_id")
	if !ok {
		return
	}
	s.node.Go("api-receive-answer", func() { s.node.OnReceiveAnswer(id) })
	c.JSON(http.StatusOK, gin.H{"status": "answer_received"})
}

func (s *Server) receiveCoordinator(c *gin.Context) {
	id, ok := parseProcessID(c, "leader_id")
	if !ok {
		return
	}
	s.node.Go("api-receive-coordinator", func() { s.node.OnReceiveCoordinator(id) })
	c.JSON(http.StatusOK, gin.H{"status": "coordinator_received"})
}

func parseProcessID(c *gin.Context, param string) (coord.ProcessId, bool) {
	raw := c.Query(param)
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return coord.ProcessId(n), true
}
