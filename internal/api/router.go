// Package api wires the peer wire protocol and ControlAPI endpoints from
// spec §6 onto a gin router, generalizing the teacher's 3-hostname,
// single-file router (receiveMessage/receiveACK/startMulticast/...) to an
// N-peer roster backed by internal/coord.Node.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mmatheus/algoritmos-coord/internal/coord"
)

// Server bundles the Node with the peer list needed for status reporting
// and exposes a gin.Engine wired per spec §6.
type Server struct {
	node      *coord.Node
	peerAddrs []string
	log       *zap.SugaredLogger
}

// NewServer builds the ControlAPI + peer-wire gin router for node.
func NewServer(node *coord.Node, peerAddrs []string, log *zap.SugaredLogger) *Server {
	return &Server{node: node, peerAddrs: peerAddrs, log: log}
}

// Router builds the gin.Engine with every route from spec §6. Matches the
// teacher's gin.New()+gin.Logger()+gin.RecoveryWithWriter setup, so a
// panic in a handler is logged and converted to a 500, never crashing the
// process (§7).
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.RecoveryWithWriter(gin.DefaultErrorWriter))

	router.GET("/", s.status)

	router.POST("/send", s.startMulticast)
	router.POST("/request-resource", s.startRequestResource)
	router.POST("/start-election", s.startElection)

	router.POST("/message", s.receiveMessage)
	router.POST("/ack", s.receiveAck)
	router.POST("/receive-request", s.receiveMutexRequest)
	router.POST("/receive-reply", s.receiveMutexReply)
	router.POST("/receive-election", s.receiveElection)
	router.POST("/receive-answer", s.receiveAnswer)
	router.POST("/receive-coordinator", s.receiveCoordinator)

	return router
}
