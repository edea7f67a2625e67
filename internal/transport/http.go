// Package transport implements the PeerTransport abstraction (spec §2, §6)
// over plain HTTP POSTs, mirroring the teacher's sendRequest helper and the
// per-send bounded-timeout http.Client shape of
// MiltonAngamarca-Distribuidos's Ricart-Agrawala node
// (03-lock-distribuido/server/ricart_agrawala.go sendMessage), without its
// retry/backoff loop: §5/§7 model peer sends as best-effort and let the
// algorithms themselves tolerate drops, so a retry layer here would be
// unexercised machinery.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmatheus/algoritmos-coord/internal/coord"
)

// RPCTimeout bounds every outbound peer send (spec §5: "Per-send RPC
// timeout is bounded, reference: 5 seconds").
const RPCTimeout = 5 * time.Second

// HTTPTransport implements coord.PeerTransport over JSON-body HTTP POSTs to
// a static roster of peer base URLs, one per ProcessId.
type HTTPTransport struct {
	self     coord.ProcessId
	peers    []coord.ProcessId
	baseURLs map[coord.ProcessId]string
	client   *http.Client
	log      *zap.SugaredLogger
}

// NewHTTPTransport builds a transport for self among the given peer base
// URLs (keyed by ProcessId, including self — self is simply never dialed).
func NewHTTPTransport(self coord.ProcessId, baseURLs map[coord.ProcessId]string, log *zap.SugaredLogger) *HTTPTransport {
	peers := make([]coord.ProcessId, 0, len(baseURLs))
	for id := range baseURLs {
		peers = append(peers, id)
	}
	return &HTTPTransport{
		self:     self,
		peers:    peers,
		baseURLs: baseURLs,
		client:   &http.Client{Timeout: RPCTimeout},
		log:      log,
	}
}

func (t *HTTPTransport) Peers() []coord.ProcessId { return t.peers }

func (t *HTTPTransport) postJSON(ctx context.Context, to coord.ProcessId, path string, body any) error {
	base, ok := t.baseURLs[to]
	if !ok {
		return fmt.Errorf("no known address for process %d", to)
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body for %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, RPCTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s to process %d: %w", path, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("process %d responded to %s with status %d", to, path, resp.StatusCode)
	}
	t.log.Debugw("sent peer rpc", "to", to, "path", path)
	return nil
}

func (t *HTTPTransport) SendMessage(ctx context.Context, to coord.ProcessId, msg coord.MulticastMessage) error {
	return t.postJSON(ctx, to, "/message", msg)
}

func (t *HTTPTransport) SendAck(ctx context.Context, to coord.ProcessId, ack coord.Ack) error {
	return t.postJSON(ctx, to, "/ack", ack)
}

func (t *HTTPTransport) SendMutexRequest(ctx context.Context, to coord.ProcessId, req coord.MutexRequest) error {
	return t.postJSON(ctx, to, "/receive-request", req)
}

func (t *HTTPTransport) SendMutexReply(ctx context.Context, to coord.ProcessId, from coord.ProcessId) error {
	return t.postJSON(ctx, to, fmt.Sprintf("/receive-reply?sender_id=%d", from), struct{}{})
}

func (t *HTTPTransport) SendElection(ctx context.Context, to coord.ProcessId, candidate coord.ProcessId) error {
	return t.postJSON(ctx, to, fmt.Sprintf("/receive-election?candidate_id=%d", candidate), struct{}{})
}

func (t *HTTPTransport) SendAnswer(ctx context.Context, to coord.ProcessId, from coord.ProcessId) error {
	return t.postJSON(ctx, to, fmt.Sprintf("/receive-answer?peer_id=%d", from), struct{}{})
}

func (t *HTTPTransport) SendCoordinator(ctx context.Context, to coord.ProcessId, leader coord.ProcessId) error {
	return t.postJSON(ctx, to, fmt.Sprintf("/receive-coordinator?leader_id=%d", leader), struct{}{})
}

var _ coord.PeerTransport = (*HTTPTransport)(nil)
