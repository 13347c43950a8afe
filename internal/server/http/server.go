package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hexboltmq/hexboltmq/internal/broker"
	"github.com/hexboltmq/hexboltmq/internal/queue"
	"github.com/hexboltmq/hexboltmq/internal/runtime"
)

type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener
}

func New(rt *runtime.Runtime) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/queues", s.handleListQueues)
	mux.HandleFunc("/v1/queue/push", s.handlePush)
	mux.HandleFunc("/v1/queue/pop", s.handlePop)
	mux.HandleFunc("/v1/queue/pop_batch", s.handlePopBatch)
	mux.HandleFunc("/v1/queue/ack", s.handleAck)
	mux.HandleFunc("/v1/queue/retry", s.handleRetry)
	mux.HandleFunc("/v1/queue/stats", s.handleStats)
	mux.HandleFunc("/v1/dlq/list", s.handleDLQList)
	mux.Handle("/metrics", rt.Metrics().Handler())
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var capErr *queue.CapacityError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, broker.ErrInvalidQueueName):
		status = http.StatusBadRequest
	case errors.Is(err, broker.ErrUnknownQueue):
		status = http.StatusNotFound
	case errors.Is(err, broker.ErrTooManyQueues), errors.As(err, &capErr):
		status = http.StatusTooManyRequests
	case errors.Is(err, broker.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, queue.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) queueFor(r *http.Request, name string) (*broker.Broker, error) {
	return s.rt.Queue(r.Context(), name)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"queues": s.rt.QueueNames()})
}

type pushReq struct {
	Queue      string `json:"queue"`
	ID         uint64 `json:"id"`
	Payload    []byte `json:"payload"`
	Priority   uint32 `json:"priority"`
	DelayMs    int64  `json:"delayMs"`
	MaxRetries int    `json:"maxRetries"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req pushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b, err := s.queueFor(r, req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	m := queue.Message{
		ID:         req.ID,
		Payload:    req.Payload,
		Priority:   req.Priority,
		MaxRetries: req.MaxRetries,
	}
	stored, err := b.Push(r.Context(), m, time.Duration(req.DelayMs)*time.Millisecond)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            stored.ID,
		"availableAtMs": stored.AvailableAt.UnixMilli(),
	})
}

type popReq struct {
	Queue string `json:"queue"`
	Max   int    `json:"max"`
}

func (s *Server) handlePop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req popReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b, err := s.queueFor(r, req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := b.Pop(r.Context())
	switch {
	case err == nil:
		writeJSON(w, map[string]any{"message": m})
	case errors.Is(err, queue.ErrEmpty):
		writeJSON(w, map[string]any{"message": nil, "reason": "empty"})
	case errors.Is(err, queue.ErrNotReady):
		writeJSON(w, map[string]any{"message": nil, "reason": "not_ready"})
	default:
		writeError(w, err)
	}
}

func (s *Server) handlePopBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req popReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b, err := s.queueFor(r, req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	msgs, err := b.PopBatch(r.Context(), req.Max)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*queue.Message{}
	}
	writeJSON(w, map[string]any{"messages": msgs})
}

type ackReq struct {
	Queue string `json:"queue"`
	ID    uint64 `json:"id"`
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req ackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b, err := s.queueFor(r, req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := b.Ack(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type retryReq struct {
	Queue   string        `json:"queue"`
	Message queue.Message `json:"message"`
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req retryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b, err := s.queueFor(r, req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	disp, next, err := b.Retry(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"disposition": disp.String()}
	if next != nil {
		resp["message"] = next
	}
	writeJSON(w, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	b, err := s.queueFor(r, r.URL.Query().Get("queue"))
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := b.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleDLQList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	b, err := s.queueFor(r, r.URL.Query().Get("queue"))
	if err != nil {
		writeError(w, err)
		return
	}
	msgs, err := b.DeadLetters(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if msgs == nil {
		msgs = []queue.Message{}
	}
	writeJSON(w, map[string]any{"messages": msgs})
}
