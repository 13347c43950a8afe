package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/hexboltmq/hexboltmq/internal/config"
	"github.com/hexboltmq/hexboltmq/internal/runtime"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestPushPopAckFlow(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/queue/push", `{"queue":"orders","id":1,"payload":"aGVsbG8=","priority":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("push status: %d body: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/v1/queue/pop", `{"queue":"orders"}`)
	if w.Code != 200 {
		t.Fatalf("pop status: %d", w.Code)
	}
	var resp struct {
		Message *struct {
			ID       uint64 `json:"id"`
			Priority uint32 `json:"priority"`
		} `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message == nil || resp.Message.ID != 1 || resp.Message.Priority != 5 {
		t.Fatalf("pop body: %s", w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/v1/queue/ack", `{"queue":"orders","id":1}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("ack status: %d", w.Code)
	}

	w = do(t, s, http.MethodPost, "/v1/queue/pop", `{"queue":"orders"}`)
	if !strings.Contains(w.Body.String(), `"reason":"empty"`) {
		t.Fatalf("expected empty reason: %s", w.Body.String())
	}
}

func TestPopDelayedReportsNotReady(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/queue/push", `{"queue":"orders","id":2,"payload":"eA==","delayMs":60000}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("push status: %d", w.Code)
	}
	w = do(t, s, http.MethodPost, "/v1/queue/pop", `{"queue":"orders"}`)
	if !strings.Contains(w.Body.String(), `"reason":"not_ready"`) {
		t.Fatalf("expected not_ready: %s", w.Body.String())
	}
}

func TestPopBatchHandler(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"queue":"orders","id":1,"payload":"YQ=="}`,
		`{"queue":"orders","id":2,"payload":"Yg==","priority":9}`,
	} {
		if w := do(t, s, http.MethodPost, "/v1/queue/push", body); w.Code != http.StatusCreated {
			t.Fatalf("push status: %d", w.Code)
		}
	}
	w := do(t, s, http.MethodPost, "/v1/queue/pop_batch", `{"queue":"orders","max":10}`)
	var resp struct {
		Messages []struct {
			ID uint64 `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].ID != 2 {
		t.Fatalf("batch body: %s", w.Body.String())
	}
}

func TestRetryHandlerDeadLettersAndList(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/queue/push", `{"queue":"orders","id":3,"payload":"eA==","maxRetries":-1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("push status: %d", w.Code)
	}
	w = do(t, s, http.MethodPost, "/v1/queue/pop", `{"queue":"orders"}`)
	var popResp struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &popResp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = do(t, s, http.MethodPost, "/v1/queue/retry", `{"queue":"orders","message":`+string(popResp.Message)+`}`)
	if w.Code != 200 || !strings.Contains(w.Body.String(), "dead-lettered") {
		t.Fatalf("retry: %d %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/v1/dlq/list?queue=orders", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"id":3`) {
		t.Fatalf("dlq list: %d %s", w.Code, w.Body.String())
	}

	// A bad filter expression is the caller's fault.
	w = do(t, s, http.MethodGet, "/v1/dlq/list?queue=orders&filter=((bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("dlq filter status: %d", w.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	s := newTestServer(t)

	if w := do(t, s, http.MethodPost, "/v1/queue/push", `{"queue":"orders","id":4,"payload":"eA=="}`); w.Code != http.StatusCreated {
		t.Fatalf("push status: %d", w.Code)
	}
	w := do(t, s, http.MethodGet, "/v1/queue/stats?queue=orders", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"size":1`) {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
}

func TestInvalidQueueName(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/queue/push", `{"queue":"Not Valid!","id":1,"payload":"eA=="}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
}
