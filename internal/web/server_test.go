package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cjeanneret/TurnGo/internal/logic/worker"
)

func TestMuxRouting(t *testing.T) {
	r := newHandlerRig(t)
	mux := NewServer(":0", r.h).Mux()

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	if w := do(http.MethodPost, "/table/connect"); w.Code != http.StatusAccepted {
		t.Errorf("POST /table/connect = %d, want 202", w.Code)
	}
	if cmd := <-r.tableCmds; cmd.Kind != worker.TableCmdConnect {
		t.Errorf("queued %s, want connect", cmd.Kind)
	}

	if w := do(http.MethodGet, "/table/connect"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /table/connect = %d, want 405", w.Code)
	}

	if w := do(http.MethodGet, "/config"); w.Code != http.StatusOK {
		t.Errorf("GET /config = %d, want 200", w.Code)
	}

	if w := do(http.MethodGet, "/"); w.Code != http.StatusOK {
		t.Errorf("GET / = %d, want 200", w.Code)
	}

	// Root route is an exact match, not a catch-all.
	if w := do(http.MethodGet, "/no-such-page"); w.Code != http.StatusNotFound {
		t.Errorf("GET /no-such-page = %d, want 404", w.Code)
	}
}
