package operator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
)

func httpPrompter(t *testing.T) *HTTPPrompter {
	t.Helper()

	cfg := &config.Config{}
	cfg.Operator.ListenAddr = ":0"
	return NewHTTPPrompter(cfg, logging.NewMultiLogger())
}

// call drives a route without a live listener.
func call(p *HTTPPrompter, method, path string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	p.echo.ServeHTTP(rec, req)

	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body
}

func TestHTTPPrompter_ResumeWithoutWaiterConflicts(t *testing.T) {
	p := httpPrompter(t)

	code, body := call(p, http.MethodPost, "/resume")
	if code != http.StatusConflict {
		t.Fatalf("POST /resume = %d, want %d", code, http.StatusConflict)
	}
	if body["status"] != "idle" {
		t.Errorf("status = %v, want idle", body["status"])
	}
}

func TestHTTPPrompter_StatusIdleByDefault(t *testing.T) {
	p := httpPrompter(t)

	code, body := call(p, http.MethodGet, "/status")
	if code != http.StatusOK {
		t.Fatalf("GET /status = %d, want %d", code, http.StatusOK)
	}
	if body["status"] != "running" {
		t.Errorf("status = %v, want running", body["status"])
	}
	if _, ok := body["reason"]; ok {
		t.Error("idle status should not carry a reason")
	}
}

func TestHTTPPrompter_ResumeReleasesWait(t *testing.T) {
	p := httpPrompter(t)

	done := make(chan error, 1)
	go func() {
		done <- p.AwaitResume(context.Background(), "slide puzzle on screen")
	}()

	// The wait registers asynchronously; retry until the handler catches
	// the waiter.
	deadline := time.After(2 * time.Second)
	for {
		code, body := call(p, http.MethodPost, "/resume")
		if code == http.StatusOK {
			if body["status"] != "resumed" {
				t.Errorf("status = %v, want resumed", body["status"])
			}
			break
		}

		select {
		case <-deadline:
			t.Fatal("resume never connected with the waiter")
		case <-time.After(10 * time.Millisecond):
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("AwaitResume() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitResume did not return after resume")
	}
}

func TestHTTPPrompter_StatusReportsReasonWhileWaiting(t *testing.T) {
	p := httpPrompter(t)

	done := make(chan error, 1)
	go func() {
		done <- p.AwaitResume(context.Background(), "slide puzzle on screen")
	}()

	deadline := time.After(2 * time.Second)
	for {
		code, body := call(p, http.MethodGet, "/status")
		if code != http.StatusOK {
			t.Fatalf("GET /status = %d", code)
		}
		if body["status"] == "waiting_for_operator" {
			if body["reason"] != "slide puzzle on screen" {
				t.Errorf("reason = %v", body["reason"])
			}
			if _, ok := body["waiting_since"]; !ok {
				t.Error("waiting status should carry waiting_since")
			}
			break
		}

		select {
		case <-deadline:
			t.Fatal("status never reported the wait")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Release the waiter and confirm status falls back to running.
	for {
		if code, _ := call(p, http.MethodPost, "/resume"); code == http.StatusOK {
			break
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("AwaitResume() error = %v", err)
	}

	if _, body := call(p, http.MethodGet, "/status"); body["status"] != "running" {
		t.Errorf("status after resume = %v, want running", body["status"])
	}
}

func TestHTTPPrompter_ContextCancelUnblocks(t *testing.T) {
	p := httpPrompter(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := p.AwaitResume(ctx, "challenge")
	if err != context.Canceled {
		t.Errorf("AwaitResume() = %v, want context.Canceled", err)
	}
}

func TestNew_ModeDispatch(t *testing.T) {
	cfg := &config.Config{}
	cfg.Operator.Mode = "stdin"

	p, err := New(cfg, logging.NewMultiLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := p.(*StdinPrompter); !ok {
		t.Errorf("New(stdin) = %T", p)
	}

	cfg.Operator.Mode = "telegram"
	if _, err := New(cfg, logging.NewMultiLogger()); err == nil {
		t.Error("expected an error for an unknown operator mode")
	}
}
