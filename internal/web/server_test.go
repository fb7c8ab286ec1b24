package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/pwm-led/internal/control"
	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/gpio"
	"github.com/sweeney/pwm-led/internal/logic"
	"github.com/sweeney/pwm-led/internal/pwm"
	"github.com/sweeney/pwm-led/internal/status"
)

func newTestServer(t *testing.T) (*Server, *control.Controller, *logic.Estimator) {
	t.Helper()
	store := duty.NewStore()
	est := logic.NewEstimator()
	sched := pwm.New(store, gpio.NewFakeOutputs())
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ctrl := control.New(store, est, sched, start, status.Config{Broker: "tcp://broker:1883", HTTPAddr: ":0"})
	return New(":0", ctrl), ctrl, est
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestStatusRead(t *testing.T) {
	s, _, est := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Button Press Speed: 0 presses/second\n" {
		t.Errorf("unexpected body: %q", got)
	}

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	est.Press(logic.SourceA, start)
	est.Press(logic.SourceB, start.Add(500*time.Millisecond))

	rec = do(t, s, http.MethodGet, "/status", "")
	if got := rec.Body.String(); got != "Button Press Speed: 2 presses/second\n" {
		t.Errorf("unexpected body after presses: %q", got)
	}
}

func TestStatusTripletWrite(t *testing.T) {
	s, ctrl, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/status", "10 20 30")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	d1, d2, d3 := ctrl.Duties()
	if d1 != 10 || d2 != 20 || d3 != 30 {
		t.Errorf("expected (10,20,30), got (%d,%d,%d)", d1, d2, d3)
	}
}

func TestStatusTripletWriteRejected(t *testing.T) {
	s, ctrl, _ := newTestServer(t)
	if err := ctrl.SetAll(1, 2, 3); err != nil {
		t.Fatalf("SetAll: %v", err)
	}

	for _, body := range []string{"10 20 150", "10 20", "a b c", "", "1 2 3 4"} {
		rec := do(t, s, http.MethodPost, "/status", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}

	d1, d2, d3 := ctrl.Duties()
	if d1 != 1 || d2 != 2 || d3 != 3 {
		t.Errorf("expected (1,2,3) unchanged, got (%d,%d,%d)", d1, d2, d3)
	}
}

func TestLEDDutyReadWrite(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/led/2/duty", "75")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/led/2/duty", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "75\n" {
		t.Errorf("expected \"75\\n\", got %q", got)
	}

	// Other channels untouched.
	rec = do(t, s, http.MethodGet, "/led/1/duty", "")
	if got := rec.Body.String(); got != "0\n" {
		t.Errorf("expected \"0\\n\", got %q", got)
	}
}

func TestLEDDutyRejectsInvalid(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, tt := range []struct {
		path string
		body string
		code int
	}{
		{"/led/1/duty", "150", http.StatusBadRequest},
		{"/led/1/duty", "-1", http.StatusBadRequest},
		{"/led/1/duty", "abc", http.StatusBadRequest},
		{"/led/4/duty", "50", http.StatusNotFound},
		{"/led/0/duty", "50", http.StatusNotFound},
		{"/led/x/duty", "50", http.StatusNotFound},
		{"/led/1/brightness", "50", http.StatusNotFound},
	} {
		rec := do(t, s, http.MethodPut, tt.path, tt.body)
		if rec.Code != tt.code {
			t.Errorf("PUT %s %q: expected %d, got %d", tt.path, tt.body, tt.code, rec.Code)
		}
	}
}

func TestSpeedEndpoint(t *testing.T) {
	s, _, est := newTestServer(t)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	est.Press(logic.SourceA, start)
	est.Press(logic.SourceB, start.Add(100*time.Millisecond))

	rec := do(t, s, http.MethodGet, "/speed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "10\n" {
		t.Errorf("expected \"10\\n\", got %q", got)
	}

	rec = do(t, s, http.MethodPost, "/speed", "5")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST /speed, got %d", rec.Code)
	}
}

func TestIndexJSON(t *testing.T) {
	s, ctrl, _ := newTestServer(t)
	if err := ctrl.SetAll(11, 22, 33); err != nil {
		t.Fatalf("SetAll: %v", err)
	}

	rec := do(t, s, http.MethodGet, "/index.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Duty.LED2 != 22 {
		t.Errorf("expected led2 duty 22, got %d", parsed.Status.Duty.LED2)
	}
}

func TestIndexHTML(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "PWM LED Controller") {
		t.Error("page missing title")
	}
	if !strings.Contains(body, "presses/second") {
		t.Error("page missing speed readout")
	}

	rec = do(t, s, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}
