// Package web exposes the HTTP control surface: duty cycle reads and
// writes per channel or as a triplet, the speed readout, and a status
// page.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/sweeney/pwm-led/internal/control"
	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/status"
)

// maxWriteBody bounds duty-write request bodies. A triplet is at most a
// dozen bytes; anything bigger is not a valid write.
const maxWriteBody = 64

// Server serves the control surface over HTTP.
type Server struct {
	httpServer *http.Server
	ctrl       *control.Controller
}

// New creates a Server backed by the given controller.
func New(addr string, ctrl *control.Controller) *Server {
	s := &Server{ctrl: ctrl}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/speed", s.handleSpeed)
	mux.HandleFunc("/led/", s.handleLED)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.ctrl.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleStatus is the combined read/write endpoint: GET returns the
// one-line readout, POST accepts a "d1 d2 d3" triplet.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, s.ctrl.StatusText())
	case http.MethodPost:
		body, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.WriteTriplet(body); err != nil {
			writeControlError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d\n", s.ctrl.Speed())
}

// handleLED serves /led/{1..3}/duty: GET returns the channel's duty
// cycle, PUT or POST sets it.
func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	channel, ok := parseLEDPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		v, err := s.ctrl.Duty(channel)
		if err != nil {
			writeControlError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%d\n", v)
	case http.MethodPut, http.MethodPost:
		body, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := strconv.Atoi(strings.TrimSpace(body))
		if err != nil {
			http.Error(w, "duty cycle must be an integer", http.StatusBadRequest)
			return
		}
		if err := s.ctrl.SetDuty(channel, v); err != nil {
			writeControlError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// parseLEDPath maps "/led/N/duty" (N in 1..3) to a 0-based channel.
func parseLEDPath(path string) (int, bool) {
	rest, ok := strings.CutPrefix(path, "/led/")
	if !ok {
		return 0, false
	}
	numStr, ok := strings.CutSuffix(rest, "/duty")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 || n > duty.NumChannels {
		return 0, false
	}
	return n - 1, true
}

func readBody(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWriteBody+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxWriteBody {
		return "", fmt.Errorf("body too large")
	}
	return string(body), nil
}

func writeControlError(w http.ResponseWriter, err error) {
	if errors.Is(err, duty.ErrInvalidDuty) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
