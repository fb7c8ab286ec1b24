package main

import (
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/pwm-led/internal/control"
	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/gpio"
	"github.com/sweeney/pwm-led/internal/logic"
	"github.com/sweeney/pwm-led/internal/mqtt"
	"github.com/sweeney/pwm-led/internal/pwm"
	"github.com/sweeney/pwm-led/internal/status"
)

func newTestController(t *testing.T) *control.Controller {
	t.Helper()
	store := duty.NewStore()
	est := logic.NewEstimator()
	sched := pwm.New(store, gpio.NewFakeOutputs())
	return control.New(store, est, sched, time.Now(), status.Config{Broker: "tcp://test:1883"})
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func TestRunLoopShutdownOnSignal(t *testing.T) {
	publisher := mqtt.NewFakePublisher()
	controller := newTestController(t)

	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM

	err := runLoop(publisher, controller, make(chan error), nil, sig, fixedNow)
	if err != nil {
		t.Fatalf("runLoop returned %v on signal", err)
	}

	if len(publisher.StatusEvents) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.StatusEvents))
	}
	ev := publisher.StatusEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "SIGTERM" {
		t.Errorf("expected SHUTDOWN/SIGTERM, got %s/%s", ev.Event, ev.Reason)
	}
	if !ev.Retained {
		t.Error("shutdown event should be retained")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(publisher.StatusPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("payload event: expected SHUTDOWN, got %q", parsed.Status.Event)
	}
}

func TestRunLoopSchedulerFailureIsFatal(t *testing.T) {
	publisher := mqtt.NewFakePublisher()
	controller := newTestController(t)

	schedErr := make(chan error, 1)
	schedErr <- errors.New("pin gone")

	err := runLoop(publisher, controller, schedErr, nil, make(chan os.Signal), fixedNow)
	if err == nil {
		t.Fatal("expected scheduler failure to be returned")
	}

	if len(publisher.StatusEvents) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.StatusEvents))
	}
	ev := publisher.StatusEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "SCHEDULER_FAILURE" {
		t.Errorf("expected SHUTDOWN/SCHEDULER_FAILURE, got %s/%s", ev.Event, ev.Reason)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	publisher := mqtt.NewFakePublisher()
	controller := newTestController(t)
	if err := controller.SetAll(10, 20, 30); err != nil {
		t.Fatalf("SetAll: %v", err)
	}

	heartbeat := make(chan time.Time, 2)
	heartbeat <- fixedNow()
	heartbeat <- fixedNow().Add(time.Minute)

	sig := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- runLoop(publisher, controller, make(chan error), heartbeat, sig, fixedNow)
	}()

	// Let both heartbeats drain, then stop the loop.
	deadline := time.After(2 * time.Second)
	for len(heartbeat) > 0 {
		select {
		case <-deadline:
			t.Fatal("heartbeats not consumed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	sig <- syscall.SIGINT
	if err := <-done; err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	var heartbeats []mqtt.StatusEvent
	for _, ev := range publisher.StatusEvents {
		if ev.Event == "HEARTBEAT" {
			heartbeats = append(heartbeats, ev)
		}
	}
	if len(heartbeats) != 2 {
		t.Fatalf("expected 2 heartbeats, got %d", len(heartbeats))
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(heartbeats[0].RawPayload, &parsed); err != nil {
		t.Fatalf("invalid heartbeat payload: %v", err)
	}
	if parsed.Status.Duty.LED3 != 30 {
		t.Errorf("heartbeat payload missing duty: %+v", parsed.Status.Duty)
	}
}
