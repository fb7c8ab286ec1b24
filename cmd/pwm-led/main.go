// Command pwm-led drives three LEDs whose brightness tracks how fast two
// pushbuttons are pressed alternately, using software PWM on GPIO.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/pwm-led/internal/config"
	"github.com/sweeney/pwm-led/internal/control"
	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/gpio"
	"github.com/sweeney/pwm-led/internal/logic"
	"github.com/sweeney/pwm-led/internal/mqtt"
	"github.com/sweeney/pwm-led/internal/pwm"
	"github.com/sweeney/pwm-led/internal/status"
	"github.com/sweeney/pwm-led/internal/web"
)

func main() {
	def := config.Default()

	configPath := flag.String("config", "", "YAML config file (optional)")
	broker := flag.String("broker", def.MQTT.Broker, "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", def.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", def.HTTP.Addr, "HTTP control address (empty to disable)")
	debounce := flag.Duration("debounce", def.Input.Debounce, "Button debounce applied at the GPIO line")
	pinLED1 := flag.Int("pin-led1", def.Pins.LED1, "BCM pin number for LED 1")
	pinLED2 := flag.Int("pin-led2", def.Pins.LED2, "BCM pin number for LED 2")
	pinLED3 := flag.Int("pin-led3", def.Pins.LED3, "BCM pin number for LED 3")
	pinBtnA := flag.Int("pin-btn-a", def.Pins.BtnA, "BCM pin number for button A")
	pinBtnB := flag.Int("pin-btn-b", def.Pins.BtnB, "BCM pin number for button B")

	flag.Parse()

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: load config: %v", err)
		}
		cfg = loaded
	}

	// Explicit flags win over config file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "debounce":
			cfg.Input.Debounce = *debounce
		case "pin-led1":
			cfg.Pins.LED1 = *pinLED1
		case "pin-led2":
			cfg.Pins.LED2 = *pinLED2
		case "pin-led3":
			cfg.Pins.LED3 = *pinLED3
		case "pin-btn-a":
			cfg.Pins.BtnA = *pinBtnA
		case "pin-btn-b":
			cfg.Pins.BtnB = *pinBtnB
		}
	})

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
	startTime := time.Now()
	store := duty.NewStore()
	estimator := logic.NewEstimator()

	// Initialize GPIO outputs
	outputs, err := gpio.NewRealOutputs([duty.NumChannels]int{cfg.Pins.LED1, cfg.Pins.LED2, cfg.Pins.LED3})
	if err != nil {
		return fmt.Errorf("init LED outputs: %w", err)
	}
	defer outputs.Close()

	scheduler := pwm.New(store, outputs)
	controller := control.New(store, estimator, scheduler, startTime, status.Config{
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		DebounceMs:  cfg.Input.Debounce.Milliseconds(),
	})

	// Button edges feed the estimator directly from the event handler.
	// Closed (via defer) before the estimator goes away, so no press
	// can fire into torn-down state.
	var buttons gpio.Buttons
	buttons, err = gpio.NewRealButtons(cfg.Pins.BtnA, cfg.Pins.BtnB, cfg.Input.Debounce, func(e logic.PressEvent) {
		estimator.Press(e.Source, e.Time)
	})
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	// Initialize MQTT
	client, err := mqtt.NewRealClient(cfg.MQTT.Broker, controller)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()
	controller.SetConnectionProbe(client.IsConnected)

	// Publish startup event with full status snapshot
	startupEvent := mqtt.StatusEvent{
		Timestamp:  startTime,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(controller.Snapshot(), "STARTUP", ""),
	}
	if err := client.PublishStatus(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP control server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, controller)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http control server listening on %s", cfg.HTTP.Addr)
	}

	// Start the PWM toggle loop. It must be halted (cancel + wait)
	// before the stores it reads are torn down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	schedErr := make(chan error, 1)
	go func() {
		schedErr <- scheduler.Run(ctx)
		close(schedErr)
	}()

	log.Printf("started: broker=%s http=%s heartbeat=%v pins=[%d %d %d / %d %d]",
		cfg.MQTT.Broker, cfg.HTTP.Addr, cfg.MQTT.Heartbeat,
		cfg.Pins.LED1, cfg.Pins.LED2, cfg.Pins.LED3, cfg.Pins.BtnA, cfg.Pins.BtnB)

	var heartbeatCh <-chan time.Time
	if cfg.MQTT.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.MQTT.Heartbeat)
		defer ticker.Stop()
		heartbeatCh = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(client, controller, schedErr, heartbeatCh, sigCh, time.Now)

	// Halt the toggle loop before the deferred teardown runs. The
	// channel is closed once Run returns, so this never hangs even
	// when runLoop already consumed a scheduler error.
	cancel()
	<-schedErr
	return err
}

// runLoop services heartbeats and shutdown until a signal arrives or the
// scheduler fails. Fully injectable for tests.
func runLoop(publisher mqtt.Publisher, controller *control.Controller, schedErr <-chan error, heartbeat <-chan time.Time, sig <-chan os.Signal, now func() time.Time) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.StatusEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(controller.Snapshot(), "SHUTDOWN", signalName),
			}
			if err := publisher.PublishStatus(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case err := <-schedErr:
			// The toggle loop only returns early when the output sink
			// failed; that is fatal to the whole daemon.
			event := mqtt.StatusEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     "SCHEDULER_FAILURE",
				Retained:   true,
				RawPayload: status.FormatStatusEvent(controller.Snapshot(), "SHUTDOWN", "SCHEDULER_FAILURE"),
			}
			if pubErr := publisher.PublishStatus(event); pubErr != nil {
				log.Printf("failed to publish shutdown event: %v", pubErr)
			}
			return fmt.Errorf("pwm scheduler stopped: %w", err)

		case t := <-heartbeat:
			snap := controller.Snapshot()
			log.Printf("heartbeat: speed=%d presses=%d duty=%v",
				snap.Speed(), snap.Alternation.PressCount, snap.Duty)
			event := mqtt.StatusEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				Speed:      snap.Speed(),
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishStatus(event); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}
