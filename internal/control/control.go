// Package control is the write/read surface shared by the HTTP and MQTT
// frontends. Every accepted duty write goes through the store and then
// retimes the scheduler; every rejection leaves all state unchanged.
package control

import (
	"time"

	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/logic"
	"github.com/sweeney/pwm-led/internal/pwm"
	"github.com/sweeney/pwm-led/internal/status"
)

// Controller ties the duty store, estimator and scheduler together for
// the control surfaces. Safe for concurrent use; it holds no lock of its
// own and delegates synchronization to the components it fronts.
type Controller struct {
	duties *duty.Store
	est    *logic.Estimator
	sched  *pwm.Scheduler

	start time.Time
	cfg   status.Config

	// connected probes the MQTT connection for snapshots; nil means
	// no MQTT surface is configured.
	connected func() bool

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Controller. sched may be nil in tests that only exercise
// the store paths.
func New(duties *duty.Store, est *logic.Estimator, sched *pwm.Scheduler, start time.Time, cfg status.Config) *Controller {
	return &Controller{
		duties: duties,
		est:    est,
		sched:  sched,
		start:  start,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetConnectionProbe installs the MQTT connection status probe.
func (c *Controller) SetConnectionProbe(fn func() bool) {
	c.connected = fn
}

// Duty returns one channel's duty cycle.
func (c *Controller) Duty(channel int) (int, error) {
	return c.duties.Get(channel)
}

// Duties returns the duty triplet as a consistent snapshot.
func (c *Controller) Duties() (d1, d2, d3 int) {
	return c.duties.Values()
}

// SetDuty sets one channel's duty cycle and retimes the PWM clock.
func (c *Controller) SetDuty(channel, value int) error {
	if err := c.duties.Set(channel, value); err != nil {
		return err
	}
	c.retime()
	return nil
}

// SetAll sets the whole triplet atomically and retimes the PWM clock.
func (c *Controller) SetAll(d1, d2, d3 int) error {
	if err := c.duties.SetAll(d1, d2, d3); err != nil {
		return err
	}
	c.retime()
	return nil
}

// WriteTriplet parses and applies a "d1 d2 d3" line, the format accepted
// by the combined write paths. All-or-nothing: malformed or out-of-range
// input changes nothing.
func (c *Controller) WriteTriplet(input string) error {
	d1, d2, d3, err := duty.ParseTriplet(input)
	if err != nil {
		return err
	}
	return c.SetAll(d1, d2, d3)
}

// Speed returns the current press speed in presses per second.
func (c *Controller) Speed() uint64 {
	return c.est.Speed()
}

// StatusText returns the one-line status readout.
func (c *Controller) StatusText() string {
	return status.FormatStatusText(c.est.State())
}

// Snapshot assembles a point-in-time view of the daemon for the status
// surfaces.
func (c *Controller) Snapshot() status.Snapshot {
	d1, d2, d3 := c.duties.Values()
	snap := status.Snapshot{
		Duty:        [duty.NumChannels]int{d1, d2, d3},
		Alternation: c.est.State(),
		StartTime:   c.start,
		Now:         c.now(),
		Config:      c.cfg,
	}
	if c.connected != nil {
		snap.MQTTConnected = c.connected()
	}
	return snap
}

func (c *Controller) retime() {
	if c.sched != nil {
		c.sched.Retime()
	}
}
