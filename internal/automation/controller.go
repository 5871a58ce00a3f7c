package automation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/sensor"
)

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State is the automation state.
type State string

// Automation states.
const (
	StateArmed      State = "armed"
	StateSuppressed State = "suppressed"
)

// Outcome is what a single cycle did.
type Outcome string

// Cycle outcomes.
const (
	OutcomeSuppressed        Outcome = "suppressed"
	OutcomeNoMotion          Outcome = "no_motion"
	OutcomeNoOccupant        Outcome = "no_occupant"
	OutcomeUnknownOccupant   Outcome = "unknown_occupant"
	OutcomeApplied           Outcome = "applied"
	OutcomeAlreadySuppressed Outcome = "already_suppressed"
)

// UnknownIdentity is the identity classifier's answer for a stranger.
const UnknownIdentity = "Unknown"

// CycleResult describes one cycle.
type CycleResult struct {
	Outcome  Outcome   `json:"outcome"`
	Identity string    `json:"identity,omitempty"`
	Band     string    `json:"band,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// PresenceDetector confirms an occupant in the camera frame.
type PresenceDetector interface {
	DetectPresence(ctx context.Context) (bool, error)
}

// IdentityRecognizer names the occupant, or returns "Unknown".
type IdentityRecognizer interface {
	Identify(ctx context.Context) (string, error)
}

// Alert is raised when an unrecognised person is seen.
type Alert struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Message  string          `json:"message"`
	At       time.Time       `json:"at"`
	Snapshot sensor.Snapshot `json:"sensors"`
}

// Alerter dispatches alerts. Delivery is best effort.
type Alerter interface {
	Alert(ctx context.Context, a Alert) error
}

// SensorSource provides the latest sensor snapshot.
type SensorSource interface {
	Latest() sensor.Snapshot
}

// Actuators is the part of the actuator registry the controller needs.
type Actuators interface {
	AutomationEngaged() bool
	Engage(source actuator.Source, fn func(tx *actuator.Tx) error) (bool, error)
	Leave(source actuator.Source) []actuator.State
}

// Options tune a Controller. Zero values pick defaults.
type Options struct {
	Interval          time.Duration
	ClassifierTimeout time.Duration
	Location          *time.Location
	Clock             func() time.Time
}

// Status summarises the controller for the API.
type Status struct {
	State     State       `json:"state"`
	Cycles    uint64      `json:"cycles"`
	LastCycle CycleResult `json:"last_cycle"`
	Alerts    uint64      `json:"alerts"`
}

// Controller runs automation cycles.
//
// RunCycle and Leave are safe for concurrent use.
type Controller struct {
	actuators Actuators
	sensors   SensorSource
	presence  PresenceDetector
	identity  IdentityRecognizer
	alerter   Alerter
	rules     Rules

	interval          time.Duration
	classifierTimeout time.Duration
	loc               *time.Location
	clock             func() time.Time
	logger            Logger

	cycleMu sync.Mutex // one cycle at a time

	mu      sync.Mutex
	status  Status
	onCycle []func(CycleResult)
}

// NewController creates a controller. presence, identity and alerter may
// be nil: without classifiers no occupant is ever confirmed.
func NewController(acts Actuators, sensors SensorSource, presence PresenceDetector, identity IdentityRecognizer, alerter Alerter, rules Rules, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = 5 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		actuators:         acts,
		sensors:           sensors,
		presence:          presence,
		identity:          identity,
		alerter:           alerter,
		rules:             rules,
		interval:          opts.Interval,
		classifierTimeout: opts.ClassifierTimeout,
		loc:               opts.Location,
		clock:             opts.Clock,
		logger:            noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// OnCycle registers fn to receive every cycle result.
func (c *Controller) OnCycle(fn func(CycleResult)) {
	c.mu.Lock()
	c.onCycle = append(c.onCycle, fn)
	c.mu.Unlock()
}

// State returns the current automation state.
func (c *Controller) State() State {
	if c.actuators.AutomationEngaged() {
		return StateSuppressed
	}
	return StateArmed
}

// Status returns the state and the last cycle.
func (c *Controller) Status() Status {
	c.mu.Lock()
	s := c.status
	c.mu.Unlock()
	s.State = c.State()
	return s
}

// Leave switches every device off and re-arms automation.
func (c *Controller) Leave(source actuator.Source) []actuator.State {
	states := c.actuators.Leave(source)
	c.logger.Info("leaving: all devices off, automation re-armed", "source", source)
	return states
}

// RunCycle performs one occupancy cycle.
func (c *Controller) RunCycle(ctx context.Context) CycleResult {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	res := c.cycle(ctx)
	res.At = c.clock()
	c.record(res)
	return res
}

func (c *Controller) cycle(ctx context.Context) CycleResult {
	if c.actuators.AutomationEngaged() {
		return CycleResult{Outcome: OutcomeSuppressed}
	}

	snap := c.sensors.Latest()
	if motion, ok := snap.MotionDetected(); !ok || !motion {
		return CycleResult{Outcome: OutcomeNoMotion}
	}

	present, err := c.detectPresence(ctx)
	if err != nil {
		c.logger.Warn("presence classifier failed", "error", err)
		return CycleResult{Outcome: OutcomeNoOccupant, Error: err.Error()}
	}
	if !present {
		c.logger.Debug("motion without occupant")
		return CycleResult{Outcome: OutcomeNoOccupant}
	}

	who, err := c.identify(ctx)
	if err != nil {
		c.logger.Warn("identity classifier failed", "error", err)
		return CycleResult{Outcome: OutcomeNoOccupant, Error: err.Error()}
	}

	if isUnknown(who) {
		c.raiseUnknown(ctx, snap)
		return CycleResult{Outcome: OutcomeUnknownOccupant, Identity: UnknownIdentity}
	}

	return c.apply(who, snap)
}

func (c *Controller) apply(who string, snap sensor.Snapshot) CycleResult {
	hour := c.clock().In(c.loc).Hour()
	res := CycleResult{Outcome: OutcomeApplied, Identity: who}
	if temp, ok := snap.TemperatureC(); ok {
		res.Band, _ = c.rules.Band(temp)
	}

	ran, err := c.actuators.Engage(actuator.SourceAutomation, func(tx *actuator.Tx) error {
		return c.rules.Apply(tx, hour, snap)
	})
	if !ran {
		return CycleResult{Outcome: OutcomeAlreadySuppressed, Identity: who}
	}
	if err != nil {
		c.logger.Error("rule pass incomplete", "identity", who, "error", err)
		res.Error = err.Error()
	}

	c.logger.Info("occupant recognised, rules applied",
		"identity", who,
		"hour", hour,
		"band", res.Band,
	)
	return res
}

func (c *Controller) raiseUnknown(ctx context.Context, snap sensor.Snapshot) {
	alert := Alert{
		ID:       "alr-" + uuid.NewString(),
		Kind:     "unknown_occupant",
		Message:  "Unrecognised person detected at home",
		At:       c.clock(),
		Snapshot: snap,
	}
	c.logger.Warn("unknown occupant detected", "alert_id", alert.ID)

	c.mu.Lock()
	c.status.Alerts++
	c.mu.Unlock()

	if c.alerter == nil {
		return
	}
	if err := c.alerter.Alert(ctx, alert); err != nil {
		c.logger.Warn("alert dispatch failed", "alert_id", alert.ID, "error", err)
	}
}

func (c *Controller) record(res CycleResult) {
	c.mu.Lock()
	c.status.Cycles++
	c.status.LastCycle = res
	hooks := slices.Clone(c.onCycle)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(res)
	}
}

func (c *Controller) detectPresence(ctx context.Context) (bool, error) {
	if c.presence == nil {
		return false, nil
	}
	return bounded(ctx, c.classifierTimeout, c.presence.DetectPresence)
}

func (c *Controller) identify(ctx context.Context) (string, error) {
	if c.identity == nil {
		return "", fmt.Errorf("no identity classifier")
	}
	return bounded(ctx, c.classifierTimeout, c.identity.Identify)
}

// Run executes cycles every interval until ctx is cancelled. A panic in a
// cycle is logged and the loop continues.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("automation loop started", "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("automation loop stopped")
			return
		case <-ticker.C:
			c.safeCycle(ctx)
		}
	}
}

func (c *Controller) safeCycle(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("automation cycle panicked", "panic", p)
		}
	}()
	c.RunCycle(ctx)
}

// bounded calls fn with a deadline. fn runs on its own goroutine so a
// collaborator that ignores ctx cannot stall the loop; panics become errors.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		v   T
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- reply{err: fmt.Errorf("classifier panicked: %v", p)}
			}
		}()
		v, err := fn(ctx)
		ch <- reply{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func isUnknown(identity string) bool {
	id := strings.TrimSpace(identity)
	return id == "" || strings.EqualFold(id, UnknownIdentity)
}
