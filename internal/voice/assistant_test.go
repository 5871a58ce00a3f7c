package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/command"
)

// scriptedClassifier answers by exact normalised text.
type scriptedClassifier struct {
	mu      sync.Mutex
	intents map[string]string
	labels  map[string]string
	calls   int
}

func (c *scriptedClassifier) Classify(_ context.Context, task command.Task, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	table := c.intents
	if task == command.TaskCommand {
		table = c.labels
	}
	label, ok := table[text]
	if !ok {
		return "", errors.New("no script for " + text)
	}
	return label, nil
}

func (c *scriptedClassifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
	return nil
}

func (s *recordingSpeaker) said(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		if l == text {
			n++
		}
	}
	return n
}

type memoryQA struct {
	mu      sync.Mutex
	entries [][2]string
}

func (m *memoryQA) RecordQA(_ context.Context, q, r string) error {
	m.mu.Lock()
	m.entries = append(m.entries, [2]string{q, r})
	m.mu.Unlock()
	return nil
}

type staticAnswerer struct {
	reply string
	err   error
}

func (a staticAnswerer) Answer(context.Context, string) (string, error) { return a.reply, a.err }

type registryLeaver struct{ reg *actuator.Registry }

func (l registryLeaver) Leave(src actuator.Source) []actuator.State { return l.reg.Leave(src) }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	reg      *actuator.Registry
	cls      *scriptedClassifier
	speaker  *recordingSpeaker
	qa       *memoryQA
	clock    *clock
	asst     *Assistant
	sessions []State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := actuator.NewRegistry([]actuator.DeviceSpec{
		{ID: "kitchen_light", Name: "Kitchen Light", Kind: actuator.KindLight, Aliases: []string{"light"}},
		{ID: "livingroom_ac", Name: "AC", Kind: actuator.KindAC, Aliases: []string{"ac"}},
		{ID: "bedroom_fan", Name: "Fan", Kind: actuator.KindFan, Aliases: []string{"fan"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		reg: reg,
		cls: &scriptedClassifier{
			intents: map[string]string{
				"turn on the light": "command-query",
				"turn the light on": "command-query",
				"set the ac to 20":  "command-query",
				"set the fan to 9":  "command-query",
				"open the garage":   "command-query",
				"i'm leaving":       "command-query",
				"what's the time":   "general-query",
				"blah":              "nonsense",
			},
			labels: map[string]string{
				"turn on the light": "light-control-on",
				"turn the light on": "light-control-on",
				"set the ac to 20":  "ac-control-20",
				"set the fan to 9":  "fan-control-9",
				"open the garage":   "no-access",
				"i'm leaving":       "leaving",
			},
		},
		speaker: &recordingSpeaker{},
		qa:      &memoryQA{},
		clock:   &clock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)},
	}

	router := command.NewRouter(f.cls, reg, time.Second)
	f.asst = NewAssistant(Deps{
		Router:   router,
		Devices:  reg,
		Leaver:   registryLeaver{reg: reg},
		Answerer: staticAnswerer{reply: "It is noon."},
		Speaker:  f.speaker,
		QA:       f.qa,
	}, Options{
		WakePhrases:  []string{"hey aura", "ok aura"},
		LeavePhrases: []string{"I'm leaving", "goodbye aura"},
		IdleTimeout:  30 * time.Second,
		Clock:        f.clock.Now,
	})
	f.asst.OnSessionChange(func(s State) { f.sessions = append(f.sessions, s) })
	return f
}

func (f *fixture) wake(t *testing.T) {
	t.Helper()
	if out := f.asst.HandleUtterance(context.Background(), "Hey Aura"); out.Kind != KindWake {
		t.Fatalf("wake outcome = %q", out.Kind)
	}
}

func TestIdleWithoutWakePhraseIsIgnored(t *testing.T) {
	f := newFixture(t)

	out := f.asst.HandleUtterance(context.Background(), "turn on the light")
	if out.Kind != KindIgnored || out.State != StateIdle {
		t.Errorf("outcome = %+v, want ignored while idle", out)
	}
	if f.cls.count() != 0 {
		t.Errorf("classifier called %d times while idle", f.cls.count())
	}
	if st, _ := f.reg.Get("kitchen_light"); st.On {
		t.Error("light switched without wake phrase")
	}
	if len(f.qa.entries) != 0 {
		t.Error("ignored utterance was logged")
	}
}

func TestWakeActivatesAndAcknowledges(t *testing.T) {
	f := newFixture(t)
	f.wake(t)

	if f.asst.Session().State() != StateActive {
		t.Fatal("session not active after wake")
	}
	if f.speaker.said(ReplyWake) != 1 {
		t.Error("acknowledgement not spoken")
	}
	if len(f.sessions) != 1 || f.sessions[0] != StateActive {
		t.Errorf("session hooks = %v", f.sessions)
	}
}

func TestWakePhraseWithCommand(t *testing.T) {
	f := newFixture(t)

	out := f.asst.HandleUtterance(context.Background(), "Hey Aura, turn on the light!")
	if out.Kind != KindCommand {
		t.Fatalf("outcome = %+v, want command", out)
	}
	st, _ := f.reg.Get("kitchen_light")
	if !st.On {
		t.Error("light not on")
	}
	if f.reg.AutomationEngaged() {
		t.Error("voice command must not set the automation guard")
	}
	if len(f.qa.entries) != 1 || f.qa.entries[0][0] != "turn on the light" {
		t.Errorf("qa log = %v", f.qa.entries)
	}
}

func TestActiveRouting(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		text     string
		wantKind Kind
		wantErr  bool
		check    func(t *testing.T, f *fixture, out Outcome)
	}{
		{
			name:     "device on",
			text:     "turn the light on",
			wantKind: KindCommand,
			check: func(t *testing.T, f *fixture, out Outcome) {
				if out.Device == nil || !out.Device.On {
					t.Errorf("device = %+v", out.Device)
				}
			},
		},
		{
			name: "set value on running device",
			setup: func(f *fixture) {
				_, _ = f.reg.SetOn("livingroom_ac", true, actuator.SourceManual)
			},
			text:     "set the ac to 20",
			wantKind: KindCommand,
			check: func(t *testing.T, f *fixture, out Outcome) {
				st, _ := f.reg.Get("livingroom_ac")
				if v, ok := st.SettingValue(); !ok || v != 20 {
					t.Errorf("ac setting = %v", v)
				}
			},
		},
		{
			name:     "set value on device that is off",
			text:     "set the ac to 20",
			wantKind: KindRejected,
			wantErr:  true,
			check: func(t *testing.T, f *fixture, out Outcome) {
				if out.Reply != "The ac is off. Turn it on first." {
					t.Errorf("reply = %q", out.Reply)
				}
			},
		},
		{
			name: "out of range",
			setup: func(f *fixture) {
				_, _ = f.reg.SetOn("bedroom_fan", true, actuator.SourceManual)
			},
			text:     "set the fan to 9",
			wantKind: KindRejected,
			wantErr:  true,
			check: func(t *testing.T, f *fixture, out Outcome) {
				st, _ := f.reg.Get("bedroom_fan")
				if v, _ := st.SettingValue(); v != 1 {
					t.Errorf("fan setting changed to %d", v)
				}
				if out.Reply != "The fan accepts values from 1 to 3." {
					t.Errorf("reply = %q", out.Reply)
				}
			},
		},
		{
			name:     "no access",
			text:     "open the garage",
			wantKind: KindNoAccess,
			wantErr:  true,
		},
		{
			name:     "general question",
			text:     "what's the time?",
			wantKind: KindAnswer,
			check: func(t *testing.T, f *fixture, out Outcome) {
				if out.Reply != "It is noon." || f.speaker.said("It is noon.") != 1 {
					t.Errorf("answer not spoken: %q", out.Reply)
				}
			},
		},
		{
			name:     "unknown intent",
			text:     "blah",
			wantKind: KindUnmatched,
		},
		{
			name:     "classifier failure",
			text:     "something unscripted",
			wantKind: KindUnmatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.wake(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			out := f.asst.HandleUtterance(context.Background(), tt.text)
			if out.Kind != tt.wantKind {
				t.Fatalf("kind = %q, want %q (%+v)", out.Kind, tt.wantKind, out)
			}
			if (out.Error != "") != tt.wantErr {
				t.Errorf("error = %q, wantErr %v", out.Error, tt.wantErr)
			}
			if out.State != StateActive {
				t.Errorf("session = %q, want active", out.State)
			}
			if out.Reply == "" || f.speaker.said(out.Reply) == 0 {
				t.Errorf("reply %q not spoken", out.Reply)
			}
			if len(f.qa.entries) != 1 {
				t.Errorf("qa entries = %d, want 1", len(f.qa.entries))
			}
			if tt.check != nil {
				tt.check(t, f, out)
			}
		})
	}
}

func TestLeavingInAnyState(t *testing.T) {
	for _, active := range []bool{false, true} {
		name := "idle"
		if active {
			name = "active"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, _ = f.reg.SetOn("kitchen_light", true, actuator.SourceManual)
			_, _ = f.reg.TurnOnAt("livingroom_ac", 22, actuator.SourceManual)
			_, _ = f.reg.Engage(actuator.SourceAutomation, func(*actuator.Tx) error { return nil })
			if active {
				f.wake(t)
			}

			out := f.asst.HandleUtterance(context.Background(), "I'm leaving")
			if out.Kind != KindLeaving || out.State != StateIdle {
				t.Fatalf("outcome = %+v, want leaving/idle", out)
			}
			for _, st := range f.reg.List() {
				if st.On {
					t.Errorf("%s still on", st.ID)
				}
			}
			if f.reg.AutomationEngaged() {
				t.Error("guard not cleared")
			}
			if f.speaker.said(ReplyLeaving) != 1 {
				t.Error("farewell not spoken")
			}
		})
	}
}

func TestLeaveIdlesActiveSession(t *testing.T) {
	f := newFixture(t)
	_, _ = f.reg.SetOn("kitchen_light", true, actuator.SourceManual)
	_, _ = f.reg.Engage(actuator.SourceAutomation, func(*actuator.Tx) error { return nil })
	f.wake(t)

	states := f.asst.Leave(actuator.SourceLeaving)
	if len(states) != 3 {
		t.Fatalf("Leave returned %d states, want 3", len(states))
	}
	for _, st := range states {
		if st.On {
			t.Errorf("%s still on", st.ID)
		}
	}
	if f.reg.AutomationEngaged() {
		t.Error("guard not cleared")
	}
	if f.asst.Session().State() != StateIdle {
		t.Error("session should be idle after Leave")
	}
	if got := f.sessions; len(got) != 2 || got[1] != StateIdle {
		t.Errorf("session changes = %v, want [active idle]", got)
	}
	if f.speaker.said(ReplyLeaving) != 0 {
		t.Error("Leave should not speak")
	}
}

func TestIdleUnconfirmedLeavePhrase(t *testing.T) {
	f := newFixture(t)
	_, _ = f.reg.SetOn("kitchen_light", true, actuator.SourceManual)

	// Matches a leave phrase but the router does not resolve it to leaving.
	out := f.asst.HandleUtterance(context.Background(), "goodbye aura")
	if out.Kind != KindIgnored {
		t.Errorf("kind = %q, want ignored", out.Kind)
	}
	if st, _ := f.reg.Get("kitchen_light"); !st.On {
		t.Error("devices switched off without a confirmed leaving command")
	}
}

func TestIdleTimeoutAnnouncesOnce(t *testing.T) {
	f := newFixture(t)
	f.wake(t)
	ctx := context.Background()

	f.clock.Advance(20 * time.Second)
	f.asst.HandleUtterance(ctx, "turn the light on")
	f.clock.Advance(29 * time.Second)
	if f.asst.Tick(ctx, f.clock.Now()) {
		t.Fatal("expired before 30s of inactivity")
	}

	f.clock.Advance(2 * time.Second)
	if !f.asst.Tick(ctx, f.clock.Now()) {
		t.Fatal("did not expire after 30s of inactivity")
	}
	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		if f.asst.Tick(ctx, f.clock.Now()) {
			t.Fatal("expired twice")
		}
	}

	if f.asst.Session().State() != StateIdle {
		t.Error("session should be idle")
	}
	if n := f.speaker.said(ReplyIdle); n != 1 {
		t.Errorf("going idle spoken %d times, want 1", n)
	}
}

// gatedClassifier blocks every call until release is closed.
type gatedClassifier struct {
	inner   *scriptedClassifier
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedClassifier) Classify(ctx context.Context, task command.Task, text string) (string, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.inner.Classify(ctx, task, text)
}

func TestTickWaitsForInFlightUtterance(t *testing.T) {
	f := newFixture(t)
	gate := &gatedClassifier{inner: f.cls, entered: make(chan struct{}), release: make(chan struct{})}
	f.asst.deps.Router = command.NewRouter(gate, f.reg, 5*time.Second)
	f.wake(t)
	ctx := context.Background()

	handled := make(chan Outcome, 1)
	go func() { handled <- f.asst.HandleUtterance(ctx, "turn on the light") }()
	<-gate.entered

	ticked := make(chan bool, 1)
	go func() { ticked <- f.asst.Tick(ctx, f.clock.Now().Add(time.Minute)) }()

	select {
	case <-ticked:
		t.Fatal("Tick ran while an utterance was being handled")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	if out := <-handled; out.Kind != KindCommand || out.State != StateActive {
		t.Errorf("outcome = %+v, want command applied while active", out)
	}
	if !<-ticked {
		t.Error("Tick should expire the session once the utterance is done")
	}
	if st, _ := f.reg.Get("kitchen_light"); !st.On {
		t.Error("light should be on")
	}
}

func TestHandleTextSkipsWakeGate(t *testing.T) {
	f := newFixture(t)

	out := f.asst.HandleText(context.Background(), "turn on the light")
	if out.Kind != KindCommand {
		t.Fatalf("kind = %q", out.Kind)
	}
	if out.State != StateIdle {
		t.Error("typed input should not wake the session")
	}
	if len(f.speaker.lines) != 0 {
		t.Errorf("typed input spoke %v", f.speaker.lines)
	}
}

type chanListener struct {
	ch chan string
}

func (l chanListener) Listen(ctx context.Context) (string, error) {
	select {
	case s := <-l.ch:
		return s, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestRunHandlesUtterancesUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.asst.listenTimeout = 20 * time.Millisecond
	l := chanListener{ch: make(chan string)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.asst.Run(ctx, l)
		close(done)
	}()

	l.ch <- "hey aura turn on the light"
	deadline := time.Now().Add(2 * time.Second)
	for {
		if st, _ := f.reg.Get("kitchen_light"); st.On {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("utterance was not handled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSessionTransitions(t *testing.T) {
	s := NewSession(10 * time.Second)
	t0 := time.Unix(1000, 0)

	if s.State() != StateIdle {
		t.Fatal("new session not idle")
	}
	s.Touch(t0)
	if !s.LastActivity().IsZero() {
		t.Error("Touch while idle recorded activity")
	}
	if !s.HandleWake(t0) || s.HandleWake(t0) {
		t.Error("HandleWake should report only the first transition")
	}
	s.Touch(t0.Add(8 * time.Second))
	if s.Expire(t0.Add(15 * time.Second)) {
		t.Error("Touch did not extend the session")
	}
	if !s.Expire(t0.Add(19 * time.Second)) {
		t.Error("session did not expire")
	}
	if s.ForceIdle() {
		t.Error("ForceIdle on idle session reported a change")
	}
}

func TestNormalizeAndPhraseMatching(t *testing.T) {
	if got := normalize("  Hey, AURA!  Turn   on the light. "); got != "hey aura turn on the light" {
		t.Errorf("normalize = %q", got)
	}
	if got := normalize("I’m leaving"); got != "i'm leaving" {
		t.Errorf("normalize curly apostrophe = %q", got)
	}
	tests := []struct {
		text, phrase string
		want         int
	}{
		{text: "hey aura", phrase: "hey aura", want: 0},
		{text: "well hey aura on", phrase: "hey aura", want: 5},
		{text: "they aurally", phrase: "hey aura", want: -1},
		{text: "ok auras hey aura", phrase: "hey aura", want: 9},
	}
	for _, tt := range tests {
		if got := indexPhrase(tt.text, tt.phrase); got != tt.want {
			t.Errorf("indexPhrase(%q, %q) = %d, want %d", tt.text, tt.phrase, got, tt.want)
		}
	}
}
