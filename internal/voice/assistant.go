package voice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/command"
)

// Logger defines the logging interface used by the Assistant.
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

// Speaker says text out loud. Delivery is fire and forget.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Listener returns the next transcribed utterance, or "" when nothing was
// heard before ctx expired.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Answerer generates a reply to a general question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Router classifies utterances. Satisfied by *command.Router.
type Router interface {
	Route(ctx context.Context, text string) command.Result
	ResolveCommand(ctx context.Context, text string) (command.Resolution, error)
}

// Devices applies voice commands. Satisfied by *actuator.Registry.
type Devices interface {
	SetOn(id string, on bool, source actuator.Source) (actuator.State, error)
	SetSetting(id string, value int, source actuator.Source) (actuator.State, error)
}

// Leaver switches the home off and re-arms automation.
type Leaver interface {
	Leave(source actuator.Source) []actuator.State
}

// QALog records question and answer pairs.
type QALog interface {
	RecordQA(ctx context.Context, query, response string) error
}

// Deps are the Assistant's collaborators. Router, Devices and Leaver are
// required; the rest may be nil.
type Deps struct {
	Router   Router
	Devices  Devices
	Leaver   Leaver
	Answerer Answerer
	Speaker  Speaker
	QA       QALog
}

// Options tune an Assistant.
type Options struct {
	WakePhrases   []string
	LeavePhrases  []string
	IdleTimeout   time.Duration
	ListenTimeout time.Duration
	Clock         func() time.Time
}

// Kind is what HandleUtterance did with an utterance.
type Kind string

// Outcome kinds.
const (
	KindIgnored    Kind = "ignored"
	KindWake       Kind = "wake"
	KindCommand    Kind = "command"
	KindRejected   Kind = "rejected"
	KindAnswer     Kind = "answer"
	KindLeaving    Kind = "leaving"
	KindUnmatched  Kind = "not_understood"
	KindNoAccess   Kind = "no_access"
	KindAnswerFail Kind = "answer_failed"
)

// Outcome is the result of one utterance.
type Outcome struct {
	Kind    Kind                   `json:"kind"`
	Reply   string                 `json:"reply,omitempty"`
	Command *command.DeviceCommand `json:"command,omitempty"`
	Device  *actuator.State        `json:"device,omitempty"`
	Error   string                 `json:"error,omitempty"`
	State   State                  `json:"session"`
}

// Replies spoken by the assistant.
const (
	ReplyWake         = "Yes? How can I help?"
	ReplyIdle         = "Going idle. Say the wake phrase when you need me."
	ReplyLeaving      = "Goodbye! Everything is switched off."
	ReplyUnrecognised = "Sorry, I didn't understand that."
	ReplyNoAccess     = "I don't have access to that device."
	ReplyNoAnswer     = "Sorry, I can't answer that right now."
)

const defaultListenTimeout = 5 * time.Second

// Assistant routes utterances for the voice session.
type Assistant struct {
	deps          Deps
	session       *Session
	wakePhrases   []string
	leavePhrases  []string
	listenTimeout time.Duration
	clock         func() time.Time
	logger        Logger

	handleMu sync.Mutex // one utterance at a time

	hookMu    sync.Mutex
	onSession []func(State)
}

// NewAssistant creates an assistant with an idle session.
func NewAssistant(deps Deps, opts Options) *Assistant {
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = defaultListenTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Assistant{
		deps:          deps,
		session:       NewSession(opts.IdleTimeout),
		wakePhrases:   normalizeAll(opts.WakePhrases),
		leavePhrases:  normalizeAll(opts.LeavePhrases),
		listenTimeout: opts.ListenTimeout,
		clock:         opts.Clock,
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the assistant.
func (a *Assistant) SetLogger(logger Logger) {
	a.logger = logger
}

// OnSessionChange registers fn to be called after every session transition.
func (a *Assistant) OnSessionChange(fn func(State)) {
	a.hookMu.Lock()
	a.onSession = append(a.onSession, fn)
	a.hookMu.Unlock()
}

// Session returns the underlying session.
func (a *Assistant) Session() *Session {
	return a.session
}

// HandleUtterance processes one spoken utterance.
func (a *Assistant) HandleUtterance(ctx context.Context, text string) Outcome {
	a.handleMu.Lock()
	defer a.handleMu.Unlock()

	norm := normalize(text)
	if norm == "" {
		return a.outcome(Outcome{Kind: KindIgnored})
	}
	now := a.clock()

	if a.session.State() == StateIdle {
		rest, woke := a.matchWake(norm)
		if !woke {
			if a.matchLeave(norm) {
				return a.leaveIfResolved(ctx, norm)
			}
			a.logger.Debug("ignoring utterance while idle")
			return a.outcome(Outcome{Kind: KindIgnored})
		}

		if a.session.HandleWake(now) {
			a.sessionChanged(StateActive)
		}
		a.speak(ctx, ReplyWake)
		if rest == "" {
			return a.outcome(Outcome{Kind: KindWake, Reply: ReplyWake})
		}
		norm = rest
	} else {
		a.session.Touch(now)
	}

	out := a.route(ctx, norm)
	a.speak(ctx, out.Reply)
	return a.outcome(out)
}

// HandleText processes typed input. It bypasses the wake phrase and the
// session but routes the same way, leaving included. Nothing is spoken.
func (a *Assistant) HandleText(ctx context.Context, text string) Outcome {
	a.handleMu.Lock()
	defer a.handleMu.Unlock()

	norm := normalize(text)
	if norm == "" {
		return a.outcome(Outcome{Kind: KindIgnored})
	}
	return a.outcome(a.route(ctx, norm))
}

// Leave handles a leaving request that did not come through speech: all
// devices off, automation re-armed and the session idle. Nothing is spoken.
func (a *Assistant) Leave(source actuator.Source) []actuator.State {
	a.handleMu.Lock()
	defer a.handleMu.Unlock()
	return a.leaveLocked(source)
}

// Tick expires an inactive session and announces it. It reports whether
// the session went idle.
func (a *Assistant) Tick(ctx context.Context, now time.Time) bool {
	a.handleMu.Lock()
	defer a.handleMu.Unlock()

	if !a.session.Expire(now) {
		return false
	}
	a.logger.Info("voice session idle", "last_activity", a.session.LastActivity())
	a.sessionChanged(StateIdle)
	a.speak(ctx, ReplyIdle)
	return true
}

// Run listens and handles utterances until ctx is cancelled. Each listen is
// bounded by the listen timeout so the idle check runs between attempts.
func (a *Assistant) Run(ctx context.Context, listener Listener) {
	a.logger.Info("voice loop started", "listen_timeout", a.listenTimeout)
	for {
		if ctx.Err() != nil {
			a.logger.Info("voice loop stopped")
			return
		}

		text, err := a.listen(ctx, listener)
		switch {
		case err != nil && ctx.Err() == nil:
			a.logger.Warn("listen failed", "error", err)
			sleep(ctx, time.Second)
		case text != "":
			out := a.HandleUtterance(ctx, text)
			a.logger.Debug("utterance handled", "kind", out.Kind, "session", out.State)
		}

		a.Tick(ctx, a.clock())
	}
}

// RunIdleTimer checks the session for expiry every interval until ctx is
// cancelled. It covers deployments without a Listener.
func (a *Assistant) RunIdleTimer(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick(ctx, a.clock())
		}
	}
}

func (a *Assistant) listen(ctx context.Context, listener Listener) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, a.listenTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panicked: %v", p)
		}
	}()

	text, err = listener.Listen(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", nil
	}
	return text, err
}

// route classifies text and acts on it. The caller holds handleMu.
func (a *Assistant) route(ctx context.Context, text string) Outcome {
	res := a.deps.Router.Route(ctx, text)

	var out Outcome
	switch res.Intent {
	case command.IntentCommand:
		out = a.handleCommand(ctx, res)
	case command.IntentGeneral:
		out = a.answer(ctx, text)
	default:
		out = Outcome{Kind: KindUnmatched, Reply: ReplyUnrecognised}
	}

	a.recordQA(ctx, text, out.Reply)
	return out
}

func (a *Assistant) handleCommand(ctx context.Context, res command.Result) Outcome {
	switch {
	case errors.Is(res.Err, command.ErrNoAccess):
		return Outcome{Kind: KindNoAccess, Reply: ReplyNoAccess, Error: res.Err.Error()}
	case res.Err != nil:
		return Outcome{Kind: KindUnmatched, Reply: ReplyUnrecognised, Error: res.Err.Error()}
	case res.Resolution.IsLeaving():
		return a.leave()
	}
	return a.apply(res.Resolution.Command)
}

func (a *Assistant) apply(cmd command.DeviceCommand) Outcome {
	var (
		st  actuator.State
		err error
	)
	switch cmd.Action {
	case command.ActionOn:
		st, err = a.deps.Devices.SetOn(cmd.DeviceID, true, actuator.SourceVoice)
	case command.ActionOff:
		st, err = a.deps.Devices.SetOn(cmd.DeviceID, false, actuator.SourceVoice)
	case command.ActionSetValue:
		st, err = a.deps.Devices.SetSetting(cmd.DeviceID, cmd.Value, actuator.SourceVoice)
	default:
		err = fmt.Errorf("%w: action %q", command.ErrUnrecognized, cmd.Action)
	}

	out := Outcome{Command: &cmd}
	if err != nil {
		a.logger.Info("voice command rejected", "command", cmd.String(), "error", err)
		out.Kind = KindRejected
		out.Reply = rejection(cmd, st, err)
		out.Error = err.Error()
		return out
	}

	a.logger.Info("voice command applied", "command", cmd.String())
	out.Kind = KindCommand
	out.Device = &st
	out.Reply = confirmation(cmd, st)
	return out
}

func (a *Assistant) answer(ctx context.Context, question string) Outcome {
	if a.deps.Answerer == nil {
		return Outcome{Kind: KindAnswerFail, Reply: ReplyNoAnswer}
	}
	reply, err := a.deps.Answerer.Answer(ctx, question)
	if err != nil {
		a.logger.Warn("answer generation failed", "error", err)
		return Outcome{Kind: KindAnswerFail, Reply: ReplyNoAnswer, Error: err.Error()}
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return Outcome{Kind: KindAnswerFail, Reply: ReplyNoAnswer}
	}
	return Outcome{Kind: KindAnswer, Reply: reply}
}

// leaveIfResolved confirms an idle leave phrase through the router before
// acting on it.
func (a *Assistant) leaveIfResolved(ctx context.Context, text string) Outcome {
	res, err := a.deps.Router.ResolveCommand(ctx, text)
	if err != nil || !res.IsLeaving() {
		a.logger.Debug("leave phrase not confirmed", "error", err)
		return a.outcome(Outcome{Kind: KindIgnored})
	}
	out := a.leave()
	a.recordQA(ctx, text, out.Reply)
	a.speak(ctx, out.Reply)
	return a.outcome(out)
}

func (a *Assistant) leave() Outcome {
	a.leaveLocked(actuator.SourceLeaving)
	return Outcome{Kind: KindLeaving, Reply: ReplyLeaving}
}

// leaveLocked switches the home off and idles the session. The caller
// holds handleMu.
func (a *Assistant) leaveLocked(source actuator.Source) []actuator.State {
	states := a.deps.Leaver.Leave(source)
	if a.session.ForceIdle() {
		a.sessionChanged(StateIdle)
	}
	a.logger.Info("occupant leaving", "source", source)
	return states
}

func (a *Assistant) outcome(out Outcome) Outcome {
	out.State = a.session.State()
	return out
}

func (a *Assistant) speak(ctx context.Context, text string) {
	if a.deps.Speaker == nil || text == "" {
		return
	}
	if err := a.deps.Speaker.Speak(ctx, text); err != nil {
		a.logger.Warn("speech output failed", "error", err)
	}
}

func (a *Assistant) recordQA(ctx context.Context, query, response string) {
	if a.deps.QA == nil {
		return
	}
	if err := a.deps.QA.RecordQA(ctx, query, response); err != nil {
		a.logger.Warn("recording voice log failed", "error", err)
	}
}

func (a *Assistant) sessionChanged(s State) {
	a.hookMu.Lock()
	hooks := slices.Clone(a.onSession)
	a.hookMu.Unlock()
	for _, fn := range hooks {
		fn(s)
	}
}

// matchWake finds the first wake phrase in text and returns what follows it.
func (a *Assistant) matchWake(text string) (string, bool) {
	for _, p := range a.wakePhrases {
		if i := indexPhrase(text, p); i >= 0 {
			return strings.TrimSpace(text[i+len(p):]), true
		}
	}
	return "", false
}

func (a *Assistant) matchLeave(text string) bool {
	for _, p := range a.leavePhrases {
		if indexPhrase(text, p) >= 0 {
			return true
		}
	}
	return false
}

func confirmation(cmd command.DeviceCommand, st actuator.State) string {
	name := displayName(st.Name, cmd.DeviceID)
	switch cmd.Action {
	case command.ActionOn:
		if v, ok := st.SettingValue(); ok {
			return fmt.Sprintf("Turning on the %s at %d.", name, v)
		}
		return fmt.Sprintf("Turning on the %s.", name)
	case command.ActionOff:
		return fmt.Sprintf("Turning off the %s.", name)
	default:
		return fmt.Sprintf("Setting the %s to %d.", name, cmd.Value)
	}
}

func rejection(cmd command.DeviceCommand, st actuator.State, err error) string {
	name := displayName(st.Name, cmd.DeviceID)
	var rangeErr *actuator.RangeError
	switch {
	case errors.As(err, &rangeErr):
		return fmt.Sprintf("The %s accepts values from %d to %d.", name, rangeErr.Min, rangeErr.Max)
	case errors.Is(err, actuator.ErrNotOn):
		return fmt.Sprintf("The %s is off. Turn it on first.", name)
	case errors.Is(err, actuator.ErrNoSetting):
		return fmt.Sprintf("The %s can only be switched on or off.", name)
	case errors.Is(err, actuator.ErrDeviceNotFound):
		return ReplyNoAccess
	default:
		return ReplyUnrecognised
	}
}

func displayName(name, id string) string {
	if name != "" {
		return strings.ToLower(name)
	}
	return strings.ReplaceAll(id, "_", " ")
}

// normalize lowercases text, turns punctuation other than apostrophes into
// spaces and collapses whitespace.
func normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			return unicode.ToLower(r)
		case r == '’':
			return '\''
		default:
			return ' '
		}
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// indexPhrase finds phrase in text on word boundaries.
func indexPhrase(text, phrase string) int {
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if (start == 0 || text[start-1] == ' ') && (end == len(text) || text[end] == ' ') {
			return start
		}
		offset = start + 1
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
