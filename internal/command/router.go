package command

import (
	"context"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Router.
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

// DefaultTimeout bounds each classifier call when none is configured.
const DefaultTimeout = 10 * time.Second

// Router classifies text and resolves commands.
type Router struct {
	classifier Classifier
	devices    Resolver
	timeout    time.Duration
	logger     Logger
}

// NewRouter creates a router. A non-positive timeout uses DefaultTimeout.
func NewRouter(classifier Classifier, devices Resolver, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Router{
		classifier: classifier,
		devices:    devices,
		timeout:    timeout,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// ClassifyIntent returns the intent of text. Classifier errors, timeouts and
// unexpected labels all yield IntentUnknown.
func (r *Router) ClassifyIntent(ctx context.Context, text string) Intent {
	label, err := r.classify(ctx, TaskIntent, text)
	if err != nil {
		r.logger.Warn("intent classification failed", "error", err)
		return IntentUnknown
	}
	intent := ParseIntent(label)
	r.logger.Debug("intent classified", "label", label, "intent", intent)
	return intent
}

// ResolveCommand asks the classifier for a command label and maps it.
// A classifier failure is reported as ErrUnrecognized.
func (r *Router) ResolveCommand(ctx context.Context, text string) (Resolution, error) {
	label, err := r.classify(ctx, TaskCommand, text)
	if err != nil {
		r.logger.Warn("command classification failed", "error", err)
		return Resolution{}, fmt.Errorf("%w: %w", ErrUnrecognized, err)
	}

	res, err := ParseLabel(label, r.devices)
	if err != nil {
		r.logger.Info("command not resolved", "label", label, "error", err)
		return res, err
	}
	r.logger.Debug("command resolved", "label", label, "kind", res.Kind, "command", res.Command.String())
	return res, nil
}

// Result is the combined outcome of Route.
type Result struct {
	Intent     Intent
	Resolution Resolution
	Err        error
}

// Route classifies text and, for command intents, resolves the command.
func (r *Router) Route(ctx context.Context, text string) Result {
	intent := r.ClassifyIntent(ctx, text)
	if intent != IntentCommand {
		return Result{Intent: intent}
	}
	res, err := r.ResolveCommand(ctx, text)
	return Result{Intent: intent, Resolution: res, Err: err}
}

// classify calls the classifier with the router timeout. The call runs on
// its own goroutine so a classifier that ignores ctx still cannot hold the
// caller past the deadline.
func (r *Router) classify(ctx context.Context, task Task, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type reply struct {
		label string
		err   error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- reply{err: fmt.Errorf("classifier panicked: %v", p)}
			}
		}()
		l, err := r.classifier.Classify(ctx, task, text)
		ch <- reply{label: l, err: err}
	}()

	select {
	case rep := <-ch:
		return rep.label, rep.err
	case <-ctx.Done():
		return "", fmt.Errorf("%s classification: %w", task, ctx.Err())
	}
}
