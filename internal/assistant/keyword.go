package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nerrad567/smartaura-core/internal/command"
)

var (
	controlVerbs = []string{"turn", "switch", "set", "change", "put", "start", "stop", "shut", "increase", "decrease", "raise", "lower", "make"}
	onWords      = []string{"on", "start"}
	offWords     = []string{"off", "stop", "shut"}
	leaveWords   = []string{"leaving", "leave home", "heading out", "going out", "goodbye", "bye"}
	foreignNouns = []string{"tv", "television", "garage", "door", "oven", "heater", "window", "curtains", "lock", "music", "speaker"}
	greetings    = []string{"hi", "hello", "hey", "good morning", "good evening"}
)

// Keyword is an offline classifier that matches device names and verbs.
// It never fails, so it suits deployments without an LLM endpoint.
type Keyword struct {
	devices []Device
	clock   func() time.Time
}

// NewKeyword creates a keyword classifier for the given devices.
func NewKeyword(devices []Device) *Keyword {
	return &Keyword{devices: devices, clock: time.Now}
}

// Classify implements command.Classifier.
func (k *Keyword) Classify(_ context.Context, task command.Task, text string) (string, error) {
	words := tokenize(text)
	switch task {
	case command.TaskIntent:
		return k.intent(words), nil
	case command.TaskCommand:
		return k.command(words), nil
	default:
		return "", fmt.Errorf("assistant: unknown task %q", task)
	}
}

// Answer gives short canned replies to greetings and the time.
func (k *Keyword) Answer(_ context.Context, question string) (string, error) {
	words := tokenize(question)
	switch {
	case containsAny(words, greetings):
		return "Hey!", nil
	case containsAny(words, []string{"time"}):
		return "It's " + k.clock().Format("15:04") + ".", nil
	default:
		return "I can only help with the devices at home right now.", nil
	}
}

func (k *Keyword) intent(words string) string {
	if containsAny(words, leaveWords) {
		return "command-query"
	}
	mentionsDevice := k.device(words) != nil || containsAny(words, foreignNouns)
	if mentionsDevice && (containsAny(words, controlVerbs) || containsAny(words, onWords) || containsAny(words, offWords)) {
		return "command-query"
	}
	return "general-query"
}

func (k *Keyword) command(words string) string {
	if containsAny(words, leaveWords) {
		return "leaving"
	}
	d := k.device(words)
	if d == nil {
		return "no-access"
	}
	if n, ok := firstNumber(words); ok && d.Kind.HasSetting() {
		return fmt.Sprintf("%s-control-%d", d.Label, n)
	}
	switch {
	case containsAny(words, offWords):
		return d.Label + "-control-off"
	case containsAny(words, onWords):
		return d.Label + "-control-on"
	default:
		return d.Label + "-error"
	}
}

// device returns the device with the longest keyword in words.
func (k *Keyword) device(words string) *Device {
	var (
		best    *Device
		bestLen int
	)
	for i := range k.devices {
		for _, kw := range k.devices[i].Keywords {
			if len(kw) > bestLen && containsWord(words, kw) {
				best, bestLen = &k.devices[i], len(kw)
			}
		}
	}
	return best
}

// tokenize lowercases text and reduces it to space separated words,
// padded with a space on each side for whole word matching.
func tokenize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return " " + strings.Join(strings.Fields(mapped), " ") + " "
}

func containsWord(words, phrase string) bool {
	return strings.Contains(words, " "+phrase+" ")
}

func containsAny(words string, phrases []string) bool {
	for _, p := range phrases {
		if containsWord(words, p) {
			return true
		}
	}
	return false
}

func firstNumber(words string) (int, bool) {
	for _, w := range strings.Fields(words) {
		if n, err := strconv.Atoi(w); err == nil {
			return n, true
		}
	}
	return 0, false
}
