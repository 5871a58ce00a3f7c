package eventlog

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidType is returned for an entry type outside the known set.
var ErrInvalidType = errors.New("eventlog: invalid entry type")

// Type classifies an entry.
type Type string

// Entry types.
const (
	TypeDevice    Type = "device"
	TypeSecurity  Type = "security"
	TypeAssistant Type = "assistant"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeDevice, TypeSecurity, TypeAssistant:
		return true
	}
	return false
}

// Entry is one system event.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
}

// QA is one assistant exchange.
type QA struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
}

// Store persists entries. List methods return the newest first, at most
// limit items; a non-positive limit returns everything.
type Store interface {
	Append(ctx context.Context, e Entry) error
	AppendQA(ctx context.Context, qa QA) error
	List(ctx context.Context, limit int) ([]Entry, error)
	ListQA(ctx context.Context, limit int) ([]QA, error)
	Close() error
}
