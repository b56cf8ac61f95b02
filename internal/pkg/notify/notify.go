package notify

import (
	"log"
	"sync"
)

// Kind classifies a transient user-facing notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notifier is the port through which the reconciliation core surfaces
// transient notifications to the UI layer.
type Notifier interface {
	Success(message string)
	Info(message string)
	Error(message string)
}

// LogNotifier writes notifications to the process log. It is the default
// sink when no UI is attached.
type LogNotifier struct{}

func (LogNotifier) Success(message string) { log.Printf("[notify] success: %s", message) }
func (LogNotifier) Info(message string)    { log.Printf("[notify] info: %s", message) }
func (LogNotifier) Error(message string)   { log.Printf("[notify] error: %s", message) }

// Event is one recorded notification.
type Event struct {
	Kind    Kind
	Message string
}

// Recorder collects notifications for inspection in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Success(message string) { r.record(KindSuccess, message) }
func (r *Recorder) Info(message string)    { r.record(KindInfo, message) }
func (r *Recorder) Error(message string)   { r.record(KindError, message) }

func (r *Recorder) record(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Message: message})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
