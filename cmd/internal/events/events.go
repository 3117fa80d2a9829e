// Package events describes lifecycle notifications emitted after a state
// change has been committed.
package events

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"nutricare/cmd/internal/utils"
	"sync"
)

type Type string

const (
	ApplicationSubmitted Type = "application.submitted"
	ApplicationAccepted  Type = "application.accepted"
	ApplicationRejected  Type = "application.rejected"
	ApplicationCancelled Type = "application.cancelled"
	AppointmentResolved  Type = "appointment.resolved"
	SessionStarted       Type = "session.started"
	SessionEnded         Type = "session.ended"
	PermissionGranted    Type = "permission.granted"
	PermissionRevoked    Type = "permission.revoked"
	HealthChanged        Type = "health.changed"
)

type Event struct {
	ID            string         `json:"id"`
	Type          Type           `json:"type"`
	ClientID      int            `json:"client_id"`
	ConsultantID  int            `json:"consultant_id"`
	AppointmentID *int           `json:"appointment_id,omitempty"`
	ActorID       int            `json:"actor_id"`
	OccurredAt    string         `json:"occurred_at"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

func New(t Type, actorID, clientID, consultantID int, appointmentID *int) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		ClientID:      clientID,
		ConsultantID:  consultantID,
		AppointmentID: appointmentID,
		ActorID:       actorID,
		OccurredAt:    utils.FormatEpoch(utils.NowUTC()),
	}
}

// With returns a copy of e carrying an extra attribute.
func (e Event) With(key string, value any) Event {
	attrs := make(map[string]any, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attributes = attrs
	return e
}

// Key groups all events of one client/consultant pair on the same partition.
func (e Event) Key() string {
	return fmt.Sprintf("%d:%d", e.ClientID, e.ConsultantID)
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error {
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	evts := r.Events()
	out := make([]Type, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}
