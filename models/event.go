package models

import "time"

type EventType string

const (
	EventPhaseChanged EventType = "phase_changed"
	EventCompleted    EventType = "completed"
	EventFailed       EventType = "failed"
	EventRefunded     EventType = "refunded"
)

// Event is implemented only by the event kinds in this file.
type Event interface {
	Type() EventType
	Transaction() *BridgeTransaction
	OccurredAt() time.Time
	isEvent()
}

type PhaseChanged struct {
	Tx            *BridgeTransaction
	PreviousPhase Phase
	NewPhase      Phase
	At            time.Time
}

type Completed struct {
	Tx *BridgeTransaction
	At time.Time
}

type Failed struct {
	Tx     *BridgeTransaction
	Reason string
	At     time.Time
}

type Refunded struct {
	Tx     *BridgeTransaction
	Reason string
	At     time.Time
}

func (e PhaseChanged) Type() EventType                 { return EventPhaseChanged }
func (e PhaseChanged) Transaction() *BridgeTransaction { return e.Tx }
func (e PhaseChanged) OccurredAt() time.Time           { return e.At }
func (PhaseChanged) isEvent()                          {}

func (e Completed) Type() EventType                 { return EventCompleted }
func (e Completed) Transaction() *BridgeTransaction { return e.Tx }
func (e Completed) OccurredAt() time.Time           { return e.At }
func (Completed) isEvent()                          {}

func (e Failed) Type() EventType                 { return EventFailed }
func (e Failed) Transaction() *BridgeTransaction { return e.Tx }
func (e Failed) OccurredAt() time.Time           { return e.At }
func (Failed) isEvent()                          {}

func (e Refunded) Type() EventType                 { return EventRefunded }
func (e Refunded) Transaction() *BridgeTransaction { return e.Tx }
func (e Refunded) OccurredAt() time.Time           { return e.At }
func (Refunded) isEvent()                          {}

// TerminalEvent builds the terminal-specific event for tx, or nil if tx is not terminal.
func TerminalEvent(tx *BridgeTransaction, reason string, at time.Time) Event {
	switch tx.Phase {
	case PhaseCompleted:
		return Completed{Tx: tx, At: at}
	case PhaseFailed:
		return Failed{Tx: tx, Reason: reason, At: at}
	case PhaseRefunded:
		return Refunded{Tx: tx, Reason: reason, At: at}
	}
	return nil
}
