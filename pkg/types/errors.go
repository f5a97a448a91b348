package types

import (
	"errors"
	"fmt"
)

// Slot errors.
var (
	ErrTypeMismatch = errors.New("value does not match slot data type")
	ErrOutOfRange   = errors.New("value is outside the slot's permissible values")
	ErrSlotNotFound = errors.New("slot not found")
)

// Journal lifecycle errors.
var (
	ErrJournalClosed = errors.New("journal is closed")
	ErrAlreadyOpen   = errors.New("journal is already open")
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
)

// SlotError reports a rejected slot write. It names the slot and the
// offending value and wraps the reason.
type SlotError struct {
	Slot  string
	Value Value
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %s: value %q: %v", e.Slot, e.Value.String(), e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }
