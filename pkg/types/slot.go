package types

// Inheritance describes how a slot value relates to the frame's ancestors.
type Inheritance string

// Inheritance modes as written in knowledge files.
const (
	InheritUnique   Inheritance = "U" // unique per instance
	InheritSame     Inheritance = "S" // same as parent
	InheritRange    Inheritance = "R" // constrained to a range
	InheritOverride Inheritance = "O" // overridable by descendants
)

// validInheritance is the set of recognized inheritance modes.
var validInheritance = map[Inheritance]bool{
	InheritUnique:   true,
	InheritSame:     true,
	InheritRange:    true,
	InheritOverride: true,
}

// IsValidInheritance reports whether the given string is a recognized mode.
func IsValidInheritance(s string) bool {
	return validInheritance[Inheritance(s)]
}

// TriggerKind names the moment at which a trigger procedure runs.
type TriggerKind string

// Trigger kinds as written in knowledge files.
const (
	TriggerIfNeeded  TriggerKind = "IF-NEEDED"  // compute an empty slot on read
	TriggerIfAdded   TriggerKind = "IF-ADDED"   // observe a validated write
	TriggerIfRemoved TriggerKind = "IF-REMOVED" // observe a clear
)

// ParseTriggerKind returns the TriggerKind for s.
func ParseTriggerKind(s string) (TriggerKind, bool) {
	switch k := TriggerKind(s); k {
	case TriggerIfNeeded, TriggerIfAdded, TriggerIfRemoved:
		return k, true
	}
	return "", false
}

// ComputeFunc produces a value for an empty slot. The frame passed in is the
// frame that declares the slot. Returning false means nothing was computed.
type ComputeFunc func(f *Frame) (Value, bool)

// SetObserver runs after a validated write with the previous and new values.
// A non-nil error undoes the write.
type SetObserver func(f *Frame, old, new Value) error

// ClearObserver runs after a slot value is cleared, with the removed value.
type ClearObserver func(f *Frame, old Value)

// Triggers holds the procedures bound to a slot, at most one per kind.
type Triggers struct {
	Compute ComputeFunc
	OnSet   SetObserver
	OnClear ClearObserver
}

// Has reports whether a procedure is bound for kind.
func (t Triggers) Has(kind TriggerKind) bool {
	switch kind {
	case TriggerIfNeeded:
		return t.Compute != nil
	case TriggerIfAdded:
		return t.OnSet != nil
	case TriggerIfRemoved:
		return t.OnClear != nil
	}
	return false
}

// Slot is a typed, optionally constrained attribute of a frame.
type Slot struct {
	Name        string
	Type        DataType
	Inheritance Inheritance
	Range       []Value // permissible values; empty means unconstrained
	Triggers    Triggers
	Default     Value // value captured when the slot was created

	value     Value
	computing bool
}

// NewSlot creates a slot holding value. The value is not validated; callers
// that accept external input use Validate first.
func NewSlot(name string, dt DataType, inh Inheritance, value Value, rng []Value, trg Triggers) *Slot {
	return &Slot{
		Name:        name,
		Type:        dt,
		Inheritance: inh,
		Range:       rng,
		Triggers:    trg,
		Default:     value,
		value:       value,
	}
}

// Value returns the value stored in the slot itself, without running
// triggers or consulting ancestors.
func (s *Slot) Value() Value { return s.value }

// HasValue reports whether the slot holds a value of its own.
func (s *Slot) HasValue() bool { return s.value.IsSet() }

// Validate checks v against the slot's data type and permissible values.
// Unset values always pass.
func (s *Slot) Validate(v Value) error {
	if !v.IsSet() {
		return nil
	}
	if v.Kind() != s.Type {
		return &SlotError{Slot: s.Name, Value: v, Err: ErrTypeMismatch}
	}
	if len(s.Range) == 0 {
		return nil
	}
	for _, allowed := range s.Range {
		if allowed.Equal(v) {
			return nil
		}
	}
	return &SlotError{Slot: s.Name, Value: v, Err: ErrOutOfRange}
}

// set validates v, stores it and runs the IF-ADDED observer.
func (s *Slot) set(f *Frame, v Value) error {
	if err := s.Validate(v); err != nil {
		return err
	}
	old := s.value
	s.value = v
	if s.Triggers.OnSet != nil {
		if err := s.Triggers.OnSet(f, old, v); err != nil {
			s.value = old
			return &SlotError{Slot: s.Name, Value: v, Err: err}
		}
	}
	return nil
}

// compute runs the IF-NEEDED procedure for an empty slot and caches a valid
// result. While the procedure runs the slot reads as empty, so a procedure
// that reads its own slot recurses at most one level.
func (s *Slot) compute(f *Frame) (Value, bool) {
	if s.Triggers.Compute == nil || s.computing {
		return Value{}, false
	}
	s.computing = true
	v, ok := s.Triggers.Compute(f)
	s.computing = false
	if !ok || !v.IsSet() {
		return Value{}, false
	}
	if s.Validate(v) != nil {
		return Value{}, false
	}
	s.value = v
	return v, true
}

// clear resets the slot and runs the IF-REMOVED observer with the old value.
func (s *Slot) clear(f *Frame) {
	old := s.value
	s.value = Value{}
	if s.Triggers.OnClear != nil {
		s.Triggers.OnClear(f, old)
	}
}
