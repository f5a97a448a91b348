package types

// AKOSlot is the name of the structural slot linking a frame to its parent.
const AKOSlot = "AKO"

// MaxChainDepth bounds every walk along AKO links. Knowledge files are not
// checked for cycles, so walks also track visited frames.
const MaxChainDepth = 64

// ProtoPrefix is prepended to the name of frames made by CreateInstance.
const ProtoPrefix = "Proto_"

// Frame is a named node in a single-inheritance forest. Its slots are kept
// in declaration order. Frames are not safe for concurrent mutation.
type Frame struct {
	name  string
	slots map[string]*Slot
	order []string
}

// NewFrame creates a frame with only the structural AKO slot, unset.
func NewFrame(name string) *Frame {
	f := &Frame{
		name:  name,
		slots: make(map[string]*Slot),
	}
	f.AddSlot(NewSlot(AKOSlot, DataTypeFrame, InheritSame, Value{}, nil, Triggers{}))
	return f
}

// Name returns the frame name.
func (f *Frame) Name() string { return f.name }

// AddSlot adds s to the frame, replacing any slot with the same name while
// keeping its position. Replacing AKO keeps the slot structural: a non-frame
// value is dropped.
func (f *Frame) AddSlot(s *Slot) {
	if s.Name == AKOSlot {
		parent, _ := s.value.AsFrame()
		s.Type = DataTypeFrame
		s.value = Ref(parent)
		s.Default = s.value
	}
	if _, ok := f.slots[s.Name]; !ok {
		f.order = append(f.order, s.Name)
	}
	f.slots[s.Name] = s
}

// Slot returns the slot declared on this frame, ignoring ancestors.
func (f *Frame) Slot(name string) (*Slot, bool) {
	s, ok := f.slots[name]
	return s, ok
}

// SlotNames returns the declared slot names in declaration order, AKO first.
func (f *Frame) SlotNames() []string {
	names := make([]string, len(f.order))
	copy(names, f.order)
	return names
}

// AKO returns the parent frame, if any.
func (f *Frame) AKO() (*Frame, bool) {
	parent, ok := f.slots[AKOSlot].value.AsFrame()
	return parent, ok && parent != nil
}

// SetAKO points the frame at parent without validation. It is the only
// write that bypasses the slot validation path. A nil parent makes the
// frame a root.
func (f *Frame) SetAKO(parent *Frame) {
	f.slots[AKOSlot].value = Ref(parent)
}

// Ancestors returns the frame followed by each AKO ancestor, nearest first.
// The walk stops at a root, at a repeated frame, or after MaxChainDepth hops.
func (f *Frame) Ancestors() []*Frame {
	chain := []*Frame{f}
	seen := map[*Frame]bool{f: true}
	cur := f
	for range MaxChainDepth {
		parent, ok := cur.AKO()
		if !ok || seen[parent] {
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// GetSlotValue resolves a slot value. A locally stored value wins; an empty
// local slot with an IF-NEEDED procedure is computed once and cached; other
// cases defer to the AKO ancestors. The second result is false when no frame
// in the chain yields a value.
func (f *Frame) GetSlotValue(name string) (Value, bool) {
	for _, cur := range f.Ancestors() {
		s, ok := cur.slots[name]
		if !ok {
			continue
		}
		if s.HasValue() {
			return s.value, true
		}
		if v, ok := s.compute(cur); ok {
			return v, true
		}
	}
	return Value{}, false
}

// SetSlotValue writes a slot value. An undeclared slot is created with a
// data type classified from raw, overridable inheritance and no range.
// A declared slot validates the value, returning a *SlotError on failure,
// then runs its IF-ADDED procedure.
func (f *Frame) SetSlotValue(name string, raw any) error {
	v := Classify(raw)
	s, ok := f.slots[name]
	if !ok {
		f.AddSlot(NewSlot(name, v.Kind(), InheritOverride, v, nil, Triggers{}))
		return nil
	}
	return s.set(f, v)
}

// ClearSlotValue empties a declared slot and runs its IF-REMOVED procedure.
func (f *Frame) ClearSlotValue(name string) error {
	s, ok := f.slots[name]
	if !ok {
		return ErrSlotNotFound
	}
	s.clear(f)
	return nil
}

// IsInstanceOf reports whether typeName names this frame or an ancestor.
func (f *Frame) IsInstanceOf(typeName string) bool {
	for _, cur := range f.Ancestors() {
		if cur.name == typeName {
			return true
		}
	}
	return false
}

// CreateInstance returns a new frame whose AKO points at f and which has no
// other slots. Inference uses it to derive proto-frames from catalog frames.
func (f *Frame) CreateInstance() *Frame {
	proto := NewFrame(ProtoPrefix + f.name)
	proto.SetAKO(f)
	return proto
}

// String renders the frame name and its local slot values.
func (f *Frame) String() string {
	out := "Frame(" + f.name + ", slots: ["
	for i, name := range f.order {
		if i > 0 {
			out += ", "
		}
		out += name + ": " + f.slots[name].value.String()
	}
	return out + "])"
}
