// Package memory holds the per-run state of an inference: user preferences,
// the proto-frames created for the run, the catalog frames they came from,
// and the ordered trace of what happened.
package memory

import (
	"maps"
	"slices"

	"github.com/mesh-intelligence/frames/pkg/types"
)

// Preference keys recognized by the inference engine.
const (
	PrefPC          = "has_pc"
	PrefPlayStation = "has_playstation"
	PrefXbox        = "has_xbox"
	PrefAction      = "likes_action"
	PrefRPG         = "likes_rpg"
	PrefStrategy    = "likes_strategy"
	PrefSimulators  = "likes_simulators"
	PrefAdventure   = "likes_adventure"
	PrefOnline      = "has_online"
	PrefShort       = "short_sessions"
)

// PreferenceKeys lists the recognized keys in questionnaire order.
var PreferenceKeys = []string{
	PrefPC, PrefPlayStation, PrefXbox,
	PrefAction, PrefRPG, PrefStrategy, PrefSimulators, PrefAdventure,
	PrefOnline, PrefShort,
}

// Preference answers.
const (
	Yes = "да"
	No  = "нет"
)

// IsYes reports whether an answer means yes. The ASCII "yes" is accepted
// alongside Yes.
func IsYes(answer string) bool {
	return answer == Yes || answer == "yes"
}

// NormalizePreferences keeps the recognized keys, mapping every answer to
// Yes or No. Missing keys default to No.
func NormalizePreferences(raw map[string]string) map[string]string {
	out := make(map[string]string, len(PreferenceKeys))
	for _, key := range PreferenceKeys {
		if IsYes(raw[key]) {
			out[key] = Yes
		} else {
			out[key] = No
		}
	}
	return out
}

// WorkingMemory is the mutable state of one inference run. It is owned by a
// single run and never shared.
type WorkingMemory struct {
	preferences map[string]string
	protos      []*types.Frame
	exos        []*types.Frame
	trace       []types.TraceEntry
}

// New returns an empty working memory.
func New() *WorkingMemory {
	return &WorkingMemory{preferences: map[string]string{}}
}

// SetPreferences stores normalized preferences and traces the step.
func (wm *WorkingMemory) SetPreferences(prefs map[string]string) {
	wm.preferences = NormalizePreferences(prefs)
	details := make(map[string]any, len(wm.preferences))
	for k, v := range wm.preferences {
		details[k] = v
	}
	wm.AddTrace(types.ActionSetPreferences, "System", map[string]any{"preferences": details})
}

// Preferences returns a copy of the stored preferences.
func (wm *WorkingMemory) Preferences() map[string]string {
	return maps.Clone(wm.preferences)
}

// Preference returns the stored answer for key, No when absent.
func (wm *WorkingMemory) Preference(key string) string {
	if v, ok := wm.preferences[key]; ok {
		return v
	}
	return No
}

// AddProtoFrame records a proto-frame created for this run.
func (wm *WorkingMemory) AddProtoFrame(f *types.Frame) {
	wm.protos = append(wm.protos, f)
	wm.AddTrace(types.ActionAddProtoFrame, f.Name(), nil)
}

// AddExoFrame records the catalog frame a proto-frame was created from.
func (wm *WorkingMemory) AddExoFrame(f *types.Frame) {
	wm.exos = append(wm.exos, f)
}

// AddTrace appends a trace entry.
func (wm *WorkingMemory) AddTrace(action, frame string, details map[string]any) {
	wm.trace = append(wm.trace, types.TraceEntry{Action: action, Frame: frame, Details: details})
}

// ProtoFrames returns the proto-frames in order.
func (wm *WorkingMemory) ProtoFrames() []*types.Frame { return slices.Clone(wm.protos) }

// ExoFrames returns the catalog frames in the order they were visited.
func (wm *WorkingMemory) ExoFrames() []*types.Frame { return slices.Clone(wm.exos) }

// Trace returns the trace entries in order.
func (wm *WorkingMemory) Trace() []types.TraceEntry { return slices.Clone(wm.trace) }

// CountAction returns the number of trace entries with the given action.
func (wm *WorkingMemory) CountAction(action string) int {
	n := 0
	for _, e := range wm.trace {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Clear resets the working memory to empty.
func (wm *WorkingMemory) Clear() {
	wm.preferences = map[string]string{}
	wm.protos = nil
	wm.exos = nil
	wm.trace = nil
}
