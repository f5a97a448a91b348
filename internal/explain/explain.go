// Package explain reconstructs, in plain text, why the inference engine
// recommended a game, how a slot value was inherited, where a frame sits in
// its hierarchy and what happened during a run. Every text form has a
// structured counterpart used by the JSON output of the CLI.
package explain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/frames/internal/inference"
	"github.com/mesh-intelligence/frames/internal/kb"
	"github.com/mesh-intelligence/frames/internal/memory"
	"github.com/mesh-intelligence/frames/pkg/types"
)

const (
	mark     = "✓"
	noMark   = "✗"
	anyValue = "any"
	rule     = "============================================================"
)

// Explainer reads the knowledge base and working memory of an engine.
type Explainer struct {
	engine *inference.Engine
}

// New returns an explainer for engine.
func New(engine *inference.Engine) *Explainer {
	return &Explainer{engine: engine}
}

// Check is one criterion of a recommendation.
type Check struct {
	Criterion string `json:"criterion"`
	Game      string `json:"game"`
	User      string `json:"user"`
	Met       bool   `json:"met"`
}

// CriteriaReport describes why a game was recommended.
type CriteriaReport struct {
	Game          string   `json:"game"`
	Compatibility float64  `json:"compatibility"`
	Checks        []Check  `json:"checks"`
	Reason        string   `json:"reason,omitempty"`
	Similar       []string `json:"similar,omitempty"`
}

// Criteria evaluates the recommended game against the user's profile using
// the same predicates as scoring. It reports false when the game did not
// qualify in the last run.
func (x *Explainer) Criteria(game string) (CriteriaReport, bool) {
	proto, ok := x.engine.Match(game)
	if !ok {
		return CriteriaReport{}, false
	}
	profile := inference.NewProfile(x.engine.WorkingMemory().Preferences())

	platform := textOr(proto, inference.SlotRequiredPlatform, anyValue)
	genre := textOr(proto, inference.SlotRequiredGenre, anyValue)
	session := textOr(proto, inference.SlotRecommendedSession, anyValue)

	liked := "no preference"
	if len(profile.Genres) > 0 {
		liked = strings.Join(profile.Genres, ", ")
	}
	preferred := inference.SessionLong
	if profile.PrefersShort {
		preferred = inference.SessionShort
	}

	report := CriteriaReport{
		Game:          game,
		Compatibility: inference.Compatibility(proto),
		Checks: []Check{
			{"platform", platform, profile.Platform, inference.PlatformMatches(platform, profile.Platform)},
			{"genre", genre, liked, inference.GenreMatches(genre, profile.Genres)},
			{"session length", session, preferred, inference.SessionMatches(session, profile.PrefersShort)},
		},
	}

	if v, ok := proto.GetSlotValue(inference.SlotRequiresOnline); ok {
		if requires, ok := v.AsBool(); ok {
			need := "not required"
			if requires {
				need = "required"
			}
			access := "no access"
			if profile.HasOnline {
				access = "has access"
			}
			report.Checks = append(report.Checks, Check{"online", need, access, inference.OnlineSatisfied(requires, profile.HasOnline)})
		}
	}

	if v, ok := proto.GetSlotValue(kb.SlotReason); ok {
		report.Reason = v.TextOr("")
	}
	report.Similar = x.engine.KnowledgeBase().Similar(game)
	return report, true
}

// ExplainRecommendation explains why game was recommended.
func (x *Explainer) ExplainRecommendation(game string) string {
	report, ok := x.Criteria(game)
	if !ok {
		return fmt.Sprintf("Game '%s' was not found among the recommendations.", game)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Why '%s' was recommended:\n", game)
	fmt.Fprintf(&sb, "  Compatibility: %.1f%%\n\n", report.Compatibility*100)
	sb.WriteString("Criteria:\n")
	for i, c := range report.Checks {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, describeCheck(c))
	}
	if report.Reason != "" {
		fmt.Fprintf(&sb, "\nAdditional information:\n  %s\n", report.Reason)
	}
	if len(report.Similar) > 0 {
		fmt.Fprintf(&sb, "\nSimilar games:\n  %s\n", strings.Join(report.Similar, ", "))
	}
	return sb.String()
}

func describeCheck(c Check) string {
	m := noMark
	if c.Met {
		m = mark
	}
	switch c.Criterion {
	case "platform":
		return fmt.Sprintf("Platform: the game is for '%s', you have '%s' %s", c.Game, c.User, m)
	case "genre":
		return fmt.Sprintf("Genre: the game is '%s', you like: %s %s", c.Game, c.User, m)
	case "session length":
		return fmt.Sprintf("Session length: the game suits '%s' sessions, you prefer %s ones %s", c.Game, c.User, m)
	case "online":
		return fmt.Sprintf("Online: access is %s, you have %s %s", c.Game, strings.TrimPrefix(c.User, "has "), m)
	}
	return fmt.Sprintf("%s: %s / %s %s", c.Criterion, c.Game, c.User, m)
}

// Source is one frame in an inheritance chain that holds a value.
type Source struct {
	Frame string `json:"frame"`
	Value string `json:"value"`
}

// InheritanceReport describes how a frame obtains a slot value.
type InheritanceReport struct {
	Frame    string   `json:"frame"`
	Slot     string   `json:"slot"`
	Exists   bool     `json:"exists"`
	Local    bool     `json:"local"`
	Computed bool     `json:"computed"`
	Chain    []Source `json:"chain,omitempty"`
	Found    bool     `json:"found"`
	Value    string   `json:"value,omitempty"`
}

// SlotInheritance traces slot through frame and its ancestors. A local value
// is reported alone; otherwise every ancestor holding a value is listed,
// nearest first, and the farthest of them is the final value.
func (x *Explainer) SlotInheritance(frameName, slot string) InheritanceReport {
	report := InheritanceReport{Frame: frameName, Slot: slot}
	frame, ok := x.engine.KnowledgeBase().Frame(frameName)
	if !ok {
		return report
	}
	report.Exists = true

	if s, ok := frame.Slot(slot); ok {
		if s.HasValue() {
			report.Local, report.Found, report.Value = true, true, s.Value().String()
			return report
		}
		if s.Triggers.Has(types.TriggerIfNeeded) {
			if v, ok := frame.GetSlotValue(slot); ok && s.HasValue() {
				report.Computed, report.Found, report.Value = true, true, v.String()
				return report
			}
		}
	}

	for _, anc := range frame.Ancestors()[1:] {
		s, ok := anc.Slot(slot)
		if !ok {
			continue
		}
		if s.HasValue() {
			report.Chain = append(report.Chain, Source{anc.Name(), s.Value().String()})
			continue
		}
		if s.Triggers.Has(types.TriggerIfNeeded) {
			if v, ok := anc.GetSlotValue(slot); ok {
				report.Chain = append(report.Chain, Source{anc.Name(), v.String()})
			}
		}
	}

	if len(report.Chain) > 0 {
		report.Found, report.Value = true, report.Chain[len(report.Chain)-1].Value
	} else if v, ok := frame.GetSlotValue(slot); ok {
		report.Found, report.Value = true, v.String()
	}
	return report
}

// ExplainSlotInheritance explains how frameName obtains slot.
func (x *Explainer) ExplainSlotInheritance(frameName, slot string) string {
	report := x.SlotInheritance(frameName, slot)
	if !report.Exists {
		return fmt.Sprintf("Frame '%s' was not found in the knowledge base.", frameName)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inheritance of slot '%s' in frame '%s':\n", slot, frameName)
	switch {
	case report.Local:
		fmt.Fprintf(&sb, "1. Local value: %s\n", report.Value)
	case report.Computed:
		fmt.Fprintf(&sb, "1. Computed on demand: %s\n", report.Value)
	case len(report.Chain) > 0:
		sb.WriteString("The value is inherited through the AKO chain:\n")
		for i, src := range report.Chain {
			fmt.Fprintf(&sb, "  %d. From '%s': %s\n", i+1, src.Frame, src.Value)
		}
		fmt.Fprintf(&sb, "\nFinal value: %s\n", report.Value)
	default:
		sb.WriteString("No value was found locally or through inheritance.\n")
	}
	return sb.String()
}

// HierarchyLevel is one frame in an AKO chain.
type HierarchyLevel struct {
	Depth int    `json:"depth"`
	Frame string `json:"frame"`
}

// Hierarchy lists frameName and its ancestors. A root frame yields a single
// level at depth 0.
func (x *Explainer) Hierarchy(frameName string) ([]HierarchyLevel, bool) {
	frame, ok := x.engine.KnowledgeBase().Frame(frameName)
	if !ok {
		return nil, false
	}
	chain := frame.Ancestors()
	levels := make([]HierarchyLevel, len(chain))
	for i, f := range chain {
		levels[i] = HierarchyLevel{Depth: i, Frame: f.Name()}
	}
	return levels, true
}

// ExplainFrameHierarchy renders the AKO chain of frameName as an indented
// list.
func (x *Explainer) ExplainFrameHierarchy(frameName string) string {
	levels, ok := x.Hierarchy(frameName)
	if !ok {
		return fmt.Sprintf("Frame '%s' was not found in the knowledge base.", frameName)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hierarchy of frame '%s':\n", frameName)
	for _, l := range levels {
		fmt.Fprintf(&sb, "%s• %s\n", strings.Repeat("  ", l.Depth), l.Frame)
	}
	return sb.String()
}

// Trace returns the trace entries of the last run.
func (x *Explainer) Trace() []types.TraceEntry {
	return x.engine.WorkingMemory().Trace()
}

// DetailedTrace lists every trace entry with its details, keys sorted.
func (x *Explainer) DetailedTrace() string {
	trace := x.engine.WorkingMemory().Trace()
	if len(trace) == 0 {
		return "The inference trace is empty."
	}

	var sb strings.Builder
	sb.WriteString("Detailed inference trace:\n")
	sb.WriteString(rule + "\n")
	for i, entry := range trace {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, strings.ToUpper(entry.Action), entry.Frame)
		writeDetails(&sb, entry.Details, "   ")
	}
	return sb.String()
}

func writeDetails(sb *strings.Builder, details map[string]any, indent string) {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if nested, ok := details[k].(map[string]any); ok {
			fmt.Fprintf(sb, "%s• %s:\n", indent, k)
			writeDetails(sb, nested, indent+"  ")
			continue
		}
		fmt.Fprintf(sb, "%s• %s: %v\n", indent, k, details[k])
	}
}

// ProcessSummary counts the steps of the last run.
type ProcessSummary struct {
	PreferencesSet bool `json:"preferences_set"`
	ProtoFrames    int  `json:"proto_frames"`
	Matches        int  `json:"matches"`
}

// Summary counts the trace entries of the last run.
func (x *Explainer) Summary() ProcessSummary {
	wm := x.engine.WorkingMemory()
	return ProcessSummary{
		PreferencesSet: wm.CountAction(types.ActionSetPreferences) > 0,
		ProtoFrames:    wm.CountAction(types.ActionAddProtoFrame),
		Matches:        wm.CountAction(types.ActionFrameMatch),
	}
}

// ExplainProcess narrates the stages of frame-based inference with the
// counts from the last run.
func (x *Explainer) ExplainProcess() string {
	var sb strings.Builder
	sb.WriteString("Frame-based inference process:\n")
	sb.WriteString(rule + "\n")
	if len(x.engine.WorkingMemory().Trace()) == 0 {
		sb.WriteString("Inference has not run yet.\n")
		return sb.String()
	}
	s := x.Summary()
	prefs := "none were given"
	if s.PreferencesSet {
		prefs = fmt.Sprintf("%d recognized answers were stored", len(memory.PreferenceKeys))
	}

	fmt.Fprintf(&sb, "1. Input analysis:\n   • User preferences: %s\n", prefs)
	fmt.Fprintf(&sb, "\n2. Proto-frame creation:\n   • %d proto-frames were created as empty templates\n", s.ProtoFrames)
	sb.WriteString("\n3. Linking to exo-frames:\n   • Each proto-frame points through AKO at its catalog frame\n")
	sb.WriteString("\n4. Slot filling:\n   • Requirements were copied from the catalog frames\n")
	sb.WriteString("   • IF-NEEDED procedures computed missing values on demand\n")
	fmt.Fprintf(&sb, "\n5. Compatibility scoring:\n   • %d games scored above %.1f\n", s.Matches, inference.Threshold)
	sb.WriteString("\n6. Recommendation:\n   • Matches were ranked by compatibility\n")
	if best, ok := x.engine.BestRecommendation(); ok {
		fmt.Fprintf(&sb, "   • Best match: %s\n", best)
	}
	return sb.String()
}

// textOr returns the text value of a slot or def.
func textOr(f *types.Frame, slot, def string) string {
	v, ok := f.GetSlotValue(slot)
	if !ok {
		return def
	}
	if s := v.TextOr(""); s != "" {
		return s
	}
	return def
}
