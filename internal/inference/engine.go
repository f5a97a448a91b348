// Package inference matches user preferences against the catalog of a
// knowledge base. Each catalog frame yields a proto-frame carrying the
// game's requirements; proto-frames that score above Threshold are ranked
// and reported as recommendations.
package inference

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/frames/internal/kb"
	"github.com/mesh-intelligence/frames/internal/memory"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// copyForward maps catalog slots to the proto-frame slots they fill.
var copyForward = []struct{ from, to string }{
	{kb.SlotPlatform, SlotRequiredPlatform},
	{kb.SlotGenre, SlotRequiredGenre},
	{kb.SlotRequiresOnline, SlotRequiresOnline},
	{kb.SlotSessionLength, SlotRecommendedSession},
	{kb.SlotComplexity, SlotComplexity},
}

// Engine runs frame-based inference over one knowledge base. An Engine owns
// its working memory and is not safe for concurrent use; the knowledge base
// may be shared between engines.
type Engine struct {
	kb      *kb.KnowledgeBase
	wm      *memory.WorkingMemory
	profile Profile
	matches []*types.Frame
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine over knowledge with empty working memory.
func New(knowledge *kb.KnowledgeBase, opts ...Option) *Engine {
	e := &Engine{kb: knowledge, wm: memory.New()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// KnowledgeBase returns the knowledge base the engine reads.
func (e *Engine) KnowledgeBase() *kb.KnowledgeBase { return e.kb }

// WorkingMemory returns the engine's working memory.
func (e *Engine) WorkingMemory() *memory.WorkingMemory { return e.wm }

// SetUserPreferences stores the answers for the next run. Unknown keys are
// dropped and missing keys read as "нет".
func (e *Engine) SetUserPreferences(prefs map[string]string) {
	e.wm.SetPreferences(prefs)
}

// Profile returns the profile derived by the last run.
func (e *Engine) Profile() Profile { return e.profile }

// Run scores every catalog frame and returns the qualifying proto-frames,
// best first. Ties keep catalog order. Cancellation is checked between
// catalog frames. Each run starts from a fresh working memory holding only
// the current preferences.
func (e *Engine) Run(ctx context.Context) ([]*types.Frame, error) {
	prefs := e.wm.Preferences()
	e.wm.Clear()
	e.wm.SetPreferences(prefs)
	e.profile = NewProfile(prefs)
	e.matches = nil

	var matches []*types.Frame
	for _, game := range e.kb.Catalog() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		proto := game.CreateInstance()
		e.wm.AddProtoFrame(proto)
		e.wm.AddExoFrame(game)
		if err := fill(proto, game); err != nil {
			return nil, err
		}

		compatibility := Score(proto, e.profile)
		if compatibility <= Threshold {
			e.logger.Debug("frame rejected",
				zap.String("game", game.Name()),
				zap.Float64("compatibility", compatibility))
			continue
		}
		if err := proto.SetSlotValue(SlotCompatibility, compatibility); err != nil {
			return nil, fmt.Errorf("store compatibility for %s: %w", game.Name(), err)
		}
		matches = append(matches, proto)

		platform, _ := textSlot(proto, SlotRequiredPlatform)
		genre, _ := textSlot(proto, SlotRequiredGenre)
		e.wm.AddTrace(types.ActionFrameMatch, proto.Name(), map[string]any{
			"compatibility":  compatibility,
			"platform_match": PlatformMatches(platform, e.profile.Platform),
			"genre_match":    GenreMatches(genre, e.profile.Genres),
		})
		e.logger.Debug("frame matched",
			zap.String("game", game.Name()),
			zap.Float64("compatibility", compatibility))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return Compatibility(matches[i]) > Compatibility(matches[j])
	})
	e.matches = matches

	e.logger.Info("inference complete",
		zap.String("platform", e.profile.Platform),
		zap.Strings("genres", e.profile.Genres),
		zap.Int("catalog", len(e.kb.Catalog())),
		zap.Int("matches", len(matches)))
	return slices.Clone(matches), nil
}

// fill copies the game's requirements onto its proto-frame. Requirements the
// game does not declare are left out.
func fill(proto, game *types.Frame) error {
	for _, c := range copyForward {
		v, ok := game.GetSlotValue(c.from)
		if !ok {
			continue
		}
		if s, isText := v.AsText(); isText && s == "" {
			continue
		}
		if err := proto.SetSlotValue(c.to, v); err != nil {
			return fmt.Errorf("copy %s of %s: %w", c.from, game.Name(), err)
		}
	}
	return nil
}

// Matches returns the ranked proto-frames of the last run.
func (e *Engine) Matches() []*types.Frame { return slices.Clone(e.matches) }

// Match returns the proto-frame created from the named game, if it
// qualified in the last run.
func (e *Engine) Match(game string) (*types.Frame, bool) {
	for _, proto := range e.matches {
		if GameName(proto) == game {
			return proto, true
		}
	}
	return nil, false
}

// BestRecommendation returns the name of the top-ranked game.
func (e *Engine) BestRecommendation() (string, bool) {
	if len(e.matches) == 0 {
		return "", false
	}
	name := GameName(e.matches[0])
	return name, name != ""
}

// Recommendations returns up to limit ranked recommendations. A limit <= 0
// returns all of them.
func (e *Engine) Recommendations(limit int) []types.Recommendation {
	ranked := e.matches
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]types.Recommendation, 0, len(ranked))
	for _, proto := range ranked {
		platform, _ := textSlot(proto, SlotRequiredPlatform)
		genre, _ := textSlot(proto, SlotRequiredGenre)
		session, _ := textSlot(proto, SlotRecommendedSession)
		out = append(out, types.Recommendation{
			Game:          GameName(proto),
			Compatibility: Compatibility(proto),
			Platform:      platform,
			Genre:         genre,
			SessionLength: session,
		})
	}
	return out
}

// Reset clears working memory and the last run's results.
func (e *Engine) Reset() {
	e.wm.Clear()
	e.matches = nil
	e.profile = Profile{}
}

// Compatibility returns the score stored on a proto-frame, or 0.
func Compatibility(proto *types.Frame) float64 {
	v, ok := proto.GetSlotValue(SlotCompatibility)
	if !ok {
		return 0
	}
	n, _ := v.AsNumber()
	return n
}

// GameName returns the name of the catalog frame a proto-frame came from.
func GameName(proto *types.Frame) string {
	parent, ok := proto.AKO()
	if !ok {
		return ""
	}
	return parent.Name()
}
