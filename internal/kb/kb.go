// Package kb loads frame knowledge bases from declarative JSON or YAML
// files and exposes the resulting frames, the catalog of matchable items
// and the procedures that slot triggers are bound to.
package kb

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/frames/pkg/types"
)

// Slot names the inference engine and builtin procedures read from
// catalog frames.
const (
	SlotPlatform       = "platform"
	SlotGenre          = "genre"
	SlotRequiresOnline = "requires_online"
	SlotSessionLength  = "session_length"
	SlotComplexity     = "complexity"
	SlotReason         = "recommendation_reason"
)

// DefaultCatalog names the frames that are matchable games, in the order
// inference visits them. Frames not listed here are categories.
var DefaultCatalog = []string{
	"Counter-Strike", "Battlefield", "Halo", "God_of_War",
	"The_Witcher", "Skyrim", "Final_Fantasy", "Age_of_Empires",
	"Civilization", "XCOM", "Batman_Arkham", "Uncharted",
	"The_Legend_of_Zelda",
}

// KnowledgeBase is a loaded, read-only set of frames.
type KnowledgeBase struct {
	name        string
	description string
	frames      map[string]*types.Frame
	order       []string
	catalog     []string
	registry    *Registry
	logger      *zap.Logger
}

type options struct {
	logger  *zap.Logger
	catalog []string
	extra   []Procedure
}

// Option configures Load.
type Option func(*options)

// WithLogger sets the logger used while loading and by builtin procedures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCatalog replaces DefaultCatalog.
func WithCatalog(names ...string) Option {
	return func(o *options) { o.catalog = names }
}

// WithProcedure registers p next to the builtin procedures, replacing a
// builtin of the same name.
func WithProcedure(p Procedure) Option {
	return func(o *options) { o.extra = append(o.extra, p) }
}

// Name returns the knowledge base name declared in the file.
func (kb *KnowledgeBase) Name() string { return kb.name }

// Description returns the knowledge base description declared in the file.
func (kb *KnowledgeBase) Description() string { return kb.description }

// Frame returns the frame called name.
func (kb *KnowledgeBase) Frame(name string) (*types.Frame, bool) {
	f, ok := kb.frames[name]
	return f, ok
}

// Frames returns every frame in declaration order.
func (kb *KnowledgeBase) Frames() []*types.Frame {
	out := make([]*types.Frame, 0, len(kb.order))
	for _, name := range kb.order {
		out = append(out, kb.frames[name])
	}
	return out
}

// Catalog returns the catalog frames that exist in this knowledge base,
// in catalog order.
func (kb *KnowledgeBase) Catalog() []*types.Frame {
	out := make([]*types.Frame, 0, len(kb.catalog))
	for _, name := range kb.catalog {
		if f, ok := kb.frames[name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// IsCatalog reports whether name is a catalog item.
func (kb *KnowledgeBase) IsCatalog(name string) bool {
	for _, n := range kb.catalog {
		if n == name {
			_, ok := kb.frames[name]
			return ok
		}
	}
	return false
}

// Similar returns titles related to the named game, or nil.
func (kb *KnowledgeBase) Similar(name string) []string {
	return kb.registry.Similar(name)
}

// Registry returns the procedures owned by this knowledge base.
func (kb *KnowledgeBase) Registry() *Registry { return kb.registry }

// Logger returns the knowledge base logger.
func (kb *KnowledgeBase) Logger() *zap.Logger { return kb.logger }
