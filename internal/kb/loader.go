// This file implements knowledge file loading. Loading runs in two passes:
// the first creates an empty frame per declared name so references can point
// forward, the second links parents and fills in slots.
package kb

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/frames/pkg/types"
)

//go:embed knowledge/games.yaml
var defaultKnowledge []byte

// RefPrefix marks a slot value that names another frame.
const RefPrefix = "!ref:"

// Format identifies a knowledge file encoding.
type Format string

// Supported knowledge file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Load errors.
var (
	ErrKnowledgeNotFound  = errors.New("knowledge file not found")
	ErrMalformedKnowledge = errors.New("malformed knowledge file")
)

// LoadError reports why a knowledge file could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load knowledge %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// knowledgeFile mirrors the top level of a knowledge file.
type knowledgeFile struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Frames      []frameDef `json:"frames" yaml:"frames" validate:"required,dive"`
}

// frameDef is one frame definition.
type frameDef struct {
	Name  string    `json:"name" yaml:"name" validate:"required"`
	AKO   string    `json:"ako" yaml:"ako"`
	Slots []slotDef `json:"slots" yaml:"slots" validate:"dive"`
}

// slotDef is one slot definition. DataType defaults to TEXT and
// Inheritance to O.
type slotDef struct {
	Name        string            `json:"name" yaml:"name" validate:"required"`
	DataType    string            `json:"data_type" yaml:"data_type" validate:"omitempty,oneof=INTEGER TEXT BOOLEAN FRAME LIST"`
	Inheritance string            `json:"inheritance" yaml:"inheritance" validate:"omitempty,oneof=U S R O"`
	Value       any               `json:"value" yaml:"value"`
	Range       []any             `json:"range" yaml:"range"`
	Triggers    map[string]string `json:"triggers" yaml:"triggers"`
}

var validate = validator.New()

// Load reads the knowledge file at path. The format follows the extension:
// .yaml and .yml are YAML, anything else is JSON.
func Load(path string, opts ...Option) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: ErrKnowledgeNotFound}
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	kb, err := LoadBytes(data, FormatForPath(path), opts...)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return kb, nil
}

// LoadDefault loads the embedded video game knowledge base.
func LoadDefault(opts ...Option) (*KnowledgeBase, error) {
	kb, err := LoadBytes(defaultKnowledge, FormatYAML, opts...)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = "embedded:games.yaml"
		}
	}
	return kb, err
}

// DefaultKnowledge returns a copy of the embedded knowledge file.
func DefaultKnowledge() []byte {
	return bytes.Clone(defaultKnowledge)
}

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// LoadBytes builds a knowledge base from an encoded knowledge file. On any
// error no knowledge base is returned.
func LoadBytes(data []byte, format Format, opts ...Option) (*KnowledgeBase, error) {
	o := options{catalog: DefaultCatalog}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	var file knowledgeFile
	if err := decode(data, format, &file); err != nil {
		return nil, malformed("%v", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, malformed("%v", err)
	}

	registry := NewBuiltinRegistry(o.logger)
	for _, p := range o.extra {
		registry.Register(p)
	}

	kb := &KnowledgeBase{
		name:        file.Name,
		description: file.Description,
		frames:      make(map[string]*types.Frame, len(file.Frames)),
		catalog:     append([]string(nil), o.catalog...),
		registry:    registry,
		logger:      o.logger,
	}

	// Pass one: shells for every declared name.
	for _, fd := range file.Frames {
		if _, dup := kb.frames[fd.Name]; dup {
			return nil, malformed("duplicate frame %q", fd.Name)
		}
		kb.frames[fd.Name] = types.NewFrame(fd.Name)
		kb.order = append(kb.order, fd.Name)
	}

	// Pass two: parents and slots.
	for _, fd := range file.Frames {
		frame := kb.frames[fd.Name]
		if fd.AKO != "" {
			parent, ok := kb.frames[fd.AKO]
			if !ok {
				return nil, malformed("frame %q: unknown parent %q", fd.Name, fd.AKO)
			}
			frame.SetAKO(parent)
		}
		for _, sd := range fd.Slots {
			slot, err := kb.buildSlot(fd.Name, sd)
			if err != nil {
				return nil, err
			}
			frame.AddSlot(slot)
		}
	}

	o.logger.Debug("knowledge base loaded",
		zap.String("name", kb.name),
		zap.Int("frames", len(kb.order)),
		zap.Int("catalog", len(kb.Catalog())))
	return kb, nil
}

// buildSlot turns a slot definition into a validated slot.
func (kb *KnowledgeBase) buildSlot(frameName string, sd slotDef) (*types.Slot, error) {
	dt := types.DataTypeText
	if sd.DataType != "" {
		dt = types.DataType(sd.DataType)
	}
	inh := types.InheritOverride
	if sd.Inheritance != "" {
		inh = types.Inheritance(sd.Inheritance)
	}

	value, err := kb.resolve(sd.Value)
	if err != nil {
		return nil, malformed("frame %q slot %q: %v", frameName, sd.Name, err)
	}
	var rng []types.Value
	for _, raw := range sd.Range {
		v, err := kb.resolve(raw)
		if err != nil {
			return nil, malformed("frame %q slot %q range: %v", frameName, sd.Name, err)
		}
		rng = append(rng, v)
	}

	if sd.Name == types.AKOSlot {
		if parent, ok := value.AsFrame(); dt != types.DataTypeFrame || !ok || parent == nil {
			return nil, malformed("frame %q: declared AKO slot must be a FRAME referencing a frame", frameName)
		}
	}

	slot := types.NewSlot(sd.Name, dt, inh, value, rng, kb.parseTriggers(frameName, sd))
	if err := slot.Validate(value); err != nil {
		return nil, malformed("frame %q: %v", frameName, err)
	}
	return slot, nil
}

// parseTriggers binds trigger specs to registered procedures. Unknown kinds,
// unknown procedure names and procedures of the wrong kind are skipped.
func (kb *KnowledgeBase) parseTriggers(frameName string, sd slotDef) types.Triggers {
	var trg types.Triggers
	for kindName, procName := range sd.Triggers {
		kind, ok := types.ParseTriggerKind(kindName)
		if !ok || !kb.registry.bind(&trg, kind, procName) {
			kb.logger.Debug("trigger skipped",
				zap.String("frame", frameName),
				zap.String("slot", sd.Name),
				zap.String("kind", kindName),
				zap.String("procedure", procName))
		}
	}
	return trg
}

// resolve converts a decoded value into a slot value, replacing "!ref:"
// markers with the frame they name.
func (kb *KnowledgeBase) resolve(raw any) (types.Value, error) {
	switch x := raw.(type) {
	case string:
		if name, ok := strings.CutPrefix(x, RefPrefix); ok {
			f, ok := kb.frames[name]
			if !ok {
				return types.Value{}, fmt.Errorf("reference to unknown frame %q", name)
			}
			return types.Ref(f), nil
		}
		return types.Text(x), nil
	case []any:
		items := make([]types.Value, 0, len(x))
		for _, item := range x {
			v, err := kb.resolve(item)
			if err != nil {
				return types.Value{}, err
			}
			items = append(items, v)
		}
		return types.List(items...), nil
	case map[string]any:
		return types.Value{}, errors.New("mapping values are not supported")
	}
	return types.Classify(raw), nil
}

// decode unmarshals data in the given format into v.
func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func malformed(format string, args ...any) error {
	return &LoadError{Err: fmt.Errorf("%w: %s", ErrMalformedKnowledge, fmt.Sprintf(format, args...))}
}
