package processor

import (
	"log/slog"
	"regexp"
	"sync"

	"github.com/Aman-CERP/indexprep/internal/charclass"
	"github.com/Aman-CERP/indexprep/internal/item"
)

// DefaultIgnorable is the ignorable-character pattern used when none is
// configured.
const DefaultIgnorable = `['¿¡!?,.:;]`

// DefaultCharacterSets returns the character classes stripped by default:
// every punctuation category.
func DefaultCharacterSets() []string {
	return []string{"Pc", "Pd", "Pe", "Pf", "Pi", "Po", "Ps"}
}

// NormalizerConfig configures the ignore_character processor.
type NormalizerConfig struct {
	// Ignorable is a regular expression of characters to remove. Runs of
	// consecutive matches are removed in one step.
	Ignorable string `yaml:"ignorable" json:"ignorable"`

	// CharacterSets lists Unicode general category codes to remove.
	// Unknown codes are ignored.
	CharacterSets []string `yaml:"character_sets" json:"character_sets"`

	// Fields restricts processing to these field ids. Empty means every
	// string or text field.
	Fields []string `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// DefaultNormalizerConfig returns the stock ignore_character settings.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Ignorable:     DefaultIgnorable,
		CharacterSets: DefaultCharacterSets(),
	}
}

// ValidateNormalizerConfig checks that the ignorable pattern compiles the
// same way Normalize compiles it.
func ValidateNormalizerConfig(cfg NormalizerConfig) ValidationErrors {
	var errs ValidationErrors
	if cfg.Ignorable != "" {
		if _, err := charclass.CompileRun(cfg.Ignorable); err != nil {
			errs.add(IDIgnoreCharacter, "ignorable", "the entered text is not a valid regular expression: %v", err)
		}
	}
	return errs
}

// compiledNormalizer is the ready-to-run form of a NormalizerConfig.
type compiledNormalizer struct {
	ignorable *regexp.Regexp
	classes   []*regexp.Regexp
}

// Normalizer strips ignorable characters and character classes from text.
type Normalizer struct {
	weight int

	mu       sync.Mutex
	cfg      NormalizerConfig
	fields   map[string]struct{}
	compiled *compiledNormalizer
}

// NewNormalizer creates a normalizer. The configuration is compiled on
// first use.
func NewNormalizer(cfg NormalizerConfig, weight int) *Normalizer {
	n := &Normalizer{weight: weight}
	n.SetConfig(cfg)
	return n
}

// ID implements Processor.
func (n *Normalizer) ID() string { return IDIgnoreCharacter }

// Kind implements Processor.
func (n *Normalizer) Kind() Kind { return KindTransform }

// Weight implements Processor.
func (n *Normalizer) Weight() int { return n.weight }

// Config returns the current configuration.
func (n *Normalizer) Config() NormalizerConfig {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cfg
}

// SetConfig replaces the configuration and drops the compiled form.
func (n *Normalizer) SetConfig(cfg NormalizerConfig) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.cfg = cfg
	n.compiled = nil
	n.fields = nil
	if len(cfg.Fields) > 0 {
		n.fields = make(map[string]struct{}, len(cfg.Fields))
		for _, f := range cfg.Fields {
			n.fields[f] = struct{}{}
		}
	}
}

func (n *Normalizer) compile() *compiledNormalizer {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.compiled != nil {
		return n.compiled
	}

	c := &compiledNormalizer{}
	if n.cfg.Ignorable != "" {
		re, err := charclass.CompileRun(n.cfg.Ignorable)
		if err != nil {
			// Validation rejects this before a normalizer is built.
			slog.Debug("ignorable_pattern_invalid",
				slog.String("pattern", n.cfg.Ignorable),
				slog.String("error", err.Error()))
		} else {
			c.ignorable = re
		}
	}

	for _, code := range n.cfg.CharacterSets {
		if !charclass.IsKnown(code) {
			slog.Debug("character_class_unknown", slog.String("code", code))
		}
	}
	for _, code := range charclass.Ordered(n.cfg.CharacterSets) {
		if re, ok := charclass.Lookup(code); ok {
			c.classes = append(c.classes, re)
		}
	}

	n.compiled = c
	return c
}

// Normalize removes every run of ignorable characters and then every run
// of each enabled class, in canonical class order.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	c := n.compile()
	if c.ignorable != nil {
		text = c.ignorable.ReplaceAllString(text, "")
	}
	for _, re := range c.classes {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// NormalizeQuery applies Normalize to each search key.
func (n *Normalizer) NormalizeQuery(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = n.Normalize(k)
	}
	return out
}

// TransformItem normalizes the string values of the processed fields.
// Values of other Go types are left unchanged.
func (n *Normalizer) TransformItem(it *item.Item) {
	for id, f := range it.Fields {
		if f == nil || !n.processes(id, f) {
			continue
		}
		for i, v := range f.Values {
			if s, ok := v.(string); ok {
				f.Values[i] = n.Normalize(s)
			}
		}
	}
}

func (n *Normalizer) processes(id string, f *item.Field) bool {
	n.mu.Lock()
	fields := n.fields
	n.mu.Unlock()

	if fields == nil {
		return f.Type.IsText()
	}
	_, ok := fields[id]
	return ok
}
