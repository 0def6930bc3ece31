// Package bionic rewrites chapter markup so that selected letters of every
// word are emphasized ("bionic reading").
package bionic

import (
	"strings"
	"sync"
	"unicode"

	"github.com/yuanying/bionicbook/internal/markup"
)

// highlightClass marks the elements inserted around highlighted letters.
const highlightClass = "bionic"

// skippedTags holds elements whose content is copied without being visited.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"svg":      true,
	"math":     true,
}

// SkipTag reports whether the content of an element is left untouched.
func SkipTag(tag string) bool {
	return skippedTags[strings.ToLower(tag)]
}

// Engine applies the transform with a configuration that may be changed
// between calls.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
}

// NewEngine creates an Engine with cfg.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.Normalize()}
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetMode changes the highlight mode.
func (e *Engine) SetMode(m Mode) {
	e.update(func(c *Config) { c.Mode = m })
}

// SetIntensity changes the intensity; it is clamped to [0,1].
func (e *Engine) SetIntensity(v float64) {
	e.update(func(c *Config) { c.Intensity = v })
}

// SetColor changes the highlight color.
func (e *Engine) SetColor(color string) {
	e.update(func(c *Config) { c.Color = color })
}

func (e *Engine) update(fn func(*Config)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.cfg)
	e.cfg = e.cfg.Normalize()
}

// Apply transforms s with the current configuration.
func (e *Engine) Apply(s string) string {
	return Apply(s, e.Config())
}

// Apply highlights the words of markup s according to cfg. Mode off, or
// an unrecognized mode, returns s unchanged.
//
// The result is deterministic for a given input, but Apply is not
// idempotent: applying it to its own output highlights again.
func Apply(s string, cfg Config) string {
	cfg = cfg.Normalize()
	strategy := StrategyFor(cfg.Mode)
	if strategy == nil || strings.TrimSpace(s) == "" {
		return s
	}

	root, err := markup.Parse(s)
	if err != nil {
		return s
	}
	t := transformer{cfg: cfg, strategy: strategy}
	t.visit(markup.Body(root))
	return markup.Render(root)
}

type transformer struct {
	cfg      Config
	strategy Strategy
}

func (t *transformer) visit(n *markup.Node) {
	var children []*markup.Node
	for _, c := range n.Children {
		switch c.Kind {
		case markup.TextNode:
			children = append(children, t.text(c.Text)...)
		case markup.ElementNode:
			if !SkipTag(c.Tag) {
				t.visit(c)
			}
			children = append(children, c)
		default:
			children = append(children, c)
		}
	}
	n.Children = children
}

// text splits s into whitespace runs, kept verbatim, and words, which are
// passed through the strategy.
func (t *transformer) text(s string) []*markup.Node {
	var (
		out   []*markup.Node
		plain strings.Builder
	)
	flush := func() {
		if plain.Len() > 0 {
			out = append(out, markup.Text(plain.String()))
			plain.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i
		if unicode.IsSpace(runes[i]) {
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			plain.WriteString(string(runes[i:j]))
			i = j
			continue
		}

		for j < len(runes) && !unicode.IsSpace(runes[j]) {
			j++
		}
		word := runes[i:j]
		mask := t.strategy(word, t.cfg.Intensity)
		for k, r := range word {
			if !mask[k] {
				plain.WriteRune(r)
				continue
			}
			flush()
			out = append(out, t.highlight(r))
		}
		i = j
	}
	flush()
	return out
}

func (t *transformer) highlight(r rune) *markup.Node {
	attrs := []markup.Attr{{Key: "class", Val: highlightClass}}
	if !strings.EqualFold(t.cfg.Color, DefaultColor) {
		attrs = append(attrs, markup.Attr{Key: "style", Val: "color: " + t.cfg.Color})
	}
	return markup.Element("b", attrs, markup.Text(string(r)))
}
