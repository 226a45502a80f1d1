// Package categorizer assigns focus, distraction or neutral to activity
// labels from two configured sets, optionally consulting a labeler for
// labels the sets do not cover.
package categorizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/focuspulse/focuspulse/internal/labeler"
	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/pkg/probe"
)

// Labeler modes.
const (
	ModeFill     = "fill"
	ModeOverride = "override"
)

// maxLabelerText bounds the text sent to the labeler.
const maxLabelerText = 120

// Rules are the static membership sets.
type Rules struct {
	Focus       []string `json:"focus"`
	Distraction []string `json:"distraction"`
}

// Options tune labeler use.
type Options struct {
	Mode    string        // ModeFill (default) or ModeOverride
	Timeout time.Duration // per labeler call; default 3s
	Logger  *slog.Logger
}

// Source tells which step decided a category.
type Source string

const (
	SourceExact   Source = "exact"
	SourceSegment Source = "segment"
	SourceWord    Source = "word"
	SourceLabeler Source = "labeler"
	SourceDefault Source = "default"
)

// Decision is a category with its provenance.
type Decision struct {
	Category models.Category
	Source   Source
	Term     string          // matching set member for exact/segment/word
	Result   *labeler.Result // labeler answer, when consulted successfully
}

type Categorizer struct {
	mu          sync.RWMutex
	focus       []string
	distraction []string

	labeler labeler.Labeler
	opts    Options
}

func New(rules Rules, l labeler.Labeler, opts Options) *Categorizer {
	if l == nil {
		l = labeler.Noop{}
	}
	if opts.Mode == "" {
		opts.Mode = ModeFill
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Categorizer{labeler: l, opts: opts}
	c.SetRules(rules)
	return c
}

// SetRules replaces both sets.
func (c *Categorizer) SetRules(rules Rules) {
	focus := dedupe(rules.Focus)
	distraction := dedupe(rules.Distraction)

	c.mu.Lock()
	c.focus = focus
	c.distraction = distraction
	c.mu.Unlock()
}

// Rules returns a copy of the current sets.
func (c *Categorizer) Rules() Rules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Rules{
		Focus:       append([]string(nil), c.focus...),
		Distraction: append([]string(nil), c.distraction...),
	}
}

// Add extends the focus or distraction set. An app moves out of the other
// set if it was there.
func (c *Categorizer) Add(cat models.Category, app string) error {
	app = strings.TrimSpace(app)
	if app == "" {
		return fmt.Errorf("app name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch cat {
	case models.CategoryFocus:
		c.distraction = remove(c.distraction, app)
		c.focus = dedupe(append(c.focus, app))
	case models.CategoryDistraction:
		c.focus = remove(c.focus, app)
		c.distraction = dedupe(append(c.distraction, app))
	default:
		return fmt.Errorf("can only add to focus or distraction, got %q", cat)
	}
	return nil
}

// Static classifies label from the sets alone. The whole label is tried
// first, then each title segment ("App: a - b | c"), then the words of the
// application name. Words inside a title never match, so "Xcode: x.swift"
// stays with Xcode.
func (c *Categorizer) Static(label string) (Decision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	label = strings.TrimSpace(label)
	if d, ok := matchExact(label, c.focus, c.distraction, SourceExact); ok {
		return d, true
	}

	segments := Segments(label)
	for _, seg := range segments {
		if term, ok := findFold(c.distraction, seg); ok {
			return Decision{Category: models.CategoryDistraction, Source: SourceSegment, Term: term}, true
		}
	}
	for _, seg := range segments {
		if term, ok := findFold(c.focus, seg); ok {
			return Decision{Category: models.CategoryFocus, Source: SourceSegment, Term: term}, true
		}
	}

	base := strings.ToLower(BaseApp(label))
	for _, term := range c.distraction {
		if containsWord(base, strings.ToLower(term)) {
			return Decision{Category: models.CategoryDistraction, Source: SourceWord, Term: term}, true
		}
	}
	for _, term := range c.focus {
		if containsWord(base, strings.ToLower(term)) {
			return Decision{Category: models.CategoryFocus, Source: SourceWord, Term: term}, true
		}
	}
	return Decision{}, false
}

func matchExact(label string, focus, distraction []string, src Source) (Decision, bool) {
	if term, ok := findFold(focus, label); ok {
		return Decision{Category: models.CategoryFocus, Source: src, Term: term}, true
	}
	if term, ok := findFold(distraction, label); ok {
		return Decision{Category: models.CategoryDistraction, Source: src, Term: term}, true
	}
	return Decision{}, false
}

func findFold(list []string, s string) (string, bool) {
	for _, term := range list {
		if strings.EqualFold(term, s) {
			return term, true
		}
	}
	return "", false
}

// Explain classifies label and reports which step decided.
func (c *Categorizer) Explain(ctx context.Context, label string) Decision {
	if c.opts.Mode == ModeOverride {
		if d, ok := c.ask(ctx, label); ok {
			return d
		}
	}
	if d, ok := c.Static(label); ok {
		return d
	}
	if c.opts.Mode != ModeOverride {
		if d, ok := c.ask(ctx, label); ok {
			return d
		}
	}
	return Decision{Category: models.CategoryNeutral, Source: SourceDefault}
}

// Categorize classifies label.
func (c *Categorizer) Categorize(ctx context.Context, label string) models.Category {
	return c.Explain(ctx, label).Category
}

// HasLabeler reports whether a labeler other than the no-op is configured.
func (c *Categorizer) HasLabeler() bool {
	return !labeler.IsNoop(c.labeler)
}

// ask consults the labeler. A neutral answer is not a decision.
func (c *Categorizer) ask(ctx context.Context, label string) (Decision, bool) {
	if labeler.IsNoop(c.labeler) || label == probe.Unknown {
		return Decision{}, false
	}

	text := Sanitize(DisplayTitle(label, BaseApp(label)), maxLabelerText)
	if text == "" {
		return Decision{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	r, err := c.labeler.Label(ctx, text)
	if err != nil {
		c.opts.Logger.Debug("labeler failed, using static sets", "label", label, "error", err)
		return Decision{}, false
	}
	if r.Category != models.CategoryFocus && r.Category != models.CategoryDistraction {
		return Decision{}, false
	}
	return Decision{Category: r.Category, Source: SourceLabeler, Result: &r}, true
}

// Session returns a classifier that remembers its answers, so each distinct
// label is decided once per analysis pass.
func (c *Categorizer) Session(ctx context.Context) *Classifier {
	return &Classifier{c: c, ctx: ctx, memo: make(map[string]models.Category)}
}

// Classifier is a memoizing view of a Categorizer. Not safe for concurrent use.
type Classifier struct {
	c    *Categorizer
	ctx  context.Context
	memo map[string]models.Category
}

func (s *Classifier) Categorize(label string) models.Category {
	if cat, ok := s.memo[label]; ok {
		return cat
	}
	cat := s.c.Categorize(s.ctx, label)
	s.memo[label] = cat
	return cat
}

// containsWord reports whether term occurs in s bounded by non-alphanumeric
// characters or the ends of s. Both are lower case.
func containsWord(s, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(term); {
		i := strings.Index(s[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func remove(list []string, app string) []string {
	out := list[:0:0]
	for _, item := range list {
		if !strings.EqualFold(item, app) {
			out = append(out, item)
		}
	}
	return out
}
