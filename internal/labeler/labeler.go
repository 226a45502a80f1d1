// Package labeler provides the optional external collaborator that suggests
// a category for labels the static sets do not cover.
package labeler

import (
	"context"
	"errors"

	"github.com/focuspulse/focuspulse/internal/models"
)

// ErrUnavailable is returned when no labeler is configured or it cannot
// answer right now.
var ErrUnavailable = errors.New("labeler unavailable")

// Result is a labeler's answer for one text.
type Result struct {
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"` // 0-100
	Tags       []string        `json:"tags"`
	Rationale  string          `json:"rationale"`
	Model      string          `json:"model"`
	Cached     bool            `json:"cached"`
}

// Labeler suggests a category for sanitized text.
type Labeler interface {
	Label(ctx context.Context, text string) (Result, error)
}

// Noop is the labeler used when nothing is configured.
type Noop struct{}

func (Noop) Label(context.Context, string) (Result, error) {
	return Result{}, ErrUnavailable
}

// IsNoop reports whether l never answers.
func IsNoop(l Labeler) bool {
	switch l.(type) {
	case nil, Noop, *Noop:
		return true
	}
	return false
}
