package labeler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/focuspulse/focuspulse/internal/models"
)

// Store persists labeler answers.
type Store interface {
	GetLabel(key string) (*models.LabelCacheEntry, error)
	PutLabel(entry *models.LabelCacheEntry) error
}

// Cached answers from a Store before asking the wrapped labeler. Store
// failures are logged and otherwise ignored.
type Cached struct {
	inner  Labeler
	store  Store
	name   string
	logger *slog.Logger
}

// NewCached wraps inner. name scopes the cache so different providers do
// not share answers.
func NewCached(inner Labeler, store Store, name string, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, store: store, name: name, logger: logger}
}

// CacheKey is the stable key for text under the given provider name.
func CacheKey(name, text string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name+"|"+text)).String()
}

func (c *Cached) Label(ctx context.Context, text string) (Result, error) {
	key := CacheKey(c.name, text)

	if c.store != nil {
		entry, err := c.store.GetLabel(key)
		if err != nil {
			c.logger.Warn("label cache read failed", "error", err)
		} else if entry != nil {
			return fromEntry(entry), nil
		}
	}

	r, err := c.inner.Label(ctx, text)
	if err != nil {
		return Result{}, err
	}

	if c.store != nil {
		entry := &models.LabelCacheEntry{
			Key:        key,
			Text:       text,
			Category:   r.Category,
			Confidence: r.Confidence,
			Tags:       strings.Join(r.Tags, ","),
			Rationale:  r.Rationale,
			Model:      r.Model,
		}
		if err := c.store.PutLabel(entry); err != nil {
			c.logger.Warn("label cache write failed", "error", err)
		}
	}

	r.Cached = false
	return r, nil
}

func fromEntry(e *models.LabelCacheEntry) Result {
	tags := []string{}
	if e.Tags != "" {
		tags = strings.Split(e.Tags, ",")
	}
	return Result{
		Category:   e.Category,
		Confidence: e.Confidence,
		Tags:       tags,
		Rationale:  e.Rationale,
		Model:      e.Model,
		Cached:     true,
	}
}
