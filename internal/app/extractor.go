package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"global_explorer/internal/domain"
)

// Extractor turns a free-form trip description into catalog filters using a
// text-completion backend.
type Extractor struct {
	completer domain.Completer
	cache     domain.Cache
	cacheTTL  time.Duration
}

// NewExtractor accepts a nil cache.
func NewExtractor(c domain.Completer, cache domain.Cache, ttl time.Duration) *Extractor {
	return &Extractor{completer: c, cache: cache, cacheTTL: ttl}
}

// Extract never returns a region, tag or season outside al. Only empty input,
// transport failures and unrecoverable output produce an error, always an
// *domain.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, userText string, al domain.AllowList) (domain.Criteria, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return domain.Criteria{}, &domain.ExtractionError{Kind: domain.ErrEmptyInput}
	}

	key := extractCacheKey(text, al)
	if e.cache != nil {
		var cached domain.Criteria
		if ok, _ := e.cache.Get(ctx, key, &cached); ok {
			return al.Sanitize(cached), nil
		}
	}

	raw, err := e.completer.Complete(ctx, buildConversation(text, al))
	if err != nil {
		return domain.Criteria{}, &domain.ExtractionError{Kind: domain.ErrTransport, Err: err}
	}

	obj, err := decodeLooseObject(raw)
	if err != nil {
		log.Warn().Err(err).Str("context", "Extract").Int("raw_len", len(raw)).Msg("unusable completion output")
		return domain.Criteria{}, &domain.ExtractionError{Kind: domain.ErrMalformedResponse, Err: err}
	}

	out := al.Sanitize(domain.Criteria{
		Regions: stringList(obj["regions"]),
		Tags:    stringList(obj["tags"]),
		Seasons: stringList(obj["seasons"]),
	})

	if e.cache != nil && e.cacheTTL > 0 {
		_ = e.cache.Set(ctx, key, out, int(e.cacheTTL.Seconds()))
	}
	return out, nil
}

// the allow-list is part of the key so a catalog change never serves stale filters
func extractCacheKey(text string, al domain.AllowList) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(text)))
	for _, part := range [][]string{al.Regions, al.Tags, al.Seasons} {
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(part, "\x1f")))
	}
	return "extract:" + hex.EncodeToString(h.Sum(nil))
}
