package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
)

const cacheDateLayout = "2006-01-02"

// CachedProvider serves provider responses from the cache while they are
// fresh. Failed calls are never cached and cache faults fall through to the
// wrapped provider.
type CachedProvider struct {
	next   interfaces.MarketDataProvider
	cache  interfaces.CacheStorage
	ttl    time.Duration
	logger arbor.ILogger
}

var _ interfaces.MarketDataProvider = (*CachedProvider)(nil)

func NewCachedProvider(next interfaces.MarketDataProvider, cache interfaces.CacheStorage, ttl time.Duration, logger arbor.ILogger) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Name() string {
	return p.next.Name()
}

func (p *CachedProvider) key(parts ...string) string {
	return p.next.Name() + ":" + strings.Join(parts, ":")
}

// lookup decodes a cached value into dest and reports whether it was a hit
func (p *CachedProvider) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := p.cache.Get(ctx, key, dest)
	if err == nil {
		p.logger.Debug().Str("key", key).Msg("Provider cache hit")
		return true
	}
	if !errors.Is(err, interfaces.ErrKeyNotFound) {
		p.logger.Warn().Err(err).Str("key", key).Msg("Provider cache read failed")
	}
	return false
}

func (p *CachedProvider) store(ctx context.Context, key string, value interface{}) {
	if err := p.cache.Set(ctx, key, value, p.ttl); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Provider cache write failed")
	}
}

func (p *CachedProvider) GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	key := p.key("profile", strings.ToUpper(ticker))

	var cached models.CompanyProfile
	if p.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	profile, err := p.next.GetProfile(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, profile)
	return profile, nil
}

func (p *CachedProvider) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	key := p.key("eod", strings.ToUpper(ticker), from.Format(cacheDateLayout), to.Format(cacheDateLayout))

	var cached []models.PriceBar
	if p.lookup(ctx, key, &cached) {
		return cached, nil
	}

	bars, err := p.next.GetPriceHistory(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, bars)
	return bars, nil
}

func (p *CachedProvider) GetQuarterlyStatements(ctx context.Context, ticker string) (*models.QuarterlyStatements, error) {
	key := p.key("statements", strings.ToUpper(ticker))

	var cached models.QuarterlyStatements
	if p.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	stmts, err := p.next.GetQuarterlyStatements(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, stmts)
	return stmts, nil
}

// Purge drops expired cache entries
func (p *CachedProvider) Purge(ctx context.Context) (int, error) {
	n, err := p.cache.Purge(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge provider cache: %w", err)
	}
	if n > 0 {
		p.logger.Debug().Int("entries", n).Msg("Purged expired provider cache entries")
	}
	return n, nil
}
