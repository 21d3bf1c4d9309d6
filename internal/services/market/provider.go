// Package market builds the configured market-data provider and wraps it
// with the response cache.
package market

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/eodhd"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/yahoo"
)

// NewProvider creates the provider named in config. When cache is non-nil
// responses are kept for the configured TTL.
func NewProvider(config *common.Config, cache interfaces.CacheStorage, logger arbor.ILogger) (interfaces.MarketDataProvider, error) {
	pc := config.Provider
	timeout := common.Duration(pc.Timeout, eodhd.DefaultTimeout)

	var provider interfaces.MarketDataProvider
	switch pc.Name {
	case eodhd.ProviderName, "":
		if pc.APIKey == "" {
			return nil, fmt.Errorf("eodhd provider requires an api key")
		}
		client := eodhd.NewClient(pc.APIKey,
			eodhd.WithBaseURL(pc.BaseURL),
			eodhd.WithTimeout(timeout),
			eodhd.WithRateLimit(pc.RateLimit),
			eodhd.WithLogger(logger),
		)
		provider = eodhd.NewProvider(client, pc.Exchange, logger)
	case yahoo.ProviderName:
		provider = yahoo.NewProvider(pc.Exchange, timeout, logger)
	default:
		return nil, fmt.Errorf("unknown provider %q (expected eodhd or yahoo)", pc.Name)
	}

	if cache == nil {
		logger.Info().Str("provider", provider.Name()).Msg("Market data provider ready (no cache)")
		return provider, nil
	}

	ttl := common.Duration(config.Storage.Cache.TTL, 12*time.Hour)
	logger.Info().
		Str("provider", provider.Name()).
		Str("cache_ttl", ttl.String()).
		Msg("Market data provider ready")
	return NewCachedProvider(provider, cache, ttl, logger), nil
}
