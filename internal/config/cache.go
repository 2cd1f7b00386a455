package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig drives the tour response cache. Caching is off when Enabled
// is false or Redis is unreachable. KeyStrategy "route" keys entries by path
// only; anything else ("route_query") adds the query string. Responses
// larger than MaxBodyBytes are served but not stored.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	RawMethods   string        `env:"CACHE_METHODS" envDefault:"GET"`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	Methods map[string]bool `env:"-"`
}

// LoadCacheConfig reads environment variables to build a CacheConfig. Defaults
// are used when variables are not set. All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	cfg, err := env.ParseAs[CacheConfig]()
	if err != nil {
		cfg = CacheConfig{Enabled: false}
	}
	cfg.Methods = parseMethods(cfg.RawMethods)
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
