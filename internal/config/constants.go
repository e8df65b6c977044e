package config

import "time"

// Application constants
const (
	AppName   = "borsa"
	EnvPrefix = "BORSA"

	DefaultPort           = 8080
	DefaultRunTimeout     = 5 * time.Minute
	DefaultMaxUploadBytes = 256 << 20

	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Period fallbacks when folder names carry no year or month
	DefaultYear  = 2024
	DefaultMonth = 1

	// |control| at or below this is reported as balanced
	DefaultTolerance = 0.01

	DefaultCacheTTL     = 30 * time.Minute
	DefaultCacheCleanup = 10 * time.Minute
)
