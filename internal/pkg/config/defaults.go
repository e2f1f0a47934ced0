package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 3000
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Upstream defaults
	DefaultUpstreamBaseURL = "https://pump.fun"
	DefaultUpstreamAPIURL  = "https://frontend-api-v3.pump.fun"
	DefaultUpstreamChatURL = "https://livechat.pump.fun"
	// DefaultUpstreamTradesURL — публичная WebSocket-лента сделок.
	DefaultUpstreamTradesURL = "wss://pumpportal.fun/api/data"
	DefaultViewerUsername    = "viewer"
	DefaultRequestTimeout    = 10 * time.Second
	UpstreamUserAgent        = "MeVoltOBS-Proxy/1.0"

	// Chat defaults
	DefaultChatMax              = 50
	MaxChatMessagesHTTP         = 200
	MaxChatMessagesSniff        = 500
	DefaultSocketTimeout        = 8 * time.Second
	DefaultProfileConcurrency   = 4
	MaxProfileConcurrency       = 10
	DefaultProfileCacheTTL      = 6 * time.Hour
	DefaultCacheCleanupInterval = 1 * time.Hour

	// Browser defaults
	DefaultCDPPort     = 9222
	DefaultEvalTimeout = 8 * time.Second
	DefaultPollMs      = 500
	DefaultPollCount   = 10

	// SSE defaults
	DefaultSSEPingInterval = 15 * time.Second
	DefaultCoinInterval    = 5 * time.Second

	// Cache defaults
	DefaultCacheBackend = "memory"
	// DefaultPayoutLedgerPath — журнал поручений на выплату.
	DefaultPayoutLedgerPath = "payouts.jsonl"
	DefaultRedisAddr        = "localhost:6379"

	// Logging defaults
	DefaultLogLevel = "info"
)
