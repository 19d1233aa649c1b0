package wsession

import "time"

const (
	defaultReconnectTimeout      = 60 * time.Second
	defaultErrorReconnectTimeout = 60 * time.Second
	defaultQueueCapacity         = 256
	defaultReceiveBufferSize     = 50 * 1024 * 1024 // 50 MiB, per SPEC_FULL §4.3
)

// SessionConfig collects every SPEC_FULL §6 configuration option. The
// teacher takes configuration as constructor arguments / factory options
// rather than a file-backed loader (see SPEC_FULL §2's ambient-stack
// rationale for not reaching for viper/toml here); we follow the same
// shape with a plain struct plus functional With* options.
type SessionConfig struct {
	// URL is the target endpoint. Reassigning it takes effect on the next
	// reconnect only (SPEC_FULL §9); the controller reads it fresh from
	// this struct on every start_client call rather than caching it.
	URL string
	// Name tags every log line and event for this session; optional.
	Name string

	IsReconnectionEnabled bool

	// ReconnectTimeout arms the no-message watchdog. Zero disables it.
	ReconnectTimeout time.Duration
	// ErrorReconnectTimeout is the wait after a failed connect attempt.
	// Zero disables automatic retry after a connect failure.
	ErrorReconnectTimeout time.Duration
	// LostReconnectTimeout is the wait after an unexpectedly lost stream.
	// Zero means retry immediately.
	LostReconnectTimeout time.Duration

	// IsTextMessageConversionEnabled controls whether binary frames typed
	// as text by the peer are decoded as UTF-8 text on publish.
	IsTextMessageConversionEnabled bool

	OutboundQueueCapacity int
	InboundQueueCapacity  int
	ReceiveBufferSize     int

	TransportFactory TransportFactory
	Logger           logger
}

type ConfigOption func(*SessionConfig)

// NewSessionConfig builds a config with the documented defaults
// (reconnect_timeout=60s, error_reconnect_timeout=60s,
// is_text_message_conversion_enabled=true) and applies opts on top.
func NewSessionConfig(url string, factory TransportFactory, opts ...ConfigOption) SessionConfig {
	cfg := SessionConfig{
		URL:                             url,
		IsReconnectionEnabled:           true,
		ReconnectTimeout:                defaultReconnectTimeout,
		ErrorReconnectTimeout:           defaultErrorReconnectTimeout,
		IsTextMessageConversionEnabled:  true,
		OutboundQueueCapacity:           defaultQueueCapacity,
		InboundQueueCapacity:            defaultQueueCapacity,
		ReceiveBufferSize:               defaultReceiveBufferSize,
		TransportFactory:                factory,
		Logger:                          NewZerologLogger(nil),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithName(name string) ConfigOption {
	return func(c *SessionConfig) { c.Name = name }
}

func WithReconnectionEnabled(enabled bool) ConfigOption {
	return func(c *SessionConfig) { c.IsReconnectionEnabled = enabled }
}

func WithReconnectTimeout(d time.Duration) ConfigOption {
	return func(c *SessionConfig) { c.ReconnectTimeout = d }
}

func WithErrorReconnectTimeout(d time.Duration) ConfigOption {
	return func(c *SessionConfig) { c.ErrorReconnectTimeout = d }
}

func WithLostReconnectTimeout(d time.Duration) ConfigOption {
	return func(c *SessionConfig) { c.LostReconnectTimeout = d }
}

func WithTextMessageConversion(enabled bool) ConfigOption {
	return func(c *SessionConfig) { c.IsTextMessageConversionEnabled = enabled }
}

func WithLogger(l logger) ConfigOption {
	return func(c *SessionConfig) { c.Logger = l }
}

func WithQueueCapacity(capacity int) ConfigOption {
	return func(c *SessionConfig) {
		c.OutboundQueueCapacity = capacity
		c.InboundQueueCapacity = capacity
	}
}
