package types

import "time"

// AppConfig is the root configuration for the drivelens gateway
type AppConfig struct {
	DebugMode  bool `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool `key:"prettyLogs" json:"pretty_logs"`

	Database  DatabaseConfig  `key:"database" json:"database"`
	Gateway   GatewayConfig   `key:"gateway" json:"gateway"`
	OAuth     OAuthConfig     `key:"oauth" json:"oauth"`
	OpenAI    OpenAIConfig    `key:"openai" json:"openai"`
	Sync      SyncConfig      `key:"sync" json:"sync"`
	Query     QueryConfig     `key:"query" json:"query"`
	Analytics AnalyticsConfig `key:"analytics" json:"analytics"`
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP HTTPConfig `key:"http" json:"http"`

	// JWTSecret signs session cookies issued after the OAuth callback
	JWTSecret string `key:"jwtSecret" json:"jwt_secret"`

	// SessionTTL bounds how long an issued session cookie is valid
	SessionTTL time.Duration `key:"sessionTTL" json:"session_ttl"`

	// ClientOrigin is where the browser is redirected after the OAuth callback
	ClientOrigin string `key:"clientOrigin" json:"client_origin"`
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowedOrigins" json:"allowed_origins"`
	AllowedHeaders []string `key:"allowedHeaders" json:"allowed_headers"`
	AllowedMethods []string `key:"allowedMethods" json:"allowed_methods"`
}

// ----------------------------------------------------------------------------
// Provider Configuration
// ----------------------------------------------------------------------------

type OAuthConfig struct {
	Google GoogleOAuthConfig `key:"google" json:"google"`
}

type GoogleOAuthConfig struct {
	ClientID     string `key:"clientId" json:"client_id"`
	ClientSecret string `key:"clientSecret" json:"client_secret"`
	RedirectURL  string `key:"redirectUrl" json:"redirect_url"`
}

type OpenAIConfig struct {
	APIKey string `key:"apiKey" json:"api_key"`
	Model  string `key:"model" json:"model"`
}

// IsConfigured returns true if the model provider can be used
func (c OpenAIConfig) IsConfigured() bool {
	return c.APIKey != ""
}

// ----------------------------------------------------------------------------
// Core component tuning
// ----------------------------------------------------------------------------

type SyncConfig struct {
	// PageSize is the Drive files.list page size
	PageSize int `key:"pageSize" json:"page_size"`

	// ChunkSize bounds how many upserts share one transaction
	ChunkSize int `key:"chunkSize" json:"chunk_size"`
}

type QueryConfig struct {
	// RateLimit admits at most this many queries per identity per window
	RateLimit  int           `key:"rateLimit" json:"rate_limit"`
	RateWindow time.Duration `key:"rateWindow" json:"rate_window"`
}

type AnalyticsConfig struct {
	// InsightsRateLimit is stricter than the general query limit
	InsightsRateLimit  int           `key:"insightsRateLimit" json:"insights_rate_limit"`
	InsightsRateWindow time.Duration `key:"insightsRateWindow" json:"insights_rate_window"`

	// InsightsCacheTTL is how long a cached insight set stays fresh
	InsightsCacheTTL time.Duration `key:"insightsCacheTTL" json:"insights_cache_ttl"`

	// InsightsCacheMaxEntries triggers an expired-entry sweep when exceeded
	InsightsCacheMaxEntries int `key:"insightsCacheMaxEntries" json:"insights_cache_max_entries"`
}
