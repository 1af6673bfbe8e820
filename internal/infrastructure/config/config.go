package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the full process configuration: the ambient server/cache
// surface plus the outbound credential and endpoint surface for every
// external collaborator the core talks to.
type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Redis     RedisConfig     `koanf:"redis"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	VPN       VPNConfig       `koanf:"vpn_providers"`
	Telemetry TelemetryConfig `koanf:"telemetry"`

	// ThresholdsPath points at the JSON document the Threshold
	// Registry loads at startup. Empty means the built-in defaults
	// are used.
	ThresholdsPath string `koanf:"thresholds_path"`
}

// ServerConfig holds the HTTP transport's listen parameters. The
// transport itself is an external collaborator; only its configuration
// surface belongs to the core.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AuthIssuer      string        `koanf:"auth_issuer"`
	AuthSecret      string        `koanf:"-"`
	RateLimitRPS    float64       `koanf:"rate_limit_rps"`
	RateLimitBurst  int           `koanf:"rate_limit_burst"`
	OpenAPISpecPath string        `koanf:"openapi_spec_path"`
}

// RedisConfig parameterizes the VPN aggregator's result cache.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// QdrantConfig parameterizes the vector-store client's connection to
// the fixed geo_spoofer_sessions collection.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	APIKey     string `koanf:"api_key"`
	UseTLS     bool   `koanf:"use_tls"`
	Collection string `koanf:"collection"`
	Dimension  int    `koanf:"dimension"`
}

// GeminiConfig parameterizes both the embedding client and the
// generative risk evaluator's model client. A blank APIKey disables
// both, and callers fall back to their respective degraded paths.
type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
}

// VPNConfig carries the per-provider credential surface. A blank field
// disables only that provider; the fallback provider needs none.
type VPNConfig struct {
	IPInfoToken       string `koanf:"ipinfo_token"`
	VPNAPIKey         string `koanf:"vpnapi_key"`
	IPQualityScoreKey string `koanf:"ipqualityscore_key"`
	IPHubKey          string `koanf:"iphub_key"`
	AbstractAPIKey    string `koanf:"abstractapi_key"`
	IPAPIKey          string `koanf:"ipapi_key"`
}

// TelemetryConfig parameterizes the OpenTelemetry trace/metric export
// path. Enabled defaults to false: a deployment with no OTLP collector
// reachable runs with no-op providers rather than failing startup.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

// envPrefix namespaces structured overrides (server/redis/qdrant/...);
// the outbound credential env vars named in the configuration surface
// are read verbatim below, independent of this prefix.
const envPrefix = "ORIGINWATCH_"

func defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AuthIssuer:      "originwatch",
			RateLimitRPS:    20,
			RateLimitBurst:  40,
			OpenAPISpecPath: "api/openapi.yaml",
		},
		Redis: RedisConfig{
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "geo_spoofer_sessions",
			Dimension:  768,
		},
		ThresholdsPath: "configs/thresholds.json",
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Load builds a Config from built-in defaults, an optional YAML file,
// namespaced environment overrides, and the fixed-name outbound
// credential env vars the configuration surface specifies. A missing
// config file is not an error; the defaults and environment stand in
// for it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := k.Load(file.Provider("configs/config.yaml"), yaml.Parser()); err != nil {
		// Config file is optional; missing is not fatal.
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyCredentialEnv(&cfg)

	return &cfg, nil
}

// applyCredentialEnv overlays the fixed-name credential and endpoint
// env vars the configuration surface specifies. These are read
// verbatim (no prefix, no case folding) because they name external
// systems' own conventional variable names, not this process's
// namespaced configuration.
func applyCredentialEnv(cfg *Config) {
	if v := os.Getenv("IPINFO_TOKEN"); v != "" {
		cfg.VPN.IPInfoToken = v
	}
	if v := os.Getenv("VPNAPI_KEY"); v != "" {
		cfg.VPN.VPNAPIKey = v
	}
	if v := os.Getenv("IPQUALITYSCORE_KEY"); v != "" {
		cfg.VPN.IPQualityScoreKey = v
	}
	if v := os.Getenv("IPHUB_KEY"); v != "" {
		cfg.VPN.IPHubKey = v
	}
	if v := os.Getenv("ABSTRACTAPI_KEY"); v != "" {
		cfg.VPN.AbstractAPIKey = v
	}
	if v := os.Getenv("IPAPI_KEY"); v != "" {
		cfg.VPN.IPAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		cfg.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		cfg.Qdrant.APIKey = v
	}
	if v := os.Getenv("ORIGINWATCH_AUTH_SECRET"); v != "" {
		cfg.Server.AuthSecret = v
	}
}
