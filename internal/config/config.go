/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the MCP server configuration from the environment and
// an optional YAML product file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport selects how MCP clients reach the server.
type Transport string

const (
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP Transport = "http"
	// TransportStdio serves a single client over stdin/stdout.
	TransportStdio Transport = "stdio"
)

// Config holds the server configuration.
type Config struct {
	// Upstream completion API
	APIKey  string // Credential for the upstream and analytics APIs; empty disables the tools
	BaseURL string // OpenAI-compatible base URL

	// Product identity used in tool names and descriptions
	ProductSlug string
	ProductName string

	// Upstream model identifiers
	QAModel  string
	RAGModel string

	// Analytics sink
	AnalyticsEnabled bool
	AnalyticsBaseURL string

	// Server
	Transport   Transport
	BasePath    string
	Port        int
	HealthPort  int
	MaxDuration time.Duration // Per-invocation execution budget

	// Tracing
	TracingEnabled    bool
	TracingEndpoint   string
	TracingSampleRate float64
	TracingInsecure   bool

	// ProductConfigPath is the YAML product file, if any.
	ProductConfigPath string
}

// Environment variable names.
const (
	EnvAPIKey            = "INKEEP_API_KEY"
	EnvBaseURL           = "INKEEP_API_BASE_URL"
	EnvProductSlug       = "INKEEP_PRODUCT_SLUG"
	EnvProductName       = "INKEEP_PRODUCT_NAME"
	EnvQAModel           = "INKEEP_QA_MODEL"
	EnvRAGModel          = "INKEEP_RAG_MODEL"
	EnvAnalyticsEnabled  = "INKEEP_ANALYTICS_ENABLED"
	EnvAnalyticsBaseURL  = "INKEEP_ANALYTICS_BASE_URL"
	EnvProductConfig     = "INKEEP_MCP_CONFIG"
	EnvTransport         = "INKEEP_MCP_TRANSPORT"
	EnvBasePath          = "INKEEP_MCP_BASE_PATH"
	EnvPort              = "INKEEP_MCP_PORT"
	EnvHealthPort        = "INKEEP_MCP_HEALTH_PORT"
	EnvMaxDuration       = "INKEEP_MCP_MAX_DURATION"
	EnvTracingEnabled    = "INKEEP_MCP_TRACING_ENABLED"
	EnvTracingEndpoint   = "INKEEP_MCP_TRACING_ENDPOINT"
	EnvTracingSampleRate = "INKEEP_MCP_TRACING_SAMPLE_RATE"
	EnvTracingInsecure   = "INKEEP_MCP_TRACING_INSECURE"
)

// Default values.
const (
	DefaultBaseURL          = "https://api.inkeep.com/v1"
	DefaultProductSlug      = "inkeep"
	DefaultProductName      = "Inkeep"
	DefaultQAModel          = "inkeep-qa-expert"
	DefaultRAGModel         = "inkeep-rag"
	DefaultAnalyticsBaseURL = "https://api.analytics.inkeep.com"
	DefaultPort             = 3000
	DefaultHealthPort       = 3001
	DefaultMaxDuration      = 300 * time.Second
)

const errFmtInvalidEnvVar = "invalid %s: %w"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

// ProductFile is the YAML product file format. Empty fields keep the value
// from the environment or the default.
type ProductFile struct {
	Slug     string `yaml:"slug,omitempty"`
	Name     string `yaml:"name,omitempty"`
	QAModel  string `yaml:"qaModel,omitempty"`
	RAGModel string `yaml:"ragModel,omitempty"`
}

// Load loads configuration from environment variables. A missing API key is
// not an error: the server still registers its tools, which then return
// empty results.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:            os.Getenv(EnvAPIKey),
		BaseURL:           getEnvOrDefault(EnvBaseURL, DefaultBaseURL),
		ProductSlug:       getEnvOrDefault(EnvProductSlug, DefaultProductSlug),
		ProductName:       getEnvOrDefault(EnvProductName, DefaultProductName),
		QAModel:           getEnvOrDefault(EnvQAModel, DefaultQAModel),
		RAGModel:          getEnvOrDefault(EnvRAGModel, DefaultRAGModel),
		AnalyticsEnabled:  true,
		AnalyticsBaseURL:  getEnvOrDefault(EnvAnalyticsBaseURL, DefaultAnalyticsBaseURL),
		Transport:         Transport(getEnvOrDefault(EnvTransport, string(TransportHTTP))),
		BasePath:          strings.TrimSuffix(os.Getenv(EnvBasePath), "/"),
		Port:              DefaultPort,
		HealthPort:        DefaultHealthPort,
		MaxDuration:       DefaultMaxDuration,
		TracingEnabled:    os.Getenv(EnvTracingEnabled) == "true",
		TracingEndpoint:   os.Getenv(EnvTracingEndpoint),
		TracingSampleRate: 1.0,
		TracingInsecure:   os.Getenv(EnvTracingInsecure) == "true",
		ProductConfigPath: os.Getenv(EnvProductConfig),
	}

	if err := cfg.parseEnvironmentOverrides(); err != nil {
		return nil, err
	}

	if cfg.ProductConfigPath != "" {
		if err := cfg.applyProductFile(cfg.ProductConfigPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasCredential reports whether the upstream credential is configured.
func (cfg *Config) HasCredential() bool {
	return cfg.APIKey != ""
}

func (cfg *Config) parseEnvironmentOverrides() error {
	if v := os.Getenv(EnvAnalyticsEnabled); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf(errFmtInvalidEnvVar, EnvAnalyticsEnabled, err)
		}
		cfg.AnalyticsEnabled = b
	}
	if err := cfg.parsePorts(); err != nil {
		return err
	}
	if v := os.Getenv(EnvMaxDuration); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf(errFmtInvalidEnvVar, EnvMaxDuration, err)
		}
		cfg.MaxDuration = d
	}
	return cfg.parseTracingSampleRate()
}

func (cfg *Config) parsePorts() error {
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf(errFmtInvalidEnvVar, EnvPort, err)
		}
		cfg.Port = p
	}
	if port := os.Getenv(EnvHealthPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf(errFmtInvalidEnvVar, EnvHealthPort, err)
		}
		cfg.HealthPort = p
	}
	return nil
}

func (cfg *Config) parseTracingSampleRate() error {
	rate := os.Getenv(EnvTracingSampleRate)
	if rate == "" {
		return nil
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return fmt.Errorf(errFmtInvalidEnvVar, EnvTracingSampleRate, err)
	}
	if r < 0 || r > 1 {
		return fmt.Errorf("invalid %s: must be between 0.0 and 1.0", EnvTracingSampleRate)
	}
	cfg.TracingSampleRate = r
	return nil
}

// applyProductFile overlays non-empty fields of the YAML product file.
func (cfg *Config) applyProductFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read product config: %w", err)
	}
	var pf ProductFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse product config: %w", err)
	}
	if pf.Slug != "" {
		cfg.ProductSlug = pf.Slug
	}
	if pf.Name != "" {
		cfg.ProductName = pf.Name
	}
	if pf.QAModel != "" {
		cfg.QAModel = pf.QAModel
	}
	if pf.RAGModel != "" {
		cfg.RAGModel = pf.RAGModel
	}
	return nil
}

func (cfg *Config) validate() error {
	if !slugPattern.MatchString(cfg.ProductSlug) {
		return fmt.Errorf("invalid product slug %q: must be lowercase alphanumeric words separated by '-' or '_'", cfg.ProductSlug)
	}
	if cfg.ProductName == "" {
		return fmt.Errorf("product name must not be empty")
	}
	switch cfg.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid %s: must be %q or %q", EnvTransport, TransportHTTP, TransportStdio)
	}
	if cfg.MaxDuration <= 0 {
		return fmt.Errorf("invalid %s: must be positive", EnvMaxDuration)
	}
	if cfg.TracingEnabled && cfg.TracingEndpoint == "" {
		return fmt.Errorf("%s is required when tracing is enabled", EnvTracingEndpoint)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
