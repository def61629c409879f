// Copyright 2026 SmartRec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"strings"
	"time"

	"github.com/Evilgadron/SmartRec/cmd/version"
	"github.com/Evilgadron/SmartRec/storage"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config is the configuration for SmartRec.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Split     SplitConfig     `mapstructure:"split"`
	Evaluate  EvaluateConfig  `mapstructure:"evaluate"`
	Server    ServerConfig    `mapstructure:"server"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// DatabaseConfig is the configuration for the rating store.
type DatabaseConfig struct {
	DataStore   string `mapstructure:"data_store" validate:"required,data_store"`
	TablePrefix string `mapstructure:"table_prefix"`
}

// RecommendConfig is the configuration for recommendation.
type RecommendConfig struct {
	Method      string `mapstructure:"method" validate:"oneof=user_based item_based"`
	N           int    `mapstructure:"n" validate:"gt=0"`
	K           int    `mapstructure:"k" validate:"gt=0"`
	ValueColumn string `mapstructure:"value_column" validate:"oneof=rating rating_normalized"`
}

// SplitConfig is the configuration for the train/test split.
type SplitConfig struct {
	TestFraction float64 `mapstructure:"test_fraction" validate:"gte=0,lt=1"`
	Seed         int64   `mapstructure:"seed"`
}

// EvaluateConfig is the configuration for offline evaluation.
type EvaluateConfig struct {
	TopK int `mapstructure:"top_k" validate:"gt=0"`
	Jobs int `mapstructure:"jobs" validate:"gt=0"`
}

// ServerConfig is the configuration for the REST server.
type ServerConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	CacheSize uint64        `mapstructure:"cache_size"`
}

// TracingConfig is the configuration for OpenTelemetry tracing.
type TracingConfig struct {
	EnableTracing     bool    `mapstructure:"enable_tracing"`
	Exporter          string  `mapstructure:"exporter" validate:"oneof=zipkin otlp otlphttp"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	Sampler           string  `mapstructure:"sampler" validate:"oneof=always never ratio"`
	Ratio             float64 `mapstructure:"ratio" validate:"gte=0,lte=1"`
}

// NewTracerProvider creates a tracer provider exporting spans to the collector.
// A no-op provider is returned if tracing is disabled.
func (config *TracingConfig) NewTracerProvider() (trace.TracerProvider, error) {
	if !config.EnableTracing {
		return noop.NewTracerProvider(), nil
	}

	var exporter tracesdk.SpanExporter
	var err error
	switch config.Exporter {
	case "zipkin":
		exporter, err = zipkin.New(config.CollectorEndpoint)
	case "otlp":
		client := otlptracegrpc.NewClient(otlptracegrpc.WithInsecure(), otlptracegrpc.WithEndpoint(config.CollectorEndpoint))
		exporter, err = otlptrace.New(context.TODO(), client)
	case "otlphttp":
		client := otlptracehttp.NewClient(otlptracehttp.WithInsecure(), otlptracehttp.WithEndpoint(config.CollectorEndpoint))
		exporter, err = otlptrace.New(context.TODO(), client)
	default:
		return nil, errors.NotSupportedf("exporter %s", config.Exporter)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	var sampler tracesdk.Sampler
	switch config.Sampler {
	case "always":
		sampler = tracesdk.AlwaysSample()
	case "never":
		sampler = tracesdk.NeverSample()
	case "ratio":
		sampler = tracesdk.TraceIDRatioBased(config.Ratio)
	default:
		return nil, errors.NotSupportedf("sampler %s", config.Sampler)
	}

	return tracesdk.NewTracerProvider(
		tracesdk.WithSampler(sampler),
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("smartrec"),
			semconv.ServiceVersionKey.String(version.Version),
		)),
	), nil
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore: "movielens://data/raw",
		},
		Recommend: RecommendConfig{
			Method:      "user_based",
			N:           5,
			K:           5,
			ValueColumn: "rating",
		},
		Split: SplitConfig{
			TestFraction: 0.2,
			Seed:         42,
		},
		Evaluate: EvaluateConfig{
			TopK: 5,
			Jobs: 1,
		},
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			CacheTTL:  10 * time.Minute,
			CacheSize: 1000,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always",
			Ratio:    1,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	// [recommend]
	v.SetDefault("recommend.method", defaultConfig.Recommend.Method)
	v.SetDefault("recommend.n", defaultConfig.Recommend.N)
	v.SetDefault("recommend.k", defaultConfig.Recommend.K)
	v.SetDefault("recommend.value_column", defaultConfig.Recommend.ValueColumn)
	// [split]
	v.SetDefault("split.test_fraction", defaultConfig.Split.TestFraction)
	v.SetDefault("split.seed", defaultConfig.Split.Seed)
	// [evaluate]
	v.SetDefault("evaluate.top_k", defaultConfig.Evaluate.TopK)
	v.SetDefault("evaluate.jobs", defaultConfig.Evaluate.Jobs)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.cache_ttl", defaultConfig.Server.CacheTTL)
	v.SetDefault("server.cache_size", defaultConfig.Server.CacheSize)
	// [tracing]
	v.SetDefault("tracing.enable_tracing", defaultConfig.Tracing.EnableTracing)
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"database.data_store", "SMARTREC_DATA_STORE"},
	{"database.table_prefix", "SMARTREC_TABLE_PREFIX"},
	{"recommend.method", "SMARTREC_RECOMMEND_METHOD"},
	{"recommend.n", "SMARTREC_RECOMMEND_N"},
	{"recommend.k", "SMARTREC_RECOMMEND_K"},
	{"split.seed", "SMARTREC_SPLIT_SEED"},
	{"evaluate.jobs", "SMARTREC_EVALUATE_JOBS"},
	{"server.host", "SMARTREC_SERVER_HOST"},
	{"server.port", "SMARTREC_SERVER_PORT"},
}

// LoadConfig loads configuration from a TOML file. Missing keys take default
// values and SMARTREC_* environment variables override the file. An empty path
// loads defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks values of the configuration.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("data_store", validateDataStore); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid configuration")
	}
	return nil
}

func validateDataStore(fl validator.FieldLevel) bool {
	prefixes := []string{
		storage.MovieLensPrefix,
		storage.MySQLPrefix,
		storage.MongoPrefix,
		storage.MongoSrvPrefix,
		storage.PostgresPrefix,
		storage.PostgreSQLPrefix,
		storage.SQLitePrefix,
		storage.RedisPrefix,
		storage.RedissPrefix,
	}
	return lo.SomeBy(prefixes, func(prefix string) bool {
		return strings.HasPrefix(fl.Field().String(), prefix)
	})
}
