// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

// EnvPrefix namespaces environment overrides, e.g. WIKIREFS_RUN_MAX_WORKERS=8.
const EnvPrefix = "WIKIREFS"

// Config captures all knobs loaded via Viper.
type Config struct {
	Run     RunConfig     `mapstructure:"run"`
	Wiki    WikiConfig    `mapstructure:"wiki"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	DB      DBConfig      `mapstructure:"db"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// RunConfig mirrors the command line surface.
type RunConfig struct {
	Query      string `mapstructure:"query"`
	OutputDir  string `mapstructure:"output_dir"`
	Mode       string `mapstructure:"mode"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

// WikiConfig configures the MediaWiki API client.
type WikiConfig struct {
	APIURL         string `mapstructure:"api_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	SearchLimit    int    `mapstructure:"search_limit"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig points at an optional Prometheus textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// DBConfig enables the optional Postgres export when DSN is set.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// StorageConfig enables the optional GCS copy when GCSBucket is set.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig enables the optional run notification when both fields are set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// flagKeys maps command line flag names to their Viper keys.
var flagKeys = map[string]string{
	"query":       "run.query",
	"output_dir":  "run.output_dir",
	"mode":        "run.mode",
	"max_workers": "run.max_workers",
}

// Load builds a Config from defaults, an optional file, the environment and
// any flags in flags that were explicitly set, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.query", "generative artificial intelligence")
	v.SetDefault("run.output_dir", "wikipedia_references")
	v.SetDefault("run.mode", string(harvest.ModeBoth))
	v.SetDefault("run.max_workers", 5)
	v.SetDefault("wiki.api_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wiki.user_agent", "wikirefs/1.0 (+https://github.com/JakeFAU/wikirefs)")
	v.SetDefault("wiki.timeout_seconds", 15)
	v.SetDefault("wiki.search_limit", 10)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "wikipedia_references")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "wikirefs")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Run.Query) == "" {
		return fmt.Errorf("run.query must not be empty")
	}
	if strings.TrimSpace(c.Run.OutputDir) == "" {
		return fmt.Errorf("run.output_dir must be set")
	}
	if _, err := harvest.ParseMode(c.Run.Mode); err != nil {
		return fmt.Errorf("run.mode: %w", err)
	}
	if c.Run.MaxWorkers <= 0 {
		return fmt.Errorf("run.max_workers must be > 0")
	}
	if c.Wiki.TimeoutSeconds <= 0 {
		return fmt.Errorf("wiki.timeout_seconds must be > 0")
	}
	if c.Wiki.SearchLimit <= 0 || c.Wiki.SearchLimit > 500 {
		return fmt.Errorf("wiki.search_limit must be between 1 and 500")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// Mode returns the validated execution mode.
func (c Config) Mode() harvest.Mode {
	m, _ := harvest.ParseMode(c.Run.Mode)
	return m
}

// WikiTimeout converts the API timeout to a duration.
func (c Config) WikiTimeout() time.Duration {
	return time.Duration(c.Wiki.TimeoutSeconds) * time.Second
}
