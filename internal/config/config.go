package config

import (
	"strings"
	"time"

	"github.com/chararch/chunkbatch"
	"github.com/chararch/chunkbatch/internal/logs"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefix of environment variables, e.g. CUSTMIGRATE_STEP_CHUNKSIZE
const EnvPrefix = "CUSTMIGRATE"

const (
	RepositoryMemory = "memory"
	RepositoryMySQL  = "mysql"
)

// Config settings of a customer migration run
type Config struct {
	// Input CSV file name, may contain {param,format} patterns
	Input string `mapstructure:"input"`
	// DSN of the target MySQL database
	DSN        string                `mapstructure:"dsn"`
	SkipSchema bool                  `mapstructure:"skipSchema"`
	Repository string                `mapstructure:"repository"`
	Step       chunkbatch.StepConfig `mapstructure:"step"`
	FTP        FTPConfig             `mapstructure:"ftp"`
	Log        LogConfig             `mapstructure:"log"`
	Metrics    MetricsConfig         `mapstructure:"metrics"`
}

// FTPConfig Input is read from this server when Host is set
type FTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig Prometheus metrics are served on Addr when it is not empty
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// FlagKeys config keys bound to command line flags by their flag name
var FlagKeys = map[string]string{
	"config":           "",
	"input":            "input",
	"dsn":              "dsn",
	"skip-schema":      "skipSchema",
	"repository":       "repository",
	"chunk-size":       "step.chunkSize",
	"skip-limit":       "step.skipLimit",
	"skippable-errors": "step.skippableErrorClasses",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"metrics-addr":     "metrics.addr",
}

func setDefaults(v *viper.Viper) {
	step := chunkbatch.DefaultStepConfig()
	v.SetDefault("input", "")
	v.SetDefault("dsn", "")
	v.SetDefault("skipSchema", false)
	v.SetDefault("repository", RepositoryMemory)
	v.SetDefault("step.chunkSize", step.ChunkSize)
	v.SetDefault("step.skipLimit", step.SkipLimit)
	v.SetDefault("step.skippableErrorClasses", step.SkippableErrorClasses)
	v.SetDefault("ftp.host", "")
	v.SetDefault("ftp.port", 21)
	v.SetDefault("ftp.user", "anonymous")
	v.SetDefault("ftp.password", "")
	v.SetDefault("ftp.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.addr", "")
}

// Load reads the optional YAML file, then CUSTMIGRATE_* environment variables, then the flags that were set.
// Later sources win.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if flags != nil {
		for name, key := range FlagKeys {
			if key == "" {
				continue
			}
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config before any job is built
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.New("input must be set")
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("dsn must be set")
	}
	if _, err := mysql.ParseDSN(c.DSN); err != nil {
		return errors.Wrap(err, "invalid dsn")
	}
	switch c.Repository {
	case RepositoryMemory, RepositoryMySQL:
	default:
		return errors.Errorf("unsupported repository:%v", c.Repository)
	}
	if _, ok := logs.ParseLevel(c.Log.Level); !ok {
		return errors.Errorf("unsupported log level:%v", c.Log.Level)
	}
	if c.FTP.Host != "" && (c.FTP.Port <= 0 || c.FTP.Port > 65535) {
		return errors.Errorf("invalid ftp port:%d", c.FTP.Port)
	}
	if err := c.Step.Validate(); err != nil {
		return err
	}
	return nil
}

// LogLevel the parsed log level
func (c *Config) LogLevel() logs.LogLevel {
	level, _ := logs.ParseLevel(c.Log.Level)
	return level
}
