// Package config loads the service settings.
//
// Settings are layered: built-in defaults, then settings.<RUN_MODE> and
// settings.local from the configuration directory (TOML or YAML, both
// optional), then environment variables prefixed with APP_, e.g.
// APP_BIND_ADDRESS or APP_UTILS_MARK_PDF_TIMEOUT_SECS.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

const (
	// EnvPrefix is the prefix of environment overrides.
	EnvPrefix = "APP_"
	// DefaultRunMode is used when RUN_MODE is not set.
	DefaultRunMode = "development"
)

var (
	DefaultLocation string = "."       // Default configuration directory
	Settings        Config = Default() // Initialized once inside Load. Settings are stored in memory.
)

// Config is the root of the config
type Config struct {
	BindAddress string `toml:"bind_address" yaml:"bind_address" valid:"required"`
	// Isolate runs every watermark in a worker process.
	Isolate bool  `toml:"isolate" yaml:"isolate" valid:"-"`
	Log     Log   `toml:"log" yaml:"log" valid:"required"`
	Utils   Utils `toml:"utils" yaml:"utils" valid:"required"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `toml:"level" yaml:"level" valid:"in(debug|info|warn|error)"`
	Format string `toml:"format" yaml:"format" valid:"in(json|text)"`
}

// Utils configures the /utils endpoints.
type Utils struct {
	MarkPDFMaxSizeByte int64 `toml:"mark_pdf_max_size_byte" yaml:"mark_pdf_max_size_byte" valid:"range(1|1073741824)"`
	MarkPDFTimeoutSecs int64 `toml:"mark_pdf_timeout_secs" yaml:"mark_pdf_timeout_secs" valid:"range(1|3600)"`

	// WorkerPath defaults to the running executable.
	WorkerPath            string `toml:"worker_path" yaml:"worker_path" valid:"-"`
	WorkerMemoryLimitByte int64  `toml:"worker_memory_limit_byte" yaml:"worker_memory_limit_byte" valid:"-"`
	// MaxConnections bounds concurrent connections, 0 is unlimited.
	MaxConnections int `toml:"max_connections" yaml:"max_connections" valid:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BindAddress: "127.0.0.1:8080",
		Isolate:     true,
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Utils: Utils{
			MarkPDFMaxSizeByte: 32 << 20,
			MarkPDFTimeoutSecs: 30,
		},
	}
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	return nil
}

// MarkPDFTimeout is the time limit of one watermark request.
func (u Utils) MarkPDFTimeout() time.Duration {
	return time.Duration(u.MarkPDFTimeoutSecs) * time.Second
}

// SlogLevel returns the configured level.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the settings from dir for the run mode in the RUN_MODE
// environment variable and stores them in Settings.
func Load(dir string) (Config, error) {
	runMode := os.Getenv("RUN_MODE")
	if runMode == "" {
		runMode = DefaultRunMode
	}

	c := Default()
	for _, name := range []string{"settings." + runMode, "settings.local"} {
		if err := mergeFile(&c, filepath.Join(dir, name)); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&c, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := c.ValidateFields(); err != nil {
		return Config{}, fmt.Errorf("config is not valid: %w", err)
	}

	Settings = c
	return c, nil
}

// Read reads a single configuration file over the defaults, without the
// environment overrides.
func Read(configfile string) (Config, error) {
	if _, err := os.Stat(configfile); err != nil {
		return Config{}, fmt.Errorf("config file is missing: %s", configfile)
	}

	c := Default()
	if err := decodeFile(&c, configfile); err != nil {
		return Config{}, err
	}

	if err := c.ValidateFields(); err != nil {
		return Config{}, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}

// mergeFile decodes base.toml, base.yaml or base.yml into c when present.
func mergeFile(c *Config, base string) error {
	for _, ext := range []string{".toml", ".yaml", ".yml"} {
		err := decodeFile(c, base+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return err
	}
	return nil
}

func decodeFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields of c from lookup. The variable name of a field
// is EnvPrefix followed by the upper-cased TOML key path joined with '_'.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	return applyEnv(reflect.ValueOf(c).Elem(), EnvPrefix, lookup)
}

func applyEnv(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := prefix + strings.ToUpper(name)
		field := v.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, key+"_", lookup); err != nil {
				return err
			}
			continue
		}

		raw, ok := lookup(key)
		if !ok {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := govalidator.ToBoolean(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := govalidator.ToInt(raw)
		if err != nil {
			return err
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, field.Type())
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := govalidator.ToFloat(raw)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}
	return nil
}
