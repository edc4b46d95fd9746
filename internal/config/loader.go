package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rockaxx/freegames/internal/game"
)

// sourceEnvPrefix starts the per-source variables, e.g.
// SOURCE_ONLINEFIX_CONCURRENCY or SOURCE_REPACKGAMES_DISABLED.
const sourceEnvPrefix = "SOURCE_"

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Missing files are not an error.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// load reads path (skipped when empty), then applies the environment,
// the defaults and the environment again so env beats both file and
// defaults.
func load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	setDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	applyEnvToStruct(reflect.ValueOf(cfg).Elem())
	applySourceEnv(cfg)
}

// applySourceEnv overlays SOURCE_<KEY>_{DISABLED,CONCURRENCY,PROXY,CHARSET}
// onto the per-source map, which the tag walker cannot reach.
func applySourceEnv(cfg *Config) {
	for _, src := range game.Sources() {
		prefix := sourceEnvPrefix + strings.ToUpper(src.Key()) + "_"
		sc, had := cfg.Sources[src.Key()]
		changed := false

		if v, ok := os.LookupEnv(prefix + "DISABLED"); ok {
			sc.Disabled = parseBool(v)
			changed = true
		}
		if v, ok := os.LookupEnv(prefix + "CONCURRENCY"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				sc.Concurrency = n
				changed = true
			}
		}
		if v := os.Getenv(prefix + "PROXY"); v != "" {
			sc.Proxy = v
			changed = true
		}
		if v := os.Getenv(prefix + "CHARSET"); v != "" {
			sc.Charset = v
			changed = true
		}

		if changed || had {
			if cfg.Sources == nil {
				cfg.Sources = make(map[string]SourceConfig)
			}
			cfg.Sources[src.Key()] = sc
		}
	}
}

func applyEnvToStruct(v reflect.Value) {
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			applyEnvToStruct(field)
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		if val := os.Getenv(name); val != "" {
			setFromString(field, val)
		}
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFromString(field reflect.Value, val string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Bool:
		field.SetBool(parseBool(val))
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(splitList(val)))
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// GetConfigPath returns CONFIG_PATH when set, otherwise defaultPath.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}
