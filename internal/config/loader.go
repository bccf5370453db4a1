package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "METADEX_"

const maxFileSize = 1 << 20

// DefaultPath is ~/.config/metadex/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "metadex", "config.yaml"), nil
}

// Load builds the configuration from defaults, the YAML file at path and
// METADEX_* environment variables, later layers winning.
//
// An empty path means DefaultPath, which may be missing. An explicit path
// must exist. Either way the file must be a regular file of at most 1MiB
// that group and others cannot write.
//
// Environment variables name a section and a field, split at the first
// underscore after the prefix:
//
//	METADEX_SERVER_PORT   -> server.port
//	METADEX_META_WORK_DIR -> meta.work_dir
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	k := koanf.New(".")
	data, err := readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults and environment only
	case err != nil:
		return nil, err
	default:
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Config{Reload: ReloadConfig{OnStart: true}}
	if err := decode(k, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func decode(k *koanf.Koanf, cfg *Config) error {
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				secondsHook,
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

var durationType = reflect.TypeOf(Duration(0))

// secondsHook reads YAML numbers given for a Duration as seconds.
func secondsHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Duration(time.Duration(v.Int()) * time.Second), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Duration(time.Duration(v.Uint()) * time.Second), nil
	case reflect.Float32, reflect.Float64:
		return Duration(v.Float() * float64(time.Second)), nil
	}
	return data, nil
}

// envKey maps METADEX_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if section, field, ok := strings.Cut(lower, "_"); ok {
		return section + "." + field
	}
	return lower
}

// readFile checks the opened file rather than the path so a swap between
// check and read is caught.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if err := checkFile(info); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return io.ReadAll(io.LimitReader(f, maxFileSize))
}

func checkFile(info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	if perm := info.Mode().Perm(); runtime.GOOS != "windows" && perm&0o022 != 0 {
		return fmt.Errorf("mode %v is writable by group or others", perm)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("%d bytes exceeds the %d byte limit", info.Size(), maxFileSize)
	}
	return nil
}
