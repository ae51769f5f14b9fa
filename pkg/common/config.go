package common

import (
	_ "embed"
	"fmt"
	"os"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed config.default.yaml
var defaultConfig []byte

// ConfigManager loads layered configuration: embedded defaults, then an
// optional yaml file named by CONFIG_PATH, then an optional JSON blob from
// CONFIG_JSON. Later layers override earlier ones.
type ConfigManager[T any] struct {
	k      *koanf.Koanf
	config T
}

func NewConfigManager[T any]() (*ConfigManager[T], error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if raw := os.Getenv("CONFIG_JSON"); raw != "" {
		if err := k.Load(rawbytes.Provider([]byte(raw)), kjson.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load CONFIG_JSON: %w", err)
		}
	}

	cm := &ConfigManager[T]{k: k}
	if err := k.UnmarshalWithConf("", &cm.config, koanf.UnmarshalConf{Tag: "key"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cm, nil
}

// GetConfig returns the merged configuration
func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}
