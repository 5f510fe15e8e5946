// Package config loads the inspector's YAML configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/native-abi/errors"
)

// Builtin module names.
const (
	ModuleSample = "sample"
)

// Config selects the modules the inspector loads.
type Config struct {
	LogLevel         string       `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Modules          []string     `json:"modules" yaml:"modules" validate:"unique,dive,oneof=sample" jsonschema:"description=Builtin modules to load"`
	Wasm             []WasmModule `json:"wasm,omitempty" yaml:"wasm,omitempty" validate:"unique=Name,dive"`
	MemoryLimitPages uint32       `json:"memory_limit_pages,omitempty" yaml:"memory_limit_pages,omitempty" jsonschema:"description=Linear memory cap per wasm instance in 64KB pages"`
}

// WasmModule is a core wasm file loaded as an extension module.
type WasmModule struct {
	Name string `json:"name" yaml:"name" validate:"required,excludes=." jsonschema:"required"`
	Path string `json:"path" yaml:"path" validate:"required" jsonschema:"required"`
}

// validate is shared; validator caches struct metadata.
var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Modules:  []string{ModuleSample},
	}
}

// Load reads path. Relative wasm paths are resolved against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Detail("read config").
			Cause(err).
			Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for i := range cfg.Wasm {
		if !filepath.IsAbs(cfg.Wasm[i].Path) {
			cfg.Wasm[i].Path = filepath.Join(dir, cfg.Wasm[i].Path)
		}
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("parse yaml").
			Cause(err).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace())
		}
	}
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(fields...).
		Detail("invalid configuration").
		Cause(err).
		Build()
}

// Level returns the zap level for LogLevel.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Schema renders the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := reflector.Reflect(&Config{})
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "marshal schema")
	}
	return out, nil
}
