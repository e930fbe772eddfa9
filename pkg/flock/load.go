package flock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "https://github.com/richard-sim/proto-boids/config.schema.json"

// LoadConfig loads configuration from a JSON or TOML file and validates it against the schema.
// An empty schemaFile selects the schema embedded in this package.
// Fields missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(configFile), ".toml") {
		raw, err = tomlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	}

	return parseConfig(sch, raw)
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile == "" {
		return jsonschema.CompileString(configSchemaURL, configSchema)
	}
	return jsonschema.Compile(schemaFile)
}

func parseConfig(sch *jsonschema.Schema, raw []byte) (*Config, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// tomlToJSON re-encodes a TOML document as JSON so a single schema covers both formats.
func tomlToJSON(raw []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
