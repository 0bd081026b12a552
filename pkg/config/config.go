// Package config holds the YAML-backed tool configuration. Everything in
// it is optional; command line flags override whatever the file says.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Version of the tool, set at build time.
var Version string

// Config is the top level configuration.
type Config struct {
	Output      OutputConfiguration `yaml:"Output"`
	Debug       bool                `yaml:"Debug"`
	LoggerLevel string              `yaml:"LoggerLevel"`
}

// OutputConfiguration names the files a compilation produces.
type OutputConfiguration struct {
	// Assembly is the path of the generated assembly file.
	Assembly string `yaml:"Assembly"`
	// Unparse, when set, receives the canonical unparsed source.
	Unparse string `yaml:"Unparse"`
}

// Load reads and decodes the configuration file at path.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config: %w", err)
	}
	return cfg, nil
}
