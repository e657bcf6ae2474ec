package gantry

import (
	"github.com/gantrykit/gantry/internal/config"
)

// ConfigManager merges ordered configuration sources into one tree.
type ConfigManager = config.Manager

// ConfigSource supplies one layer of configuration values.
type ConfigSource = config.Source

// NewConfigManager creates a configuration manager over the given sources.
var NewConfigManager = config.NewManager

// NewFileSource creates a YAML file configuration source.
var NewFileSource = config.NewFileSource

// NewDotenvSource creates a .env file configuration source.
var NewDotenvSource = config.NewDotenvSource

// NewEnvSource creates a process-environment configuration source.
var NewEnvSource = config.NewEnvSource

// NewStaticSource creates a fixed in-memory configuration source.
var NewStaticSource = config.NewStaticSource
