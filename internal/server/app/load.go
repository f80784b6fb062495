package app

import (
	"fmt"

	"github.com/yndnr/portmesh-go/internal/infra/confloader"
	"github.com/yndnr/portmesh-go/internal/server/config"
)

// LoadConfig reads defaults, the config file, PORTMESH_ environment
// variables and overrides, in increasing priority, and verifies the result.
func LoadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ReloadConfig is LoadConfig for a loader that has already been used.
func ReloadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Reload(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
