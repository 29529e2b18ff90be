package logging

import (
	"fmt"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging/adapters"
)

// Manager manages the logging system initialization and configuration
type Manager struct {
	factory *AdapterFactory
	logger  *MultiLogger
}

// NewManager creates a new logging manager
func NewManager() *Manager {
	return &Manager{
		factory: NewAdapterFactory(),
		logger:  NewMultiLogger(),
	}
}

// Initialize initializes the logging system from configuration
func (m *Manager) Initialize(cfg *config.Config) error {
	m.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	if len(cfg.Logging.Adapters) > 0 {
		return m.initializeFromAdapters(cfg.Logging.Adapters)
	}

	return m.initializeDefaults(cfg)
}

// initializeFromAdapters builds adapters from the explicit configuration list
func (m *Manager) initializeFromAdapters(adapterConfigs []config.LoggingAdapter) error {
	for _, ac := range adapterConfigs {
		if !ac.Enabled {
			continue
		}

		adapter, err := m.factory.CreateAdapter(AdapterConfig{
			Name:    ac.Name,
			Type:    ac.Type,
			Enabled: ac.Enabled,
			Options: ac.Options,
		})
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", ac.Name, err)
		}

		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", ac.Name, err)
		}
	}

	return nil
}

// initializeDefaults wires the console plus logfile pair used when no
// adapter list is configured.
func (m *Manager) initializeDefaults(cfg *config.Config) error {
	stdout := adapters.NewStdoutAdapter("console", adapters.StdoutConfig{
		Format:    cfg.Logging.Format,
		Colorized: true,
	})
	if err := m.logger.AddAdapter(stdout); err != nil {
		return fmt.Errorf("failed to add console adapter: %w", err)
	}

	if cfg.Logging.File == "" {
		return nil
	}

	file, err := adapters.NewFileAdapter("logfile", adapters.FileConfig{
		FilePath:   cfg.Logging.File,
		Format:     cfg.Logging.Format,
		CreateDirs: true,
		MaxBackups: 5,
	})
	if err != nil {
		return fmt.Errorf("failed to create logfile adapter: %w", err)
	}
	if err := m.logger.AddAdapter(file); err != nil {
		return fmt.Errorf("failed to add logfile adapter: %w", err)
	}

	return nil
}

// GetLogger returns the initialized logger
func (m *Manager) GetLogger() Logger {
	return m.logger
}

// Close closes the logging system
func (m *Manager) Close() error {
	if m.logger != nil {
		return m.logger.Close()
	}
	return nil
}

// Global manager, used only during bootstrap before main wires loggers into
// component constructors.
var globalManager *Manager

// InitializeLogging initializes the global logging system
func InitializeLogging(cfg *config.Config) error {
	globalManager = NewManager()
	return globalManager.Initialize(cfg)
}

// GetGlobalLogger returns the global logger, falling back to a plain stdout
// logger when initialization never ran.
func GetGlobalLogger() Logger {
	if globalManager == nil {
		manager := NewManager()
		adapter := adapters.NewStdoutAdapter("fallback_stdout", adapters.StdoutConfig{
			Format: "text",
		})
		manager.logger.AddAdapter(adapter)
		globalManager = manager
	}
	return globalManager.GetLogger()
}

// CloseLogging closes the global logging system
func CloseLogging() error {
	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}
