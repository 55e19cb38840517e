package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.StateDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	// The error log stays relative to the working directory unless the user
	// configured an explicit location.
	if strings.TrimSpace(c.Paths.ErrorLog) == "" {
		c.Paths.ErrorLog = defaultErrorLog
	}
	if strings.HasPrefix(c.Paths.ErrorLog, "~") || filepath.IsAbs(c.Paths.ErrorLog) {
		expanded, err := expandPath(c.Paths.ErrorLog)
		if err != nil {
			return err
		}
		c.Paths.ErrorLog = expanded
	}

	c.Tools.Detector = strings.TrimSpace(c.Tools.Detector)
	c.Tools.Stretcher = strings.TrimSpace(c.Tools.Stretcher)

	if len(c.Processing.Extensions) == 0 {
		c.Processing.Extensions = defaultExtensions()
	}
	normalized := make([]string, 0, len(c.Processing.Extensions))
	for _, ext := range c.Processing.Extensions {
		trimmed := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	c.Processing.Extensions = normalized

	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTools() error {
	if c.Tools.Detector == "" {
		return errors.New("tools.detector must be set")
	}
	if c.Tools.Stretcher == "" {
		return errors.New("tools.stretcher must be set")
	}
	if c.Tools.TimeoutSeconds < 0 {
		return errors.New("tools.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Workers < 1 {
		return errors.New("processing.workers must be at least 1")
	}
	if c.Processing.BPMTolerance < 0 {
		return errors.New("processing.bpm_tolerance must not be negative")
	}
	if len(c.Processing.Extensions) == 0 {
		return errors.New("processing.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
