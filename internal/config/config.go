// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads hwlogic configuration files.
//
// A configuration file is a JSON document validated against an embedded CUE
// schema:
//
//	{
//		"libraries": ["lib", "/usr/share/hwlogic"],
//		"stdlib": true,
//		"logLevel": "info",
//		"tickLimit": 64,
//		"lint": {"rules": {"unread_variable": "off"}}
//	}
//
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileName is the name of project configuration files.
//
const FileName = "hwlogic.json"

// Lint rule severities.
const (
	SeverityOff     = "off"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Config is the hwlogic configuration.
//
type Config struct {
	// Libraries are directories searched for sub-designs. Relative paths
	// are relative to the configuration file.
	Libraries []string `json:"libraries,omitempty"`

	// StdLib enables the embedded standard library.
	StdLib *bool `json:"stdlib,omitempty"`

	// LogLevel is a logrus level name.
	LogLevel string `json:"logLevel,omitempty"`

	// TickLimit bounds alternate clock passes.
	TickLimit int `json:"tickLimit,omitempty"`

	// Lint contains lint rule configuration.
	Lint LintConfig `json:"lint,omitempty"`

	path string
}

// LintConfig contains lint rule configuration.
//
type LintConfig struct {
	// Rules maps rule names to severity: "off", "info", "warning" or "error".
	Rules map[string]string `json:"rules,omitempty"`
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() *Config {
	return &Config{
		Libraries: []string{},
		StdLib:    boolPtr(true),
		LogLevel:  "warning",
		TickLimit: 64,
		Lint:      LintConfig{Rules: map[string]string{}},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file.
// Search order:
//  1. ./hwlogic.json (current working directory)
//  2. <designDir>/hwlogic.json (if different from cwd)
//  3. ~/.config/hwlogic/config.json
//
// Returns DefaultConfig if no configuration file is found.
//
func Load(designDir string) (*Config, error) {
	for _, p := range searchPaths(designDir) {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return DefaultConfig(), nil
}

func searchPaths(designDir string) []string {
	cwd, _ := os.Getwd()
	ps := []string{filepath.Join(cwd, FileName)}
	if designDir != "" {
		if abs, err := filepath.Abs(designDir); err == nil && abs != cwd {
			ps = append(ps, filepath.Join(abs, FileName))
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		ps = append(ps, filepath.Join(home, ".config", "hwlogic", "config.json"))
	}
	return ps
}

// LoadFile loads the configuration from a specific file.
//
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	cfg.path = path
	return cfg, nil
}

// Parse validates and decodes a JSON configuration.
//
func Parse(data []byte) (*Config, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Libraries == nil {
		c.Libraries = d.Libraries
	}
	if c.StdLib == nil {
		c.StdLib = d.StdLib
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.TickLimit == 0 {
		c.TickLimit = d.TickLimit
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = d.Lint.Rules
	}
}

// Path returns the file the configuration was loaded from, empty for the
// default configuration.
//
func (c *Config) Path() string {
	return c.path
}

// LibraryDirs returns the library directories, relative paths resolved
// against the directory of the configuration file.
//
func (c *Config) LibraryDirs() []string {
	base := "."
	if c.path != "" {
		base = filepath.Dir(c.path)
	}
	r := make([]string, 0, len(c.Libraries))
	for _, l := range c.Libraries {
		if !filepath.IsAbs(l) {
			l = filepath.Join(base, l)
		}
		r = append(r, l)
	}
	return r
}

// Save writes the configuration to a file.
//
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}

// GetRuleSeverity returns the severity for a rule, or def if not configured.
//
func (c *Config) GetRuleSeverity(rule string, def string) string {
	if s, ok := c.Lint.Rules[rule]; ok {
		return s
	}
	return def
}

// IsRuleEnabled returns true if the rule is not set to "off".
//
func (c *Config) IsRuleEnabled(rule string) bool {
	return c.GetRuleSeverity(rule, SeverityWarning) != SeverityOff
}
