// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutAnyFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir, "", Config{}, HasOverrides{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{
		// trailing commas and comments are fine, it's JWCC
		"db_path": "custom.db",
		"block_size": 8192,
	}`), 0644))

	cfg, err := Load(dir, "", Config{}, HasOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 8192, cfg.BlockSize)
	assert.Equal(t, Default().CacheBlocks, cfg.CacheBlocks)
}

func TestLoadCLIOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"db_path": "from-file.db"}`), 0644))

	cfg, err := Load(dir, "", Config{DBPath: "from-cli.db"}, HasOverrides{DBPath: true})
	require.NoError(t, err)
	assert.Equal(t, "from-cli.db", cfg.DBPath)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, filepath.Join(dir, "missing.json"), Config{}, HasOverrides{})
	assert.Error(t, err)
}
