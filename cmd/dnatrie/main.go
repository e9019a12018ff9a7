// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dnatrie runs the DNA trie engine's command-file loop
// (spec.md §6): `dnatrie <command-file> <num-buffers> <block-size>`.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/inconshreveable/log15"
	flag "github.com/spf13/pflag"

	"github.com/orionf22/dnatrie/internal/config"
	"github.com/orionf22/dnatrie/store"
)

var log = log15.New("module", "dnatrie")

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dnatrie [--db path] [--config file] [-v] <command-file> <num-buffers> <block-size>")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("dnatrie", flag.ContinueOnError)
	dbPath := fs.String("db", "", "backing file path (overrides config)")
	configPath := fs.String("config", "", "explicit config file path")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	fs.Usage = usage

	if err := fs.Parse(args); err != nil {
		return 2
	}

	positional := fs.Args()
	if len(positional) != 3 {
		usage()
		return 2
	}

	cmdFile := positional[0]
	numBuffers, err1 := strconv.Atoi(positional[1])
	blockSize, err2 := strconv.Atoi(positional[2])
	if err1 != nil || err2 != nil || numBuffers < 1 || blockSize < 1 {
		usage()
		return 2
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Error("getwd", "err", err)
		return 1
	}

	cfg, err := config.Load(wd, *configPath, config.Config{
		DBPath:      *dbPath,
		BlockSize:   blockSize,
		CacheBlocks: numBuffers,
		Verbose:     *verbose,
	}, config.HasOverrides{
		DBPath:      *dbPath != "",
		BlockSize:   true,
		CacheBlocks: true,
		Verbose:     *verbose,
	})
	if err != nil {
		log.Error("config", "err", err)
		return 1
	}

	if cfg.Verbose {
		log.SetHandler(log15.LvlFilterHandler(log15.LvlDebug, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
	} else {
		log.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
	}

	engine, fresh, err := openEngine(cfg)
	if err != nil {
		log.Error("open engine", "path", cfg.DBPath, "err", err)
		return 1
	}
	log.Info("engine ready", "path", cfg.DBPath, "fresh", fresh, "buffers", cfg.CacheBlocks, "block_size", cfg.BlockSize)

	defer func() {
		if err := engine.Close(); err != nil {
			log.Error("close engine", "err", err)
		}
	}()

	f, err := os.Open(cmdFile)
	if err != nil {
		log.Error("open command file", "path", cmdFile, "err", err)
		return 1
	}
	defer f.Close()

	return runCommands(f, os.Stdout, engine)
}

func openEngine(cfg config.Config) (e *store.Engine, fresh bool, err error) {
	if _, statErr := os.Stat(cfg.DBPath); os.IsNotExist(statErr) {
		e, err = store.Create(cfg.DBPath, store.Options{BlockSize: cfg.BlockSize, CacheBlocks: cfg.CacheBlocks})
		return e, true, err
	}
	e, err = store.Open(cfg.DBPath, store.Options{BlockSize: cfg.BlockSize, CacheBlocks: cfg.CacheBlocks})
	return e, false, err
}
