package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/umpk80/umpk80"
)

// devMode runs the trainer and reloads the monitor ROM, and its symbol
// file if any, whenever they change on disk. With useDebugger set the
// debugger takes over the terminal and receives the log.
func devMode(opts umpk80.RunnerOptions, romFile, symFile string, useDebugger bool) error {
	romFile = filepath.Clean(romFile)
	if symFile != "" {
		symFile = filepath.Clean(symFile)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	dirs := map[string]bool{filepath.Dir(romFile): true}
	if symFile != "" {
		dirs[filepath.Dir(symFile)] = true
	}
	for dir := range dirs {
		if err := watcher.Watch(dir); err != nil {
			return err
		}
	}

	opts.Dev = true
	opts.Config.Trace = func(e umpk80.Event) { log.Printf("trace: %v", e) }

	var debug *debugger
	if useDebugger {
		debug = newDebugger()
		opts.State = debug.StateFunc
	}
	runner := umpk80.NewRunner(opts)
	if debug != nil {
		debug.run = runner
		log.SetPrefix("")
		log.SetOutput(debug.log)
		go func() {
			if err := debug.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("umpk80: ")
			runner.Debug("exit", 0)
		}()
	}

	romCh := make(chan []byte)
	go func() {
		started := false
		run := time.After(1 * time.Millisecond)
		for {
			select {
			case <-run:
				log.Printf("dev: load %s", filepath.Base(romFile))
				rom, err := os.ReadFile(romFile)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				if symFile != "" && debug != nil {
					syms, err := parseSymbols(symFile)
					if err != nil {
						log.Printf("dev: reading symbols: %v", err)
						break
					}
					debug.setSymbols(syms)
				}
				if !started {
					log.Printf("dev: start")
					romCh <- rom
					started = true
				} else {
					log.Printf("dev: reset")
					runner.Swap(rom)
				}
			case ev := <-watcher.Event:
				if (ev.Name == romFile || ev.Name == symFile) && !ev.IsAttrib() {
					run = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()
	err = runner.Run(<-romCh)
	if debug != nil {
		debug.app.Stop()
	}
	if err != nil {
		return fmt.Errorf("dev: %v", err)
	}
	return nil
}
