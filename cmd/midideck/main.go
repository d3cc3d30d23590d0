package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/logrusorgru/aurora"

	"midideck/internal/pkg/actions"
	"midideck/internal/pkg/frontmost"
	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/midi"
	"midideck/internal/pkg/notify"
	"midideck/internal/pkg/prefs"
	"midideck/internal/pkg/router"
)

var log = logger.GetLogger()

var (
	nocolor  = flag.Bool("nocolor", false, "disable color")
	silent   = flag.Bool("silent", false, "no output logging, best performance")
	logLevel = flag.Int("loglevel", 4,
		"logging level, each level enables additional information class (0-5, default: 4)\n"+
			"\navailable options:\n"+
			"0: errors\n"+
			"1: warnings\n"+
			"2: general info (device appearance, recompilations)\n"+
			"3: action events (dispatched actions, bank switches)\n"+
			"4: matched midi events\n"+
			"5: unbound midi events\n"+
			"99: debug",
	)
)

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func()) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		counter++
	}
}

func main() {
	flag.Parse()

	err := createConfigDirectoryIfNeeded()
	if err != nil {
		panic(err)
	}

	var cfg = LoadConfig(configDir + "/midideck.config")
	log.Info(fmt.Sprintf("midideck config: %+v", cfg), logger.Debug)

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	wg := sync.WaitGroup{}
	wg.Add(1)
	go handleSigs(&wg, sigs, cancel)

	go func() {
		if *silent {
			for range logger.Messages {
			}
			return
		}
		au := aurora.NewAurora(!*nocolor)
		for data := range logger.Messages {
			msg, err := unpack(data)
			if err != nil {
				fmt.Printf("%s\n", string(data))
				continue
			}
			m := prepareString(msg, au, *logLevel)
			if m != "" {
				fmt.Printf("%s\n", m)
			}
		}
	}()

	store, err := prefs.Open(cfg.PreferencesDir)
	if err != nil {
		log.Info(fmt.Sprintf("cannot open preferences: %v", err), logger.Error)
		os.Exit(1)
	}

	ports := midi.NewRegistry()
	ports.Refresh()
	for _, name := range cfg.VirtualPorts {
		if err := ports.OpenVirtual(name); err != nil {
			log.Info(fmt.Sprintf("virtual port skipped: %v", err), logger.Warning)
		}
	}

	registry := actions.NewRegistry()
	registry.Register("shellScript", &actions.ShellHandler{})
	appleScript := &actions.AppleScriptHandler{}
	if appleScript.IsSupported() {
		registry.Register("appleScript", appleScript)
	}

	r := router.New(store, ports, registry, router.Config{
		MaxBanks:         cfg.MaxBanks,
		QueueSize:        cfg.QueueSize,
		LoupedeckEnabled: cfg.LoupedeckEnabled,
		Frontmost:        frontmost.BundleID,
		Notify:           notify.Display,
	})

	if err := router.MigrateLegacyControls(store); err != nil {
		log.Info(fmt.Sprintf("legacy migration failed: %v", err), logger.Warning)
	}
	if err := r.Compile(); err != nil {
		log.Info(fmt.Sprintf("initial compilation failed: %v", err), logger.Error)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.DiscoveryRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.DevicesChanged()
			}
		}
	}()

	// blocks until the context is cancelled
	r.Run(ctx)

	r.Stop()
	ports.Close()
	close(sigs)

	// closing logger can be safely invoked only when all internally running
	// goroutines (that may emit logs) are done
	wg.Wait()
	close(logger.Messages)
}
