package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"

	"midideck/internal/pkg/logger"
)

type MidideckConfig struct {
	MaxBanks       int
	QueueSize      int
	DiscoveryRate  time.Duration
	PreferencesDir string

	LoupedeckEnabled bool
	VirtualPorts     []string
}

func LoadConfig(path string) MidideckConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		panic(err)
	}

	var c MidideckConfig

	// [midideck]
	main, _ := cfg.GetSection("midideck")
	maxBanks, _ := main.GetKey("max_banks")
	i, err := maxBanks.Int()
	if err != nil {
		panic(err)
	}
	c.MaxBanks = i

	queueSize, _ := main.GetKey("queue_size")
	i, err = queueSize.Int()
	if err != nil {
		panic(err)
	}
	c.QueueSize = i

	discoveryRate, _ := main.GetKey("discovery_rate")
	i, err = discoveryRate.Int()
	if err != nil {
		panic(err)
	}
	c.DiscoveryRate = time.Second / time.Duration(i)

	prefsDir, _ := main.GetKey("preferences_dir")
	c.PreferencesDir = prefsDir.String()
	if c.PreferencesDir == "" {
		c.PreferencesDir = filepath.Join(configDir, "preferences")
	}

	// [loupedeck]
	loupedeck, _ := cfg.GetSection("loupedeck")
	enabled, _ := loupedeck.GetKey("enabled")
	b, err := enabled.Bool()
	if err != nil {
		panic(err)
	}
	c.LoupedeckEnabled = b

	// [virtual]
	virtual, _ := cfg.GetSection("virtual")
	ports, _ := virtual.GetKey("ports")
	for _, name := range strings.Split(ports.String(), ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			c.VirtualPorts = append(c.VirtualPorts, name)
		}
	}

	return c
}

//go:embed midideck-config/midideck.config
var templateConfig embed.FS

const configDir = "midideck-config"

// createConfigDirectoryIfNeeded generates the config tree on first run.
// An existing midideck.config stays intact.
func createConfigDirectoryIfNeeded() error {
	cdir, err := os.OpenFile(configDir, os.O_RDONLY, 0)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot open config directory: %v", err)
		}
		log.Info("config not exist, generating tree...", logger.Info)

		err = fs.WalkDir(templateConfig, configDir, func(path string, d fs.DirEntry, err error) error {
			if d.IsDir() {
				err := os.Mkdir(path, 0o777)
				if err != nil {
					return fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
				}
				return nil
			}

			data, err := fs.ReadFile(templateConfig, path)
			if err != nil {
				return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
			}

			err = os.WriteFile(path, data, 0o666)
			if err != nil {
				return fmt.Errorf("cannot write data into \"%s\" file: %w", path, err)
			}

			log.Info(fmt.Sprintf("Created \"%s\" file", path), logger.Debug)
			return nil
		})

		if err != nil {
			panic(err)
		}
		log.Info("config generation done", logger.Info)
	} else {
		cdir.Close()
	}
	return nil
}
