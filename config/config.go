// config loads the node configuration from a JSON file and validates it
// before anything starts.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

type Configurable interface {
	Check() error
}

// Load decodes a JSON configuration file and runs its Check.
func Load[T Configurable](path string) (*T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open configuration file: %v", err)
	}
	defer file.Close()
	var config T
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("could not parse configuration file: %v", err)
	}
	if err := config.Check(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	return &config, nil
}

// Config is the winsome node configuration.
type Config struct {
	// Listen is the address of the binary protocol listener.
	Listen string
	// SideChannel is the address of the registration/notification listener.
	SideChannel string
	// Multicast is the UDP group for wallet update pings, advertised to
	// clients at login.
	Multicast string
	// Workers is the size of the request worker pool; zero means one per
	// available CPU.
	Workers int
	// QueueDepth bounds the worker queue; submissions block past it.
	QueueDepth int
	// RewardIntervalSeconds is the period of the reward engine.
	RewardIntervalSeconds int
	// AuthorPercent is the share of each reward kept by the post author,
	// in percent.
	AuthorPercent float64
	// DataPath is the sqlite file holding persisted state.
	DataPath string
	// SaveIntervalSeconds is the period of the state saver.
	SaveIntervalSeconds int
}

func Default() Config {
	return Config{
		Listen:                "0.0.0.0:6789",
		SideChannel:           "0.0.0.0:6790",
		Multicast:             "239.255.32.32:44444",
		Workers:               runtime.NumCPU(),
		QueueDepth:            128,
		RewardIntervalSeconds: 60,
		AuthorPercent:         70,
		DataPath:              "winsome.db",
		SaveIntervalSeconds:   120,
	}
}

func (c Config) Check() error {
	if c.Listen == "" || c.SideChannel == "" {
		return fmt.Errorf("listen and side channel addresses are required")
	}
	if c.Multicast == "" {
		return fmt.Errorf("multicast group is required")
	}
	if c.Workers < 0 || c.QueueDepth < 0 {
		return fmt.Errorf("worker pool sizing cannot be negative")
	}
	if c.RewardIntervalSeconds <= 0 {
		return fmt.Errorf("reward interval must be positive")
	}
	if c.AuthorPercent <= 0 || c.AuthorPercent > 100 {
		return fmt.Errorf("author percent must be in (0, 100]")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data path is required")
	}
	if c.SaveIntervalSeconds <= 0 {
		return fmt.Errorf("save interval must be positive")
	}
	return nil
}
