// Package config defines spec.md §6's three component configs —
// MempoolConfig, BroadcastConfig, and TemplateConfig — plus a CLI loader
// for the optional cmd/taricore front door, grounded on the teacher's
// `mining/simulator/config.go` (a flat go-flags struct with a
// defaultHomeDir-derived log path) and `kasparov/kasparovd/config`
// (a parser wrapping multiple embedded flag groups, resolved via a single
// Parse entry point).
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

const (
	defaultLogFilename    = "taricore.log"
	defaultErrLogFilename = "taricore_err.log"

	// DefaultMinRelayFee is the minimum per-transaction fee MempoolStore
	// accepts ahead of the consensus manager's own minimum (spec.md §4.1).
	DefaultMinRelayFee = uint64(1000)

	// DefaultBroadcastTimeout is BroadcastProtocol's submission/query
	// re-poll interval (spec.md §4.4).
	DefaultBroadcastTimeout = 5 * time.Second

	// DefaultTemplateTTL is TemplateRepository's retention window
	// (spec.md §4.5), mirroring template.DefaultTTL.
	DefaultTemplateTTL = 20 * time.Minute
)

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".taricore")
}

// MempoolConfig configures MempoolStore (spec.md §4.1/§6).
type MempoolConfig struct {
	MinRelayFee uint64 `long:"minrelayfee" description:"Minimum per-transaction fee accepted into the mempool"`
	StorageDir  string `long:"mempool-storage-dir" description:"Directory for the mempool's crash-recovery tables"`
}

// BroadcastConfig configures BroadcastProtocol (spec.md §4.4/§6).
type BroadcastConfig struct {
	Timeout time.Duration `long:"broadcast-timeout" description:"Submission/query re-poll interval"`
}

// TemplateConfig configures TemplateRepository (spec.md §4.5/§6).
type TemplateConfig struct {
	TTL time.Duration `long:"template-ttl" description:"Block template retention window before eviction"`
}

// Config is the full CLI configuration for cmd/taricore.
type Config struct {
	Mempool   MempoolConfig   `group:"Mempool"`
	Broadcast BroadcastConfig `group:"Broadcast"`
	Template  TemplateConfig  `group:"Template"`

	HomeDir    string `long:"homedir" description:"Application data directory"`
	LogFile    string `long:"logfile" description:"Path to the log file"`
	ErrLogFile string `long:"errlogfile" description:"Path to the error log file"`
	DebugLevel string `long:"debuglevel" description:"Logging level specification (e.g. debug or MEMP=debug,BCST=trace)"`

	BaseNodeAddress string `long:"basenode" description:"Address of the base node's gRPC endpoint" required:"true"`
}

// DefaultConfig returns a Config populated with spec.md's defaults, before
// CLI flags are parsed over it.
func DefaultConfig() *Config {
	home := defaultHomeDir()
	return &Config{
		Mempool: MempoolConfig{
			MinRelayFee: DefaultMinRelayFee,
			StorageDir:  filepath.Join(home, "mempool-storage"),
		},
		Broadcast: BroadcastConfig{Timeout: DefaultBroadcastTimeout},
		Template:  TemplateConfig{TTL: DefaultTemplateTTL},
		HomeDir:    home,
		LogFile:    filepath.Join(home, defaultLogFilename),
		ErrLogFile: filepath.Join(home, defaultErrLogFilename),
		DebugLevel: "info",
	}
}

// Parse parses CLI arguments over a DefaultConfig, mirroring the teacher's
// flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag) convention.
func Parse(args []string) (*Config, error) {
	cfg := DefaultConfig()
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
