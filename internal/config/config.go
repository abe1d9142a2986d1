// Package config loads the EngineConfig that wires together the store,
// scheduler and registry: built-in defaults, overridden by a YAML file
// (viper, in the pack's eve/sage-adk style), overridden by VOXLOGICA_-
// prefixed environment variables, overridden by CLI flags bound through
// cobra/pflag. Precedence increases in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EngineConfig holds every tunable the engine needs to run a program: where
// the durable store lives, how much parallelism the Scheduler is allowed,
// and how many hot nodes the Store's in-memory cache holds. QueueDepth and
// NamespacePaths are loaded like the other fields, but no package in this
// module reads them: nothing bounds a queue by QueueDepth and no namespace
// is loaded from NamespacePaths.
type EngineConfig struct {
	StorePath            string   `mapstructure:"store_path"`
	WorkerPoolSize       int      `mapstructure:"worker_pool_size"`
	QueueDepth           int      `mapstructure:"queue_depth"`
	InMemoryCacheSoftCap int      `mapstructure:"cache_soft_cap"`
	NamespacePaths       []string `mapstructure:"namespace_paths"`
}

// defaultStorePath returns ~/.voxlogica/store.db, falling back to a
// relative path if the home directory can't be resolved.
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".voxlogica", "store.db")
	}
	return filepath.Join(home, ".voxlogica", "store.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store_path", defaultStorePath())
	v.SetDefault("worker_pool_size", 0)
	v.SetDefault("queue_depth", 1024)
	v.SetDefault("cache_soft_cap", 512)
	v.SetDefault("namespace_paths", []string{})
}

// Load builds an EngineConfig from built-in defaults, an optional YAML file
// (cfgFile, or $HOME/.voxlogica.yaml / ./.voxlogica.yaml if cfgFile is
// empty), VOXLOGICA_-prefixed environment variables, and flags already
// bound to v via BindPFlags/BindPFlag (e.g. by RegisterFlags below).
func Load(v *viper.Viper, cfgFile string) (*EngineConfig, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".voxlogica")
	}

	v.SetEnvPrefix("voxlogica")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &EngineConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = runtime.NumCPU()
	}
	return cfg, nil
}

// RegisterFlags defines --store, --workers, --queue-depth, --cache-soft-cap
// and --namespace-path on cmd's persistent flags and binds them into v,
// following the cli package's BindPFlag pattern so flags take precedence
// over the config file and environment.
func RegisterFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("store", "", "path to the durable node store (default $HOME/.voxlogica/store.db)")
	flags.Int("workers", 0, "worker pool size (default runtime.NumCPU())")
	flags.Int("queue-depth", 0, "pending-expansion queue depth")
	flags.Int("cache-soft-cap", 0, "in-memory node cache soft cap")
	flags.StringSlice("namespace-path", nil, "search path for dynamically-loadable namespace plugins")

	_ = v.BindPFlag("store_path", flags.Lookup("store"))
	_ = v.BindPFlag("worker_pool_size", flags.Lookup("workers"))
	_ = v.BindPFlag("queue_depth", flags.Lookup("queue-depth"))
	_ = v.BindPFlag("cache_soft_cap", flags.Lookup("cache-soft-cap"))
	_ = v.BindPFlag("namespace_paths", flags.Lookup("namespace-path"))
}
