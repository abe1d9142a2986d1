// Command voxlogica is a thin CLI exercising the reduce → schedule → goal
// pipeline end to end. The full CLI/HTTP surface is out of scope; this
// exists to run a program from the command line and to emit its task graph
// for inspection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voxlogica-project/voxlogica-core/internal/config"
	"github.com/voxlogica-project/voxlogica-core/internal/goals"
	"github.com/voxlogica-project/voxlogica-core/internal/metrics"
	"github.com/voxlogica-project/voxlogica-core/internal/parser"
	"github.com/voxlogica-project/voxlogica-core/internal/reduce"
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/scheduler"
	"github.com/voxlogica-project/voxlogica-core/internal/stdlib/datasetns"
	"github.com/voxlogica-project/voxlogica-core/internal/stdlib/defaultns"
	"github.com/voxlogica-project/voxlogica-core/internal/store"
)

var (
	cfgFile   string
	saveGraph string
	v         = viper.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "voxlogica",
		Short: "Reduce and execute ImgQL programs",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.voxlogica.yaml)")
	config.RegisterFlags(root, v)

	runCmd := &cobra.Command{
		Use:   "run <file.imgql>",
		Short: "Reduce and execute a single ImgQL program",
		Args:  cobra.ExactArgs(1),
		RunE:  runProgram,
	}
	runCmd.Flags().StringVar(&saveGraph, "save-graph", "", "write the reduced task graph to this path (.json or .dot)")

	root.AddCommand(runCmd)
	return root
}

func runProgram(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	prog, err := parser.Parse(string(source))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	reg := registry.New()
	if err := defaultns.Register(reg); err != nil {
		return fmt.Errorf("registering default namespace: %w", err)
	}
	if err := datasetns.Register(reg); err != nil {
		return fmt.Errorf("registering dataset namespace: %w", err)
	}

	wp, err := reduce.New(reg).ReduceProgram(prog)
	if err != nil {
		return fmt.Errorf("reducing %s: %w", args[0], err)
	}

	if saveGraph != "" {
		if err := writeGraph(wp, saveGraph); err != nil {
			return fmt.Errorf("saving task graph: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	st, err := store.Open(cfg.StorePath, cfg.InMemoryCacheSoftCap)
	if err != nil {
		return fmt.Errorf("opening store %s: %w", cfg.StorePath, err)
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sched := scheduler.New(reg, st, cfg.WorkerPoolSize, metrics.New(""))
	results, err := sched.Run(ctx, wp)
	if err != nil {
		return fmt.Errorf("executing %s: %w", args[0], err)
	}

	return goals.New().Run(wp, results, os.Stdout)
}

// writeGraph serializes wp to path, choosing JSON or DOT by extension.
func writeGraph(wp interface {
	MarshalJSON() ([]byte, error)
	DOT() string
}, path string,
) error {
	if strings.HasSuffix(path, ".dot") {
		return os.WriteFile(path, []byte(wp.DOT()), 0o644)
	}
	data, err := wp.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}
