package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/config"
	"github.com/bijoor/site-tour-tools/internal/exchange"
	"github.com/bijoor/site-tour-tools/internal/observability"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

var version = "dev"

// app carries what every command needs once PersistentPreRunE has run
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

func newApp(out io.Writer) *app {
	return &app{v: viper.New(), out: out, log: zap.NewNop()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tourplay",
		Short:         "Play, validate and convert site tours drawn over a floor plan",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.Prepare(a.v, a.cfgFile)
			if err := config.Read(a.v); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := observability.Initialize(cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = logger
			a.log.Debug("configuration loaded", zap.String("file", a.v.ConfigFileUsed()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./tourplay.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	a.bind(root.PersistentFlags(), "logger.level", "log-level")

	root.AddCommand(
		newValidateCmd(a),
		newExportCmd(a),
		newNewCmd(a),
		newBranchesCmd(a),
		newPlayCmd(a),
		newServeCmd(a),
	)
	return root
}

// bind routes a flag into the configuration key it overrides
func (a *app) bind(flags *pflag.FlagSet, key, name string) {
	if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind %s: %v", name, err))
	}
}

// printf writes console output; playback callbacks call it from the
// driver goroutine
func (a *app) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// loadTour reads the named file, or the newest tour in the tours
// directory when no file is given.
func (a *app) loadTour(args []string) (*tour.Tour, string, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		latest, err := exchange.FindLatestTour(a.cfg.Tours.Dir)
		if err != nil {
			return nil, "", fmt.Errorf("%w. Put a tour file in %s/", err, a.cfg.Tours.Dir)
		}
		path = latest
		a.printf("[*] Selected tour: %s\n", path)
	}
	t, err := exchange.ReadFile(path)
	if err != nil {
		return nil, path, err
	}
	for _, w := range exchange.Warnings(&t.Graph) {
		a.printf("[!] %v\n", w)
	}
	return t, path, nil
}
