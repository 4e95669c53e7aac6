package cli

import (
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rollcall-scores-go/config"
	"rollcall-scores-go/logging"
	"rollcall-scores-go/report"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	debug      bool

	namesFile  string
	count      int
	seed       uint64
	randomSeed bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "rollcall",
		Short:        "Sample students from a roster and print a score report",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Config{Debug: cfg.Logging.Debug, Quiet: true})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			seed := cfg.Report.Seed
			if cfg.Report.RandomSeed {
				seed = uint64(time.Now().UnixNano())
			}
			logger.Debug("Running score report",
				zap.String("names", cfg.Report.NamesFile), zap.Int("count", cfg.Report.Count), zap.Uint64("seed", seed))

			return report.Run(cmd.OutOrStdout(), report.Options{
				NamesFile: cfg.Report.NamesFile,
				Count:     cfg.Report.Count,
				Rand:      report.NewRand(seed),
				Logger:    logger,
			})
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "rollcall.yaml", "path to the YAML config file")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")

	fl := cmd.Flags()
	fl.StringVar(&f.namesFile, "names", "", "names file (whitespace separated, or .xlsx roster)")
	fl.IntVar(&f.count, "count", 0, "number of names to sample")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed")
	fl.BoolVar(&f.randomSeed, "random-seed", false, "seed from the clock instead of --seed")

	cmd.AddCommand(newServeCmd(f), newGuessCmd(f), newAskCmd(f), newConfigCmd(f))
	return cmd
}

// load reads the config file and lets explicitly set flags win over it.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("names") {
		cfg.Report.NamesFile = f.namesFile
	}
	if flags.Changed("count") {
		cfg.Report.Count = f.count
	}
	if flags.Changed("seed") {
		cfg.Report.Seed = f.seed
		cfg.Report.RandomSeed = false
	}
	if flags.Changed("random-seed") {
		cfg.Report.RandomSeed = f.randomSeed
	}
	if f.debug {
		cfg.Logging.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func clockRand() *rand.Rand {
	return report.NewRand(uint64(time.Now().UnixNano()))
}
