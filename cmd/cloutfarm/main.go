package main

import (
	"cloutfarm/internal/accounts"
	"cloutfarm/internal/browser"
	"cloutfarm/internal/config"
	"cloutfarm/internal/engine"
	"cloutfarm/internal/llm"
	"cloutfarm/internal/logging"
	"cloutfarm/internal/persona"
	"cloutfarm/internal/platform"
	"cloutfarm/internal/randx"
	"cloutfarm/internal/scheduler"
	"cloutfarm/internal/store"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cloutfarm",
	Short: "cloutfarm - automated social media campaign engine",
	Long: `cloutfarm runs automated posting and commenting campaigns across
reddit, LinkedIn, X, and TikTok.

Campaigns run in simulation mode (records only, fast ticks) or live mode
(real browser publishing, slow ticks with posting windows and intervals).
Content is generated per-account with persistent personas so output stays
varied across a campaign.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "cloutfarm.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(deletePostCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(deleteCampaignCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(approveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired subsystems behind a command.
type app struct {
	cfg       *config.Config
	store     *store.Store
	publisher *browser.Publisher
	svc       *engine.Service
	sched     *scheduler.Scheduler

	// runCtx is cancelled on SIGINT/SIGTERM.
	runCtx context.Context
	cancel context.CancelFunc
}

// newApp loads config and wires the engine. needLLM gates the Gemini client
// so record-only commands work without an API key.
func newApp(needLLM bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logging.Initialize(cfg.DataDir)
	logging.Configure(logging.Settings{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	})

	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var gen llm.Generator
	if needLLM {
		if err := cfg.Validate(); err != nil {
			cancel()
			st.Close()
			return nil, err
		}
		gen, err = llm.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.GetLLMTimeout())
		if err != nil {
			cancel()
			st.Close()
			return nil, err
		}
	}

	pub := browser.NewPublisher(browser.Config{
		Headless:            cfg.Browser.Headless,
		Bin:                 cfg.Browser.Bin,
		NavigationTimeoutMs: cfg.Browser.NavigationTimeoutMs,
	})

	rng := randx.Default()
	alloc := accounts.NewAllocator(st, persona.NewGenerator(rng), rng)
	registry := platform.NewRegistry(platform.Env{Store: st, Publisher: pub, Rand: rng})
	svc := engine.NewService(engine.Config{
		Store:     st,
		Registry:  registry,
		Accounts:  alloc,
		Generator: gen,
		Rand:      rng,
	})

	return &app{
		cfg:       cfg,
		store:     st,
		publisher: pub,
		svc:       svc,
		sched:     scheduler.New(ctx, st, svc, rng),
		runCtx:    ctx,
		cancel:    cancel,
	}, nil
}

func (a *app) close() {
	a.sched.Shutdown()
	if err := a.publisher.Shutdown(); err != nil {
		logger.Warn("browser shutdown failed", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("store close failed", zap.Error(err))
	}
	logging.CloseAll()
	a.cancel()
}
