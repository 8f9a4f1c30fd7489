package main

import (
	"fmt"

	"cloutfarm/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startLive bool

// runCmd runs the engine daemon, recovering every campaign the datastore
// marks as running.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the campaign engine until interrupted",
	Long: `Starts the engine, recovers timers for every campaign whose run flag
is set, and keeps posting and commenting until SIGINT/SIGTERM.

Logging settings are hot-reloaded when the config file changes.`,
	RunE: runEngine,
}

// startCmd starts one campaign and keeps its timer running in the foreground.
var startCmd = &cobra.Command{
	Use:   "start [campaign-id]",
	Short: "Start a campaign and run it until interrupted",
	Long: `Marks the campaign running and drives its timer in this process.
Campaigns run in simulation mode unless --live is given.

The run flag persists, so a later "cloutfarm run" resumes the campaign.`,
	Args: cobra.ExactArgs(1),
	RunE: startCampaign,
}

// stopCmd clears a campaign's run flag.
var stopCmd = &cobra.Command{
	Use:   "stop [campaign-id]",
	Short: "Stop a campaign",
	Long: `Cancels the campaign's timer if this process holds it and clears the
persisted run flag so no engine process resumes the campaign on recovery.`,
	Args: cobra.ExactArgs(1),
	RunE: stopCampaign,
}

// statusCmd reports a campaign's run state.
var statusCmd = &cobra.Command{
	Use:   "status [campaign-id]",
	Short: "Show a campaign's run state",
	Args:  cobra.ExactArgs(1),
	RunE:  campaignStatus,
}

func init() {
	startCmd.Flags().BoolVar(&startLive, "live", false, "publish for real instead of simulating")
}

func runEngine(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	watcher, err := config.NewWatcher(cfgPath)
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else if err := watcher.Start(); err != nil {
		logger.Warn("config watcher failed to start", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	if err := a.sched.Recover(); err != nil {
		return err
	}

	logger.Info("engine running", zap.String("db", a.cfg.Store.DatabasePath))
	<-a.runCtx.Done()
	logger.Info("shutting down")
	return nil
}

func startCampaign(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	campaignID := args[0]
	if err := a.sched.StartCampaign(campaignID, !startLive); err != nil {
		return err
	}

	mode := "simulation"
	if startLive {
		mode = "live"
	}
	logger.Info("campaign started", zap.String("campaign", campaignID), zap.String("mode", mode))
	fmt.Printf("Campaign %s running in %s mode. Ctrl-C to stop the timer (run flag stays set).\n", campaignID, mode)
	<-a.runCtx.Done()
	return nil
}

func stopCampaign(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	campaignID := args[0]
	if err := a.sched.StopCampaign(campaignID); err != nil {
		return err
	}
	fmt.Printf("Campaign %s stopped.\n", campaignID)
	return nil
}

func campaignStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.sched.Status(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("running:      %v\n", status.IsRunning)
	fmt.Printf("simulation:   %v\n", status.SimulationMode)
	fmt.Printf("local timer:  %v\n", status.HasLocalTimer)
	return nil
}
