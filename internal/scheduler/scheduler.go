// Package scheduler owns the per-campaign timers. Each running campaign has
// exactly one timer goroutine: it fires a posting task once at start, then a
// commenting task on every tick. The registry is the in-process source of
// truth for timers; the datastore run flag is what survives restarts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cloutfarm/internal/logging"
	"cloutfarm/internal/randx"
	"cloutfarm/internal/store"
	"cloutfarm/internal/types"
)

const (
	liveTickInterval = 5 * time.Minute
	simTickInterval  = 30 * time.Second

	// extraPostChance is the probability of a second post per tick in
	// simulation mode, to make simulated timelines less metronomic.
	extraPostChance = 0.30
)

// Pipeline is the slice of the engine the scheduler drives.
type Pipeline interface {
	CreatePost(ctx context.Context, campaignID string) (*types.Post, error)
	CreateComments(ctx context.Context, campaignID string) ([]*types.Comment, error)
}

type timerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler starts, stops, and recovers campaign timers.
type Scheduler struct {
	store    *store.Store
	pipeline Pipeline
	rng      randx.Source

	// baseCtx scopes task execution to process lifetime. Stopping one
	// campaign only stops its ticker; a task already running completes.
	baseCtx context.Context

	liveInterval time.Duration
	simInterval  time.Duration

	mu     sync.Mutex
	timers map[string]*timerHandle
}

// New creates a scheduler. baseCtx bounds all task execution; cancel it to
// abort in-flight work at process shutdown.
func New(baseCtx context.Context, st *store.Store, pipeline Pipeline, rng randx.Source) *Scheduler {
	if rng == nil {
		rng = randx.Default()
	}
	return &Scheduler{
		store:        st,
		pipeline:     pipeline,
		rng:          rng,
		baseCtx:      baseCtx,
		liveInterval: liveTickInterval,
		simInterval:  simTickInterval,
		timers:       make(map[string]*timerHandle),
	}
}

// StartCampaign marks the campaign running and launches its timer. Starting
// an already-running campaign is a no-op; there is never more than one timer
// per campaign.
func (s *Scheduler) StartCampaign(campaignID string, simulationMode bool) error {
	if _, err := s.store.GetCampaign(campaignID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("campaign %s not found", campaignID)
		}
		return fmt.Errorf("failed to load campaign: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.timers[campaignID]; running {
		logging.Scheduler("campaign %s already has a timer, ignoring start", campaignID)
		return nil
	}

	if err := s.store.UpdateCampaignRunState(campaignID, true, simulationMode); err != nil {
		return fmt.Errorf("failed to persist run state: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &timerHandle{cancel: cancel, done: make(chan struct{})}
	s.timers[campaignID] = handle

	go s.run(ctx, campaignID, simulationMode, handle.done)
	logging.Scheduler("started campaign %s (simulation=%v)", campaignID, simulationMode)
	return nil
}

// StopCampaign cancels the campaign's timer, waits for the loop to wind
// down, and clears the persisted run flag. Stopping a campaign without a
// timer still clears the flag, which covers stale flags after a crash.
func (s *Scheduler) StopCampaign(campaignID string) error {
	s.mu.Lock()
	handle, ok := s.timers[campaignID]
	if ok {
		delete(s.timers, campaignID)
	}
	s.mu.Unlock()

	if ok {
		handle.cancel()
		<-handle.done
	}

	if err := s.store.UpdateCampaignRunning(campaignID, false); err != nil {
		return fmt.Errorf("failed to clear run state: %w", err)
	}
	logging.Scheduler("stopped campaign %s (had timer: %v)", campaignID, ok)
	return nil
}

// Status reports the persisted run state alongside whether this process
// holds the campaign's timer. The two disagree after a restart until
// Recover runs.
func (s *Scheduler) Status(campaignID string) (*types.CampaignStatus, error) {
	campaign, err := s.store.GetCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	s.mu.Lock()
	_, hasTimer := s.timers[campaignID]
	s.mu.Unlock()

	return &types.CampaignStatus{
		IsRunning:      campaign.IsRunning,
		SimulationMode: campaign.SimulationMode,
		HasLocalTimer:  hasTimer,
	}, nil
}

// Recover restarts timers for every campaign the datastore still marks as
// running. Called once at process startup.
func (s *Scheduler) Recover() error {
	campaigns, err := s.store.ListRunningCampaigns()
	if err != nil {
		return fmt.Errorf("failed to list running campaigns: %w", err)
	}

	var g errgroup.Group
	for _, c := range campaigns {
		c := c
		g.Go(func() error {
			return s.StartCampaign(c.ID, c.SimulationMode)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}
	logging.Scheduler("recovered %d running campaigns", len(campaigns))
	return nil
}

// Shutdown stops every timer and waits for their loops to exit. Persisted
// run flags are left set so Recover picks the campaigns back up.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	handles := make([]*timerHandle, 0, len(s.timers))
	for id, h := range s.timers {
		handles = append(handles, h)
		delete(s.timers, id)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.cancel()
		<-h.done
	}
	logging.Scheduler("scheduler shut down, %d timers stopped", len(handles))
}

// run is the per-campaign timer loop. The posting task fires once right
// away; every tick after that runs a commenting cycle.
func (s *Scheduler) run(ctx context.Context, campaignID string, simulationMode bool, done chan struct{}) {
	defer close(done)

	interval := s.liveInterval
	if simulationMode {
		interval = s.simInterval
	}

	s.dispatch(task{kind: taskPost, campaignID: campaignID})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.baseCtx.Done():
			return
		case <-ticker.C:
			s.tick(campaignID, simulationMode)
		}
	}
}
