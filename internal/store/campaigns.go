package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cloutfarm/internal/logging"
	"cloutfarm/internal/types"

	"github.com/google/uuid"
)

// CreateCampaign inserts a campaign. A missing ID or CreatedAt is filled in.
func (s *Store) CreateCampaign(c *types.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	platforms, err := json.Marshal(c.Platforms)
	if err != nil {
		return fmt.Errorf("failed to encode platforms: %w", err)
	}
	quotas, err := json.Marshal(c.PostQuotas)
	if err != nil {
		return fmt.Errorf("failed to encode post quotas: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO campaigns (
			id, name, platforms, post_quotas, posts_per_subreddit,
			min_post_interval_hours, max_post_interval_hours,
			min_reply_interval_hours, max_reply_interval_hours,
			start_date, end_date, topic, target_url, style_notes,
			is_running, simulation_mode, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(platforms), string(quotas), c.PostsPerSubreddit,
		c.MinPostIntervalHours, c.MaxPostIntervalHours,
		c.MinReplyIntervalHours, c.MaxReplyIntervalHours,
		nullTime(c.StartDate), nullTime(c.EndDate),
		c.Topic, c.TargetURL, c.StyleNotes,
		c.IsRunning, c.SimulationMode, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	logging.StoreDebug("created campaign %s (%s)", c.ID, c.Name)
	return nil
}

const campaignColumns = `
	id, name, platforms, post_quotas, posts_per_subreddit,
	min_post_interval_hours, max_post_interval_hours,
	min_reply_interval_hours, max_reply_interval_hours,
	start_date, end_date, topic, target_url, style_notes,
	is_running, simulation_mode, created_at`

// GetCampaign loads a campaign by id. Returns ErrNotFound if absent.
func (s *Store) GetCampaign(id string) (*types.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT`+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	return scanCampaign(row)
}

// UpdateCampaignRunState persists the scheduler-owned run-state flags.
func (s *Store) UpdateCampaignRunState(id string, isRunning, simulationMode bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE campaigns SET is_running = ?, simulation_mode = ? WHERE id = ?`,
		isRunning, simulationMode, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateCampaignRunning flips only the is_running flag. The persisted
// simulation mode is left alone so a stopped campaign restarts in the mode
// it last ran with.
func (s *Store) UpdateCampaignRunning(id string, isRunning bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE campaigns SET is_running = ? WHERE id = ?`, isRunning, id)
	if err != nil {
		return fmt.Errorf("failed to update running flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListRunningCampaigns returns campaigns whose persisted is_running flag is
// set, in creation order. Used by scheduler recovery at process start.
func (s *Store) ListRunningCampaigns() ([]*types.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT` + campaignColumns + ` FROM campaigns WHERE is_running = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list running campaigns: %w", err)
	}
	defer rows.Close()

	var out []*types.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*types.Campaign, error) {
	var (
		c                  types.Campaign
		platforms, quotas  sql.NullString
		startDate, endDate sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Name, &platforms, &quotas, &c.PostsPerSubreddit,
		&c.MinPostIntervalHours, &c.MaxPostIntervalHours,
		&c.MinReplyIntervalHours, &c.MaxReplyIntervalHours,
		&startDate, &endDate, &c.Topic, &c.TargetURL, &c.StyleNotes,
		&c.IsRunning, &c.SimulationMode, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}

	if platforms.Valid && platforms.String != "" {
		if err := json.Unmarshal([]byte(platforms.String), &c.Platforms); err != nil {
			return nil, fmt.Errorf("failed to decode platforms: %w", err)
		}
	}
	if quotas.Valid && quotas.String != "" && quotas.String != "null" {
		if err := json.Unmarshal([]byte(quotas.String), &c.PostQuotas); err != nil {
			return nil, fmt.Errorf("failed to decode post quotas: %w", err)
		}
	}
	if startDate.Valid {
		t := startDate.Time
		c.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		c.EndDate = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
