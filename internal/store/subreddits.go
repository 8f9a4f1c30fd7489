package store

import (
	"fmt"
	"time"

	"cloutfarm/internal/types"

	"github.com/google/uuid"
)

// CreateSubredditApproval inserts a campaign-scoped subreddit suggestion.
// Status defaults to pending.
func (s *Store) CreateSubredditApproval(a *types.SubredditApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = types.ApprovalPending
	}

	_, err := s.db.Exec(`
		INSERT INTO subreddit_approvals (id, campaign_id, subreddit, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.CampaignID, a.Subreddit, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subreddit approval: %w", err)
	}
	return nil
}

// UpdateSubredditApprovalStatus sets the human-decided status.
func (s *Store) UpdateSubredditApprovalStatus(campaignID, subreddit, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE subreddit_approvals SET status = ? WHERE campaign_id = ? AND subreddit = ?`,
		status, campaignID, subreddit,
	)
	if err != nil {
		return fmt.Errorf("failed to update subreddit approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subreddit approval %s/%s: %w", campaignID, subreddit, ErrNotFound)
	}
	return nil
}

// ApprovedSubreddits returns the names of the campaign's approved subreddits.
func (s *Store) ApprovedSubreddits(campaignID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryIDs(
		`SELECT subreddit FROM subreddit_approvals WHERE campaign_id = ? AND status = ? ORDER BY subreddit`,
		campaignID, types.ApprovalApproved,
	)
}
