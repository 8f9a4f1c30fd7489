package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloutfarm/internal/logging"
	"cloutfarm/internal/types"

	"github.com/google/uuid"
)

// CreatePost inserts a post record.
func (s *Store) CreatePost(p *types.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode post metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO posts (id, campaign_id, platform, subreddit, account_id, content, status, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CampaignID, string(p.Platform), p.Subreddit, p.AccountID,
		p.Content, p.Status, string(meta), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	logging.StoreDebug("created post %s on %s for campaign %s", p.ID, p.Platform, p.CampaignID)
	return nil
}

const postColumns = `id, campaign_id, platform, subreddit, account_id, content, status, metadata, created_at`

// GetPost loads a post by id. Returns ErrNotFound if absent.
func (s *Store) GetPost(id string) (*types.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// CountPostsByPlatform counts a campaign's posts on one platform.
// Feeds the platform quota check; see the package note on the quota race.
func (s *Store) CountPostsByPlatform(campaignID string, platform types.Platform) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM posts WHERE campaign_id = ? AND platform = ?`,
		campaignID, string(platform),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts by platform: %w", err)
	}
	return n, nil
}

// CountPostsBySubreddit counts a campaign's posts into one subreddit.
func (s *Store) CountPostsBySubreddit(campaignID, subreddit string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM posts WHERE campaign_id = ? AND subreddit = ?`,
		campaignID, subreddit,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts by subreddit: %w", err)
	}
	return n, nil
}

// LatestPostTime returns the creation time of the campaign's newest post.
// The second return is false when the campaign has no posts yet.
func (s *Store) LatestPostTime(campaignID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t time.Time
	err := s.db.QueryRow(
		`SELECT created_at FROM posts WHERE campaign_id = ? ORDER BY created_at DESC LIMIT 1`,
		campaignID,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest post time: %w", err)
	}
	return t, true, nil
}

// RecentPosts returns up to limit posts created after the cutoff, newest
// first, restricted to the persisted status vocabulary.
func (s *Store) RecentPosts(campaignID string, cutoff time.Time, limit int) ([]*types.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+postColumns+` FROM posts
		WHERE campaign_id = ? AND created_at >= ? AND status IN (?, ?)
		ORDER BY created_at DESC LIMIT ?`,
		campaignID, cutoff, types.StatusSimulated, types.StatusPosted, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent posts: %w", err)
	}
	defer rows.Close()

	var out []*types.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPostsByCampaign returns all posts for a campaign, newest first.
func (s *Store) ListPostsByCampaign(campaignID string) ([]*types.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT `+postColumns+` FROM posts WHERE campaign_id = ? ORDER BY created_at DESC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var out []*types.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPost(row rowScanner) (*types.Post, error) {
	var (
		p         types.Post
		platform  string
		subreddit sql.NullString
		meta      sql.NullString
	)
	err := row.Scan(&p.ID, &p.CampaignID, &platform, &subreddit, &p.AccountID,
		&p.Content, &p.Status, &meta, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	p.Platform = types.Platform(platform)
	if subreddit.Valid {
		p.Subreddit = subreddit.String
	}
	if meta.Valid && meta.String != "" && meta.String != "null" {
		if err := json.Unmarshal([]byte(meta.String), &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode post metadata: %w", err)
		}
	}
	return &p, nil
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
