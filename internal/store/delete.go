package store

import (
	"fmt"

	"cloutfarm/internal/logging"
)

// Deletions are the one place this store uses explicit transactions: a post
// and its comment tree go together or not at all.

// DeletePost removes a post and all of its comments. The campaign id must
// match, so a caller holding a stale id cannot delete across campaigns.
func (s *Store) DeletePost(postID, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM posts WHERE id = ? AND campaign_id = ?`, postID, campaignID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post %s in campaign %s: %w", postID, campaignID, ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM comments WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("failed to delete post comments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit post delete: %w", err)
	}
	logging.Store("deleted post %s and its comments", postID)
	return nil
}

// DeleteAllPostsInCampaign removes every post of a campaign together with
// their comments. Returns the number of posts removed.
func (s *Store) DeleteAllPostsInCampaign(campaignID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE campaign_id = ?)`,
		campaignID,
	); err != nil {
		return 0, fmt.Errorf("failed to delete campaign comments: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM posts WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete campaign posts: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit campaign post delete: %w", err)
	}
	logging.Store("deleted %d posts for campaign %s", n, campaignID)
	return int(n), nil
}

// DeleteCampaign cascades a full campaign delete: comments, posts, subreddit
// approvals, then the campaign row itself.
func (s *Store) DeleteCampaign(campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE campaign_id = ?)`,
		campaignID,
	); err != nil {
		return fmt.Errorf("failed to delete campaign comments: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM posts WHERE campaign_id = ?`, campaignID); err != nil {
		return fmt.Errorf("failed to delete campaign posts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM subreddit_approvals WHERE campaign_id = ?`, campaignID); err != nil {
		return fmt.Errorf("failed to delete subreddit approvals: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM campaigns WHERE id = ?`, campaignID)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign delete: %w", err)
	}
	logging.Store("deleted campaign %s (cascade)", campaignID)
	return nil
}
