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

// CreateComment inserts a comment record.
func (s *Store) CreateComment(c *types.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode comment metadata: %w", err)
	}

	var parent interface{}
	if c.ParentCommentID != nil {
		parent = *c.ParentCommentID
	}
	var sentiment interface{}
	if c.Sentiment != nil {
		sentiment = *c.Sentiment
	}

	_, err = s.db.Exec(`
		INSERT INTO comments (id, post_id, account_id, parent_comment_id, content, status, sentiment, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AccountID, parent, c.Content, c.Status, sentiment, string(meta), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	logging.StoreDebug("created comment %s on post %s", c.ID, c.PostID)
	return nil
}

const commentColumns = `id, post_id, account_id, parent_comment_id, content, status, sentiment, metadata, created_at`

// GetComment loads a comment by id. Returns ErrNotFound if absent.
func (s *Store) GetComment(id string) (*types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListCommentsByPost returns all comments on a post, oldest first.
func (s *Store) ListCommentsByPost(postID string) ([]*types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryComments(`SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY created_at`, postID)
}

// TopLevelComments returns the post's root comments (no parent), oldest first.
func (s *Store) TopLevelComments(postID string) ([]*types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryComments(
		`SELECT `+commentColumns+` FROM comments WHERE post_id = ? AND parent_comment_id IS NULL ORDER BY created_at`,
		postID,
	)
}

// CommentAuthorIDs returns the distinct account ids that already commented on
// a post. Feeds the allocator exclude-set.
func (s *Store) CommentAuthorIDs(postID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryIDs(`SELECT DISTINCT account_id FROM comments WHERE post_id = ?`, postID)
}

// ReplyAuthorIDs returns the distinct account ids that already replied under
// the given comment.
func (s *Store) ReplyAuthorIDs(parentCommentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryIDs(`SELECT DISTINCT account_id FROM comments WHERE parent_comment_id = ?`, parentCommentID)
}

// LatestCommentTime returns the creation time of the campaign's newest
// comment across all its posts. The second return is false when none exist.
func (s *Store) LatestCommentTime(campaignID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t time.Time
	err := s.db.QueryRow(`
		SELECT c.created_at FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE p.campaign_id = ?
		ORDER BY c.created_at DESC LIMIT 1`,
		campaignID,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest comment time: %w", err)
	}
	return t, true, nil
}

func (s *Store) queryComments(query string, args ...interface{}) ([]*types.Comment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var out []*types.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) queryIDs(query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanComment(row rowScanner) (*types.Comment, error) {
	var (
		c         types.Comment
		parent    sql.NullString
		sentiment sql.NullFloat64
		meta      sql.NullString
	)
	err := row.Scan(&c.ID, &c.PostID, &c.AccountID, &parent, &c.Content,
		&c.Status, &sentiment, &meta, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}
	if parent.Valid {
		v := parent.String
		c.ParentCommentID = &v
	}
	if sentiment.Valid {
		v := sentiment.Float64
		c.Sentiment = &v
	}
	if meta.Valid && meta.String != "" && meta.String != "null" {
		if err := json.Unmarshal([]byte(meta.String), &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode comment metadata: %w", err)
		}
	}
	return &c, nil
}
