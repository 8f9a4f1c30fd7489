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

// CreateAccount inserts a social account record.
func (s *Store) CreateAccount(a *types.SocialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = types.AccountActive
	}

	persona, err := encodePersona(a.Persona)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO accounts (id, platform, username, credential, status, persona, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Platform), a.Username, a.Credential, a.Status, persona, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	logging.Accounts("created account %s (%s on %s)", a.ID, a.Username, a.Platform)
	return nil
}

const accountColumns = `id, platform, username, credential, status, persona, created_at`

// GetAccount loads an account by id. Returns ErrNotFound if absent.
func (s *Store) GetAccount(id string) (*types.SocialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// ListActiveAccounts returns active accounts for a platform, excluding the
// given ids. Order is unspecified; callers pick randomly.
func (s *Store) ListActiveAccounts(platform types.Platform, excludeIDs []string) ([]*types.SocialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE platform = ? AND status = ?`
	args := []interface{}{string(platform), types.AccountActive}
	if len(excludeIDs) > 0 {
		query += ` AND id NOT IN (` + placeholders(len(excludeIDs)) + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []*types.SocialAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAccountPersona backfills an account's persona in place.
func (s *Store) UpdateAccountPersona(id string, p *types.PersonaTraits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	persona, err := encodePersona(p)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE accounts SET persona = ? WHERE id = ?`, persona, id)
	if err != nil {
		return fmt.Errorf("failed to update persona: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return nil
}

func encodePersona(p *types.PersonaTraits) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode persona: %w", err)
	}
	return string(data), nil
}

func scanAccount(row rowScanner) (*types.SocialAccount, error) {
	var (
		a        types.SocialAccount
		platform string
		persona  sql.NullString
	)
	err := row.Scan(&a.ID, &platform, &a.Username, &a.Credential, &a.Status, &persona, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Platform = types.Platform(platform)
	if persona.Valid && persona.String != "" && persona.String != "null" {
		var p types.PersonaTraits
		if err := json.Unmarshal([]byte(persona.String), &p); err != nil {
			return nil, fmt.Errorf("failed to decode persona: %w", err)
		}
		a.Persona = &p
	}
	return &a, nil
}
