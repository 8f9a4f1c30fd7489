// Package accounts selects or lazily provisions the social accounts that
// author posts and comments.
package accounts

import (
	"fmt"

	"cloutfarm/internal/logging"
	"cloutfarm/internal/persona"
	"cloutfarm/internal/randx"
	"cloutfarm/internal/store"
	"cloutfarm/internal/types"
)

// Allocator hands out identities for a platform. It never reports
// "no account found": when the pool is empty it provisions a new
// simulated-only account on the spot.
type Allocator struct {
	store    *store.Store
	personas *persona.Generator
	rng      randx.Source
}

// NewAllocator creates an allocator.
func NewAllocator(st *store.Store, personas *persona.Generator, rng randx.Source) *Allocator {
	return &Allocator{store: st, personas: personas, rng: rng}
}

// GetRandomAccount returns a uniformly random active account for the
// platform, never one whose id is in excludeIDs. If no candidate exists, a
// fresh account is provisioned with a generated username, a simulated-only
// credential marker, and a new persona. A selected account missing a persona
// gets one backfilled before it is returned.
func (a *Allocator) GetRandomAccount(platform types.Platform, excludeIDs []string) (*types.SocialAccount, error) {
	candidates, err := a.store.ListActiveAccounts(platform, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for %s: %w", platform, err)
	}

	if len(candidates) == 0 {
		return a.provision(platform)
	}

	account := candidates[a.rng.Intn(len(candidates))]
	if account.Persona == nil {
		traits := a.personas.Generate()
		if err := a.store.UpdateAccountPersona(account.ID, traits); err != nil {
			return nil, fmt.Errorf("failed to backfill persona for %s: %w", account.ID, err)
		}
		account.Persona = traits
		logging.Accounts("backfilled persona for account %s", account.ID)
	}
	return account, nil
}

// provision creates a brand-new simulated-only account.
func (a *Allocator) provision(platform types.Platform) (*types.SocialAccount, error) {
	account := &types.SocialAccount{
		Platform:   platform,
		Username:   a.synthUsername(platform),
		Credential: types.SimulatedCredential,
		Status:     types.AccountActive,
		Persona:    a.personas.Generate(),
	}
	if err := a.store.CreateAccount(account); err != nil {
		return nil, fmt.Errorf("failed to provision account on %s: %w", platform, err)
	}
	logging.Accounts("provisioned account %s on %s", account.Username, platform)
	return account, nil
}

var usernameAdjectives = []string{
	"quiet", "sunny", "brisk", "mellow", "stray", "lucky", "late", "odd",
}

var usernameNouns = []string{
	"falcon", "harbor", "ember", "willow", "comet", "drift", "ridge", "lantern",
}

func (a *Allocator) synthUsername(platform types.Platform) string {
	adj := usernameAdjectives[a.rng.Intn(len(usernameAdjectives))]
	noun := usernameNouns[a.rng.Intn(len(usernameNouns))]
	return fmt.Sprintf("%s_%s_%02d", adj, noun, a.rng.Intn(100))
}
