// Package engine implements the posting and commenting pipelines and the
// service facade over them. The pipelines own the business rules: windows and
// intervals, quotas, platform fallback, and comment pacing. Platform-specific
// behavior is delegated to the platform handlers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloutfarm/internal/llm"
	"cloutfarm/internal/logging"
	"cloutfarm/internal/platform"
	"cloutfarm/internal/randx"
	"cloutfarm/internal/store"
	"cloutfarm/internal/types"
)

// AccountAllocator is the slice of the account layer the pipelines use.
type AccountAllocator interface {
	GetRandomAccount(p types.Platform, excludeIDs []string) (*types.SocialAccount, error)
}

// Poster runs the posting pipeline for one campaign at a time.
type Poster struct {
	store    *store.Store
	registry *platform.Registry
	accounts AccountAllocator
	gen      llm.Generator
	rng      randx.Source
	now      func() time.Time
}

// NewPoster wires a posting pipeline.
func NewPoster(st *store.Store, registry *platform.Registry, accounts AccountAllocator, gen llm.Generator, rng randx.Source) *Poster {
	return &Poster{
		store:    st,
		registry: registry,
		accounts: accounts,
		gen:      gen,
		rng:      rng,
		now:      time.Now,
	}
}

// CreatePost attempts one post for the campaign. Platforms are tried in a
// uniformly shuffled order and the first success wins. Quota exhaustion and
// missing targets are benign skips; if every platform is skipped benignly the
// result is (nil, nil). If no platform succeeds and at least one failed for
// real, the per-platform failures are aggregated into the returned error.
func (p *Poster) CreatePost(ctx context.Context, campaignID string) (*types.Post, error) {
	campaign, err := p.store.GetCampaign(campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ValidationError{Msg: fmt.Sprintf("campaign %s not found", campaignID)}
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if len(campaign.Platforms) == 0 {
		return nil, &ValidationError{Msg: fmt.Sprintf("campaign %s has no platforms configured", campaignID)}
	}

	if !campaign.SimulationMode {
		if err := p.checkPostWindow(campaign); err != nil {
			return nil, err
		}
	}

	failures := make(map[types.Platform]error)
	for _, idx := range p.rng.Perm(len(campaign.Platforms)) {
		plat := campaign.Platforms[idx]
		post, err := p.tryPlatform(ctx, campaign, plat)
		if err == nil {
			return post, nil
		}
		if isBenignSkip(err) {
			logging.PostingDebug("skipping %s for campaign %s: %v", plat, campaignID, err)
			continue
		}
		logging.PostingWarn("platform %s failed for campaign %s: %v", plat, campaignID, err)
		failures[plat] = err
	}

	if len(failures) == 0 {
		logging.Posting("campaign %s: nothing to post, all platforms skipped", campaignID)
		return nil, nil
	}
	return nil, &PostingFailedError{Failures: failures}
}

// checkCampaignWindow rejects live activity outside the campaign's date
// range. Shared by both pipelines.
func checkCampaignWindow(campaign *types.Campaign, now time.Time) error {
	if campaign.StartDate != nil && now.Before(*campaign.StartDate) {
		return &WindowConstraintViolation{Msg: fmt.Sprintf("campaign %s has not started yet", campaign.ID)}
	}
	if campaign.EndDate != nil && now.After(*campaign.EndDate) {
		return &WindowConstraintViolation{Msg: fmt.Sprintf("campaign %s has ended", campaign.ID)}
	}
	return nil
}

// checkPostWindow enforces the live-mode date window and minimum interval
// since the previous post.
func (p *Poster) checkPostWindow(campaign *types.Campaign) error {
	now := p.now().UTC()
	if err := checkCampaignWindow(campaign, now); err != nil {
		return err
	}

	if campaign.MinPostIntervalHours > 0 {
		last, ok, err := p.store.LatestPostTime(campaign.ID)
		if err != nil {
			return fmt.Errorf("failed to read latest post time: %w", err)
		}
		if ok {
			minGap := time.Duration(campaign.MinPostIntervalHours * float64(time.Hour))
			if elapsed := now.Sub(last); elapsed < minGap {
				return &WindowConstraintViolation{Msg: fmt.Sprintf(
					"minimum post interval not elapsed: %s of %s", elapsed.Round(time.Second), minGap)}
			}
		}
	}
	return nil
}

// tryPlatform runs the full single-platform path: quota, context, account,
// content, record.
func (p *Poster) tryPlatform(ctx context.Context, campaign *types.Campaign, plat types.Platform) (*types.Post, error) {
	handler, err := p.registry.ForPlatform(plat)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	if quota := campaign.PostQuota(plat); quota > 0 {
		count, err := p.store.CountPostsByPlatform(campaign.ID, plat)
		if err != nil {
			return nil, fmt.Errorf("failed to count posts on %s: %w", plat, err)
		}
		if count >= quota {
			return nil, &QuotaExhaustedError{Platform: plat, Quota: quota}
		}
	}

	pctx, err := handler.GetContext(campaign)
	if err != nil {
		return nil, err
	}

	account, err := p.accounts.GetRandomAccount(plat, nil)
	if err != nil {
		return nil, &AllocationExhaustedError{Platform: plat, Err: err}
	}

	system, user := handler.BuildPrompt(campaign, account, pctx)
	content, err := p.gen.Generate(ctx, system, user)
	if err != nil {
		return nil, &ExternalServiceError{Service: "content generation", Err: err}
	}

	var post *types.Post
	if campaign.SimulationMode {
		post = handler.CreateSimulated(campaign, account, pctx, content)
	} else {
		post, err = handler.CreateLive(ctx, campaign, account, pctx, content)
		if err != nil {
			return nil, &ExternalServiceError{Service: "browser publish", Err: err}
		}
	}

	if err := p.store.CreatePost(post); err != nil {
		return nil, fmt.Errorf("failed to persist post: %w", err)
	}
	logging.Posting("created %s post %s for campaign %s (status=%s)", plat, post.ID, campaign.ID, post.Status)
	return post, nil
}
