package engine

import (
	"context"
	"fmt"

	"cloutfarm/internal/llm"
	"cloutfarm/internal/logging"
	"cloutfarm/internal/platform"
	"cloutfarm/internal/randx"
	"cloutfarm/internal/store"
	"cloutfarm/internal/types"
)

// Service is the facade the scheduler and the CLI talk to. It owns the two
// pipelines and forwards record management to the store.
type Service struct {
	store     *store.Store
	poster    *Poster
	commenter *Commenter
}

// Config collects the collaborators a Service needs.
type Config struct {
	Store     *store.Store
	Registry  *platform.Registry
	Accounts  AccountAllocator
	Generator llm.Generator
	Rand      randx.Source
}

// NewService wires the pipelines.
func NewService(cfg Config) *Service {
	rng := cfg.Rand
	if rng == nil {
		rng = randx.Default()
	}
	return &Service{
		store:     cfg.Store,
		poster:    NewPoster(cfg.Store, cfg.Registry, cfg.Accounts, cfg.Generator, rng),
		commenter: NewCommenter(cfg.Store, cfg.Registry, cfg.Accounts, cfg.Generator, rng),
	}
}

// CreatePost runs the posting pipeline once for the campaign.
func (s *Service) CreatePost(ctx context.Context, campaignID string) (*types.Post, error) {
	return s.poster.CreatePost(ctx, campaignID)
}

// CreateComments runs the commenting pipeline once for the campaign.
func (s *Service) CreateComments(ctx context.Context, campaignID string) ([]*types.Comment, error) {
	return s.commenter.CreateComments(ctx, campaignID)
}

// DeletePost removes one post and its comments in a single transaction. The
// campaign id guards against deleting another campaign's post.
func (s *Service) DeletePost(postID, campaignID string) error {
	if err := s.store.DeletePost(postID, campaignID); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", postID, err)
	}
	logging.Posting("deleted post %s from campaign %s", postID, campaignID)
	return nil
}

// DeleteAllPosts removes every post in the campaign, comments included,
// transactionally. Returns the number of posts removed.
func (s *Service) DeleteAllPosts(campaignID string) (int, error) {
	n, err := s.store.DeleteAllPostsInCampaign(campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete posts for campaign %s: %w", campaignID, err)
	}
	logging.Posting("deleted %d posts from campaign %s", n, campaignID)
	return n, nil
}
