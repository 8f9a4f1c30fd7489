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

const (
	// recentPostWindow bounds which posts receive new comments.
	recentPostWindow = time.Hour
	// maxPostsPerRun caps how many posts one commenting run touches.
	maxPostsPerRun = 5
	// threadedReplyChance is the probability a comment replies to an
	// existing top-level comment instead of the post.
	threadedReplyChance = 0.30
)

// Commenter runs the commenting pipeline for one campaign at a time.
type Commenter struct {
	store    *store.Store
	registry *platform.Registry
	accounts AccountAllocator
	gen      llm.Generator
	rng      randx.Source
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewCommenter wires a commenting pipeline.
func NewCommenter(st *store.Store, registry *platform.Registry, accounts AccountAllocator, gen llm.Generator, rng randx.Source) *Commenter {
	return &Commenter{
		store:    st,
		registry: registry,
		accounts: accounts,
		gen:      gen,
		rng:      rng,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CreateComments adds organic-looking comments to the campaign's recent
// posts. Each touched post receives 2 to 4 comments from accounts that have
// not engaged with it yet, paced 500 to 1000ms apart. Live campaigns must be
// inside their date window, and each individual comment must clear the
// minimum reply interval. A single comment failing is logged and skipped;
// the allocator coming up empty aborts the rest of that post. Returns the
// comments that were created.
func (c *Commenter) CreateComments(ctx context.Context, campaignID string) ([]*types.Comment, error) {
	campaign, err := c.store.GetCampaign(campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ValidationError{Msg: fmt.Sprintf("campaign %s not found", campaignID)}
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	if !campaign.SimulationMode {
		if err := checkCampaignWindow(campaign, c.now().UTC()); err != nil {
			return nil, err
		}
	}

	cutoff := c.now().UTC().Add(-recentPostWindow)
	posts, err := c.store.RecentPosts(campaignID, cutoff, maxPostsPerRun)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}
	if len(posts) == 0 {
		logging.CommentingDebug("campaign %s has no recent posts to comment on", campaignID)
		return nil, nil
	}

	var created []*types.Comment
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		comments, err := c.commentOnPost(ctx, campaign, post)
		created = append(created, comments...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return created, err
			}
			logging.CommentingWarn("post %s: %v", post.ID, err)
		}
	}
	logging.Commenting("campaign %s: created %d comments across %d posts", campaignID, len(created), len(posts))
	return created, nil
}

// checkReplyInterval enforces the live-mode minimum interval since the
// campaign's previous comment. Checked per comment, so each comment written
// in a batch gates the ones after it.
func (c *Commenter) checkReplyInterval(campaign *types.Campaign) error {
	if campaign.MinReplyIntervalHours <= 0 {
		return nil
	}
	last, ok, err := c.store.LatestCommentTime(campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to read latest comment time: %w", err)
	}
	if !ok {
		return nil
	}
	minGap := time.Duration(campaign.MinReplyIntervalHours * float64(time.Hour))
	if elapsed := c.now().UTC().Sub(last); elapsed < minGap {
		return &WindowConstraintViolation{Msg: fmt.Sprintf(
			"minimum reply interval not elapsed: %s of %s", elapsed.Round(time.Second), minGap)}
	}
	return nil
}

// commentOnPost adds the per-post batch. The post is re-fetched first since
// it may have been deleted between the listing and now.
func (c *Commenter) commentOnPost(ctx context.Context, campaign *types.Campaign, listed *types.Post) ([]*types.Comment, error) {
	post, err := c.store.GetPost(listed.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logging.CommentingDebug("post %s disappeared before commenting, skipping", listed.ID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}

	handler, err := c.registry.ForPlatform(post.Platform)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	excluded, err := c.store.CommentAuthorIDs(post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment authors: %w", err)
	}
	excluded = append(excluded, post.AccountID)

	batch := 2 + c.rng.Intn(3)
	var created []*types.Comment
	for i := 0; i < batch; i++ {
		if i > 0 {
			pace := time.Duration(500+c.rng.Intn(501)) * time.Millisecond
			if err := c.sleep(ctx, pace); err != nil {
				return created, err
			}
		}

		comment, err := c.addComment(ctx, campaign, post, handler, excluded)
		if err != nil {
			var alloc *AllocationExhaustedError
			if errors.As(err, &alloc) {
				// Without a fresh account the remaining comments for this
				// post cannot be written either.
				return created, err
			}
			logging.CommentingWarn("comment %d/%d on post %s failed: %v", i+1, batch, post.ID, err)
			continue
		}
		created = append(created, comment)
		excluded = append(excluded, comment.AccountID)
	}
	return created, nil
}

// addComment writes one comment, threaded under an existing top-level
// comment roughly a third of the time.
func (c *Commenter) addComment(ctx context.Context, campaign *types.Campaign, post *types.Post, handler platform.Handler, excluded []string) (*types.Comment, error) {
	if !campaign.SimulationMode {
		if err := c.checkReplyInterval(campaign); err != nil {
			return nil, err
		}
	}

	parent, err := c.pickParent(post)
	if err != nil {
		return nil, err
	}

	exclude := excluded
	if parent != nil {
		replyAuthors, err := c.store.ReplyAuthorIDs(parent.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load reply authors: %w", err)
		}
		exclude = append(append([]string{}, excluded...), replyAuthors...)
	}

	account, err := c.accounts.GetRandomAccount(post.Platform, exclude)
	if err != nil {
		return nil, &AllocationExhaustedError{Platform: post.Platform, Err: err}
	}

	system, user := handler.BuildCommentPrompt(campaign, account, post, parent)
	content, err := c.gen.Generate(ctx, system, user)
	if err != nil {
		return nil, &ExternalServiceError{Service: "content generation", Err: err}
	}

	var parentID *string
	var parentRef string
	if parent != nil {
		if parent.PostID != post.ID {
			return nil, &ValidationError{Msg: fmt.Sprintf(
				"parent comment %s belongs to post %s, not %s", parent.ID, parent.PostID, post.ID)}
		}
		parentID = &parent.ID
		parentRef = parent.Metadata["platform_id"]
	}

	var comment *types.Comment
	if campaign.SimulationMode {
		comment = handler.CreateSimulatedComment(post, account, content, parentID)
	} else {
		comment, err = handler.CreateLiveComment(ctx, post, account, content, parentID, parentRef)
		if err != nil {
			return nil, &ExternalServiceError{Service: "browser publish", Err: err}
		}
	}

	if err := c.store.CreateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to persist comment: %w", err)
	}
	logging.CommentingDebug("created comment %s on post %s (threaded=%v)", comment.ID, post.ID, parentID != nil)
	return comment, nil
}

// pickParent returns a random existing top-level comment with probability
// threadedReplyChance, nil otherwise.
func (c *Commenter) pickParent(post *types.Post) (*types.Comment, error) {
	if c.rng.Float64() >= threadedReplyChance {
		return nil, nil
	}
	roots, err := c.store.TopLevelComments(post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load top-level comments: %w", err)
	}
	if len(roots) == 0 {
		return nil, nil
	}
	return roots[c.rng.Intn(len(roots))], nil
}
