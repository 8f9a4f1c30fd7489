package platform

import (
	"fmt"

	"cloutfarm/internal/logging"
	"cloutfarm/internal/types"
)

// redditHandler gates posting on approved subreddits and per-subreddit caps.
type redditHandler struct {
	baseHandler
}

func newRedditHandler(env Env) *redditHandler {
	return &redditHandler{baseHandler{
		env:      env,
		platform: types.PlatformReddit,
		styleRules: "Write like a reddit regular. Lowercase is fine, no hashtags, " +
			"no corporate voice. Redditors downvote anything that smells like marketing.",
		engagement: engagementRange{likes: 400, shares: 40, views: 8000},
	}}
}

// GetContext picks a random approved subreddit that still has capacity under
// the campaign's per-subreddit cap. Every subreddit being full, or none being
// approved, is a benign no-target outcome.
func (h *redditHandler) GetContext(campaign *types.Campaign) (*PostContext, error) {
	approved, err := h.env.Store.ApprovedSubreddits(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved subreddits: %w", err)
	}
	if len(approved) == 0 {
		return nil, fmt.Errorf("no approved subreddits for campaign %s: %w", campaign.ID, ErrNoAvailableTarget)
	}

	var eligible []string
	for _, sub := range approved {
		if campaign.PostsPerSubreddit > 0 {
			count, err := h.env.Store.CountPostsBySubreddit(campaign.ID, sub)
			if err != nil {
				return nil, fmt.Errorf("failed to count posts in r/%s: %w", sub, err)
			}
			if count >= campaign.PostsPerSubreddit {
				logging.PostingDebug("r/%s is at its cap (%d), skipping", sub, campaign.PostsPerSubreddit)
				continue
			}
		}
		eligible = append(eligible, sub)
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("all approved subreddits are at their cap: %w", ErrNoAvailableTarget)
	}

	return &PostContext{Subreddit: eligible[h.env.Rand.Intn(len(eligible))]}, nil
}
