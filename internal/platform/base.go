package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloutfarm/internal/types"

	"github.com/google/uuid"
)

// engagementRange bounds the synthetic metrics attached to simulated records.
type engagementRange struct {
	likes  int
	shares int
	views  int
}

// baseHandler carries the behavior shared by every platform. Variants embed
// it and override what differs, mainly context resolution.
type baseHandler struct {
	env        Env
	platform   types.Platform
	styleRules string
	engagement engagementRange
}

func (h *baseHandler) Platform() types.Platform { return h.platform }

// GetContext for URL-driven platforms points at the campaign target.
func (h *baseHandler) GetContext(campaign *types.Campaign) (*PostContext, error) {
	return &PostContext{TargetURL: campaign.TargetURL}, nil
}

func (h *baseHandler) BuildPrompt(campaign *types.Campaign, account *types.SocialAccount, pctx *PostContext) (string, string) {
	system := describePersona(account.Persona) + "\n\n" + h.styleRules

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s post about: %s.\n", h.platform, campaign.Topic)
	if pctx.Subreddit != "" {
		fmt.Fprintf(&b, "It will be posted to r/%s, so fit that community.\n", pctx.Subreddit)
	}
	if pctx.TargetURL != "" {
		fmt.Fprintf(&b, "Work in a natural mention of %s.\n", pctx.TargetURL)
	}
	if campaign.StyleNotes != "" {
		fmt.Fprintf(&b, "Campaign style notes: %s\n", campaign.StyleNotes)
	}
	b.WriteString("Return only the post text, no preamble.")
	return system, b.String()
}

func (h *baseHandler) BuildCommentPrompt(campaign *types.Campaign, account *types.SocialAccount, post *types.Post, parent *types.Comment) (string, string) {
	system := describePersona(account.Persona) + "\n\n" + h.styleRules

	var b strings.Builder
	if parent != nil {
		fmt.Fprintf(&b, "You are replying to this comment:\n%s\n\n", parent.Content)
		fmt.Fprintf(&b, "It was left under this %s post:\n%s\n", h.platform, post.Content)
	} else {
		fmt.Fprintf(&b, "Write a comment on this %s post:\n%s\n", h.platform, post.Content)
	}
	fmt.Fprintf(&b, "\nThe broader discussion is about: %s.\n", campaign.Topic)
	b.WriteString("Sound like a real participant, not an advertisement. Return only the comment text.")
	return system, b.String()
}

func (h *baseHandler) CreateSimulated(campaign *types.Campaign, account *types.SocialAccount, pctx *PostContext, content string) *types.Post {
	return &types.Post{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		Platform:   h.platform,
		Subreddit:  pctx.Subreddit,
		AccountID:  account.ID,
		Content:    content,
		Status:     types.StatusSimulated,
		Metadata:   h.syntheticEngagement(),
		CreatedAt:  time.Now().UTC(),
	}
}

func (h *baseHandler) CreateLive(ctx context.Context, campaign *types.Campaign, account *types.SocialAccount, pctx *PostContext, content string) (*types.Post, error) {
	target := pctx.TargetURL
	if pctx.Subreddit != "" {
		target = pctx.Subreddit
	}
	platformID, err := h.env.Publisher.PublishPost(ctx, account, target, content)
	if err != nil {
		return nil, err
	}
	return &types.Post{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		Platform:   h.platform,
		Subreddit:  pctx.Subreddit,
		AccountID:  account.ID,
		Content:    content,
		Status:     types.StatusPosted,
		Metadata:   map[string]string{"platform_id": platformID},
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (h *baseHandler) CreateSimulatedComment(post *types.Post, account *types.SocialAccount, content string, parentID *string) *types.Comment {
	sentiment := h.env.Rand.Float64()*2 - 1
	return &types.Comment{
		ID:              uuid.NewString(),
		PostID:          post.ID,
		AccountID:       account.ID,
		ParentCommentID: parentID,
		Content:         content,
		Status:          types.StatusSimulated,
		Sentiment:       &sentiment,
		Metadata:        map[string]string{"likes": strconv.Itoa(h.env.Rand.Intn(h.engagement.likes + 1))},
		CreatedAt:       time.Now().UTC(),
	}
}

func (h *baseHandler) CreateLiveComment(ctx context.Context, post *types.Post, account *types.SocialAccount, content string, parentID *string, parentRef string) (*types.Comment, error) {
	postRef := post.Metadata["platform_id"]
	if postRef == "" {
		return nil, fmt.Errorf("post %s has no platform id to comment on", post.ID)
	}
	platformID, err := h.env.Publisher.PublishComment(ctx, account, postRef, content, parentRef)
	if err != nil {
		return nil, err
	}
	return &types.Comment{
		ID:              uuid.NewString(),
		PostID:          post.ID,
		AccountID:       account.ID,
		ParentCommentID: parentID,
		Content:         content,
		Status:          types.StatusPosted,
		Metadata:        map[string]string{"platform_id": platformID},
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (h *baseHandler) syntheticEngagement() map[string]string {
	return map[string]string{
		"likes":  strconv.Itoa(h.env.Rand.Intn(h.engagement.likes + 1)),
		"shares": strconv.Itoa(h.env.Rand.Intn(h.engagement.shares + 1)),
		"views":  strconv.Itoa(h.env.Rand.Intn(h.engagement.views + 1)),
	}
}
