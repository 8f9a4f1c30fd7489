// Package platform holds the per-platform strategy handlers. Each platform
// implements one capability interface: resolving a posting context, building
// generation prompts, and materializing simulated or live records.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloutfarm/internal/randx"
	"cloutfarm/internal/store"
	"cloutfarm/internal/types"
)

// ErrNoAvailableTarget is the benign "nothing to post to" outcome, e.g. no
// approved subreddit below its limit. Callers skip the platform, they do not
// fail the run.
var ErrNoAvailableTarget = errors.New("no available posting target")

// Publisher is the slice of the browser-automation collaborator handlers
// need for live records.
type Publisher interface {
	PublishPost(ctx context.Context, account *types.SocialAccount, target, content string) (string, error)
	PublishComment(ctx context.Context, account *types.SocialAccount, postRef, content, parentRef string) (string, error)
}

// PostContext is the resolved destination for a new post.
type PostContext struct {
	Subreddit string // reddit only
	TargetURL string // everywhere else
}

// Handler is the capability interface implemented once per platform.
type Handler interface {
	Platform() types.Platform

	// GetContext resolves where the next post goes. Returns
	// ErrNoAvailableTarget (possibly wrapped) when the platform has nowhere
	// to post right now.
	GetContext(campaign *types.Campaign) (*PostContext, error)

	// BuildPrompt combines network style rules with the account persona into
	// a generation prompt for a post.
	BuildPrompt(campaign *types.Campaign, account *types.SocialAccount, pctx *PostContext) (systemPrompt, userPrompt string)

	// BuildCommentPrompt does the same for a comment; parent is nil for
	// top-level comments.
	BuildCommentPrompt(campaign *types.Campaign, account *types.SocialAccount, post *types.Post, parent *types.Comment) (systemPrompt, userPrompt string)

	// CreateSimulated builds a datastore-only post with synthetic engagement.
	CreateSimulated(campaign *types.Campaign, account *types.SocialAccount, pctx *PostContext, content string) *types.Post

	// CreateLive publishes through the browser collaborator and builds the
	// resulting record.
	CreateLive(ctx context.Context, campaign *types.Campaign, account *types.SocialAccount, pctx *PostContext, content string) (*types.Post, error)

	// CreateSimulatedComment builds a datastore-only comment with a synthetic
	// sentiment score and engagement metrics.
	CreateSimulatedComment(post *types.Post, account *types.SocialAccount, content string, parentID *string) *types.Comment

	// CreateLiveComment publishes a comment through the browser collaborator.
	CreateLiveComment(ctx context.Context, post *types.Post, account *types.SocialAccount, content string, parentID *string, parentRef string) (*types.Comment, error)
}

// Env carries the shared collaborators every handler uses.
type Env struct {
	Store     *store.Store
	Publisher Publisher
	Rand      randx.Source
}

// Registry maps platforms to their handlers.
type Registry struct {
	handlers map[types.Platform]Handler
}

// NewRegistry builds a handler for every known platform. A platform added to
// types.AllPlatforms without a handler here fails loudly at construction.
func NewRegistry(env Env) *Registry {
	r := &Registry{handlers: make(map[types.Platform]Handler)}
	for _, p := range types.AllPlatforms {
		r.handlers[p] = newHandler(p, env)
	}
	return r
}

func newHandler(p types.Platform, env Env) Handler {
	switch p {
	case types.PlatformReddit:
		return newRedditHandler(env)
	case types.PlatformLinkedIn:
		return newLinkedInHandler(env)
	case types.PlatformX:
		return newXHandler(env)
	case types.PlatformTikTok:
		return newTikTokHandler(env)
	default:
		panic(fmt.Sprintf("no handler registered for platform %q", p))
	}
}

// ForPlatform returns the handler for p, or a validation error for an
// unrecognized platform.
func (r *Registry) ForPlatform(p types.Platform) (Handler, error) {
	h, ok := r.handlers[p]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", p)
	}
	return h, nil
}

// describePersona renders persona traits into prompt instructions.
func describePersona(p *types.PersonaTraits) string {
	if p == nil {
		return "Write as an ordinary community member."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You write in a %s style with a %s tone. ", p.WritingStyle, p.Tone)
	fmt.Fprintf(&b, "Keep responses %s. ", p.ResponseLength)
	fmt.Fprintf(&b, "Your engagement style: %s. ", p.EngagementStyle)
	if len(p.Quirks) > 0 {
		fmt.Fprintf(&b, "Quirks: %s. ", strings.Join(p.Quirks, "; "))
	}
	if len(p.Expertise) > 0 {
		fmt.Fprintf(&b, "You know a lot about %s.", strings.Join(p.Expertise, " and "))
	}
	return b.String()
}
