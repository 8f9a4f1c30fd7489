// Package types holds the shared domain model: campaigns, posts, comments,
// social accounts, personas, and subreddit approvals.
package types

import (
	"time"
)

// Platform identifies a social network a campaign can act on.
type Platform string

const (
	PlatformReddit   Platform = "reddit"
	PlatformLinkedIn Platform = "linkedin"
	PlatformX        Platform = "x"
	PlatformTikTok   Platform = "tiktok"
)

// AllPlatforms lists every platform a handler must exist for.
var AllPlatforms = []Platform{PlatformReddit, PlatformLinkedIn, PlatformX, PlatformTikTok}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformReddit, PlatformLinkedIn, PlatformX, PlatformTikTok:
		return true
	}
	return false
}

// Content status vocabulary. A record is "simulated" when it only exists in
// the datastore and "posted" once it has been published externally.
const (
	StatusSimulated = "simulated"
	StatusPosted    = "posted"
)

// Subreddit approval status vocabulary.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Account status vocabulary.
const (
	AccountActive   = "active"
	AccountInactive = "inactive"
)

// SimulatedCredential marks auto-provisioned accounts that carry no real
// platform credentials and must never be used for live publishing.
const SimulatedCredential = "simulated:no-credentials"

// Campaign is the unit of scheduling. Platforms are tried in random order on
// each posting tick; quotas and intervals bound how much the campaign acts.
type Campaign struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Platforms         []Platform       `json:"platforms"`
	PostQuotas        map[Platform]int `json:"post_quotas"` // 0 or absent = unlimited
	PostsPerSubreddit int              `json:"posts_per_subreddit"`

	MinPostIntervalHours  float64 `json:"min_post_interval_hours"`
	MaxPostIntervalHours  float64 `json:"max_post_interval_hours"`
	MinReplyIntervalHours float64 `json:"min_reply_interval_hours"`
	MaxReplyIntervalHours float64 `json:"max_reply_interval_hours"`

	// Live window. Nil means unbounded on that side.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// Seed context fed into content generation.
	Topic      string `json:"topic"`
	TargetURL  string `json:"target_url"`
	StyleNotes string `json:"style_notes"`

	IsRunning      bool      `json:"is_running"`
	SimulationMode bool      `json:"simulation_mode"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostQuota returns the configured quota for a platform (0 = unlimited).
func (c *Campaign) PostQuota(p Platform) int {
	if c.PostQuotas == nil {
		return 0
	}
	return c.PostQuotas[p]
}

// Post is one manufactured piece of top-level content.
type Post struct {
	ID         string            `json:"id"`
	CampaignID string            `json:"campaign_id"`
	Platform   Platform          `json:"platform"`
	Subreddit  string            `json:"subreddit,omitempty"`
	AccountID  string            `json:"account_id"`
	Content    string            `json:"content"`
	Status     string            `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Comment is a reply to a post, optionally threaded under another comment.
// ParentCommentID nil means top-level. A parent must belong to the same post.
type Comment struct {
	ID              string            `json:"id"`
	PostID          string            `json:"post_id"`
	AccountID       string            `json:"account_id"`
	ParentCommentID *string           `json:"parent_comment_id,omitempty"`
	Content         string            `json:"content"`
	Status          string            `json:"status"`
	Sentiment       *float64          `json:"sentiment,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// PersonaTraits is the randomly sampled stylistic profile attached to an
// account. Fields are drawn independently; cross-field coherence is not a
// goal.
type PersonaTraits struct {
	WritingStyle    string   `json:"writing_style"`
	ResponseLength  string   `json:"response_length"`
	Tone            string   `json:"tone"`
	Quirks          []string `json:"quirks"`
	Expertise       []string `json:"expertise"`
	EngagementStyle string   `json:"engagement_style"`
}

// SocialAccount is an identity the engine authors content through.
type SocialAccount struct {
	ID         string         `json:"id"`
	Platform   Platform       `json:"platform"`
	Username   string         `json:"username"`
	Credential string         `json:"credential"`
	Status     string         `json:"status"`
	Persona    *PersonaTraits `json:"persona,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// IsSimulatedOnly reports whether the account was auto-provisioned without
// real credentials.
func (a *SocialAccount) IsSimulatedOnly() bool {
	return a.Credential == SimulatedCredential
}

// SubredditApproval is a campaign-scoped suggestion with a human-set status
// gating whether that community may be posted to.
type SubredditApproval struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Subreddit  string    `json:"subreddit"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CampaignStatus is the scheduler-facing view of a campaign's run state.
// HasLocalTimer is process-local and can diverge from the persisted flag
// after a crash, until Recover rebuilds the timer.
type CampaignStatus struct {
	IsRunning      bool `json:"is_running"`
	SimulationMode bool `json:"simulation_mode"`
	HasLocalTimer  bool `json:"has_local_timer"`
}
