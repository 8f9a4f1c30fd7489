package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloutfarm/internal/types"

	"github.com/spf13/cobra"
)

var (
	seedName        string
	seedTopic       string
	seedTargetURL   string
	seedStyleNotes  string
	seedPlatforms   []string
	seedSubreddits  []string
	seedQuotas      []string
	seedPerSub      int
	seedMinPostHrs  float64
	seedMaxPostHrs  float64
	seedMinReplyHrs float64
	seedMaxReplyHrs float64
	seedStart       string
	seedEnd         string
)

// seedCmd creates a campaign.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a campaign",
	Long: `Creates a campaign record. Subreddits passed with --subreddit are
stored pre-approved; quotas are per-platform caps on total posts.

Example:
  cloutfarm seed --name launch --topic "self-hosted analytics" \
    --platform reddit --platform x \
    --subreddit selfhosted --subreddit analytics \
    --quota reddit=5 --quota x=10`,
	RunE: seedCampaign,
}

// approveCmd flips a subreddit suggestion to approved or rejected.
var approveCmd = &cobra.Command{
	Use:   "approve [campaign-id] [subreddit] [approved|rejected]",
	Short: "Decide a pending subreddit suggestion",
	Args:  cobra.ExactArgs(3),
	RunE:  approveSubreddit,
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", "", "campaign name (required)")
	seedCmd.Flags().StringVar(&seedTopic, "topic", "", "what the campaign promotes (required)")
	seedCmd.Flags().StringVar(&seedTargetURL, "target-url", "", "URL to work into posts")
	seedCmd.Flags().StringVar(&seedStyleNotes, "style-notes", "", "extra style guidance for generation")
	seedCmd.Flags().StringArrayVar(&seedPlatforms, "platform", nil, "platform to post on (repeatable)")
	seedCmd.Flags().StringArrayVar(&seedSubreddits, "subreddit", nil, "pre-approved subreddit (repeatable)")
	seedCmd.Flags().StringArrayVar(&seedQuotas, "quota", nil, "per-platform post cap, platform=N (repeatable)")
	seedCmd.Flags().IntVar(&seedPerSub, "posts-per-subreddit", 0, "cap on posts per subreddit (0 = unlimited)")
	seedCmd.Flags().Float64Var(&seedMinPostHrs, "min-post-interval", 0, "live mode: minimum hours between posts")
	seedCmd.Flags().Float64Var(&seedMaxPostHrs, "max-post-interval", 0, "live mode: maximum hours between posts")
	seedCmd.Flags().Float64Var(&seedMinReplyHrs, "min-reply-interval", 0, "live mode: minimum hours between comments")
	seedCmd.Flags().Float64Var(&seedMaxReplyHrs, "max-reply-interval", 0, "live mode: maximum hours between comments")
	seedCmd.Flags().StringVar(&seedStart, "start", "", "posting window start (RFC3339)")
	seedCmd.Flags().StringVar(&seedEnd, "end", "", "posting window end (RFC3339)")
	_ = seedCmd.MarkFlagRequired("name")
	_ = seedCmd.MarkFlagRequired("topic")
}

func seedCampaign(cmd *cobra.Command, args []string) error {
	if len(seedPlatforms) == 0 {
		return fmt.Errorf("at least one --platform is required")
	}

	var platforms []types.Platform
	for _, raw := range seedPlatforms {
		p := types.Platform(strings.ToLower(raw))
		if !p.Valid() {
			return fmt.Errorf("unknown platform %q", raw)
		}
		platforms = append(platforms, p)
	}

	quotas := make(map[types.Platform]int)
	for _, raw := range seedQuotas {
		name, val, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("bad --quota %q, want platform=N", raw)
		}
		p := types.Platform(strings.ToLower(name))
		if !p.Valid() {
			return fmt.Errorf("unknown platform %q in --quota", name)
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("bad quota value %q for %s", val, p)
		}
		quotas[p] = n
	}

	start, err := parseDateFlag(seedStart)
	if err != nil {
		return fmt.Errorf("bad --start: %w", err)
	}
	end, err := parseDateFlag(seedEnd)
	if err != nil {
		return fmt.Errorf("bad --end: %w", err)
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	campaign := &types.Campaign{
		Name:                  seedName,
		Topic:                 seedTopic,
		TargetURL:             seedTargetURL,
		StyleNotes:            seedStyleNotes,
		Platforms:             platforms,
		PostQuotas:            quotas,
		PostsPerSubreddit:     seedPerSub,
		MinPostIntervalHours:  seedMinPostHrs,
		MaxPostIntervalHours:  seedMaxPostHrs,
		MinReplyIntervalHours: seedMinReplyHrs,
		MaxReplyIntervalHours: seedMaxReplyHrs,
		StartDate:             start,
		EndDate:               end,
	}
	if err := a.store.CreateCampaign(campaign); err != nil {
		return err
	}

	for _, sub := range seedSubreddits {
		approval := &types.SubredditApproval{
			CampaignID: campaign.ID,
			Subreddit:  strings.TrimPrefix(sub, "r/"),
			Status:     types.ApprovalApproved,
		}
		if err := a.store.CreateSubredditApproval(approval); err != nil {
			return err
		}
	}

	fmt.Printf("Created campaign %s (%s) on %d platforms.\n", campaign.ID, campaign.Name, len(platforms))
	return nil
}

func approveSubreddit(cmd *cobra.Command, args []string) error {
	campaignID, subreddit, decision := args[0], strings.TrimPrefix(args[1], "r/"), args[2]
	if decision != types.ApprovalApproved && decision != types.ApprovalRejected {
		return fmt.Errorf("decision must be %q or %q", types.ApprovalApproved, types.ApprovalRejected)
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.UpdateSubredditApprovalStatus(campaignID, subreddit, decision); err != nil {
		return err
	}
	fmt.Printf("r/%s is now %s for campaign %s.\n", subreddit, decision, campaignID)
	return nil
}

func parseDateFlag(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
