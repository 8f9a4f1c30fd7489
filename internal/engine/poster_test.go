package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloutfarm/internal/randx"
	"cloutfarm/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostSimulated(t *testing.T) {
	env := newTestEnv(t, randx.New(1))
	c := simCampaign(t, env.st, types.PlatformReddit)
	approveSub(t, env.st, c.ID, "golang")

	post, err := env.poster.CreatePost(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, types.PlatformReddit, post.Platform)
	assert.Equal(t, "golang", post.Subreddit)
	assert.Equal(t, types.StatusSimulated, post.Status)
	assert.Equal(t, "generated content", post.Content)
	assert.Contains(t, post.Metadata, "likes", "simulated posts carry synthetic engagement")

	persisted, err := env.st.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.AccountID, persisted.AccountID)
}

func TestCreatePostUnknownCampaign(t *testing.T) {
	env := newTestEnv(t, randx.New(1))

	_, err := env.poster.CreatePost(context.Background(), "missing")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreatePostNoPlatforms(t *testing.T) {
	env := newTestEnv(t, randx.New(1))
	c := simCampaign(t, env.st)

	_, err := env.poster.CreatePost(context.Background(), c.ID)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQuotaExhaustionIsBenign(t *testing.T) {
	env := newTestEnv(t, randx.New(2))
	c := saveCampaign(t, env.st, &types.Campaign{
		Name:           "quota",
		Topic:          "open source observability",
		Platforms:      []types.Platform{types.PlatformX},
		PostQuotas:     map[types.Platform]int{types.PlatformX: 1},
		SimulationMode: true,
	})

	first, err := env.poster.CreatePost(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := env.poster.CreatePost(context.Background(), c.ID)
	require.NoError(t, err, "a full quota is not a failure")
	assert.Nil(t, second)
}

func TestNoApprovedSubredditIsBenign(t *testing.T) {
	env := newTestEnv(t, randx.New(3))
	c := simCampaign(t, env.st, types.PlatformReddit)

	post, err := env.poster.CreatePost(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestFirstSuccessWins(t *testing.T) {
	// reddit has no approved subreddit and gets skipped; x succeeds.
	env := newTestEnv(t, &scriptRand{})
	c := simCampaign(t, env.st, types.PlatformReddit, types.PlatformX)

	post, err := env.poster.CreatePost(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, types.PlatformX, post.Platform)

	posts, err := env.st.ListPostsByCampaign(c.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1, "only the first success is recorded")
}

func TestAllPlatformsFailingAggregates(t *testing.T) {
	env := newTestEnv(t, randx.New(4))
	env.gen.fail = true
	c := simCampaign(t, env.st, types.PlatformX, types.PlatformLinkedIn)

	_, err := env.poster.CreatePost(context.Background(), c.ID)
	var agg *PostingFailedError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Failures, 2)
	assert.Contains(t, err.Error(), "linkedin")
	assert.Contains(t, err.Error(), "x")
}

func TestLiveWindowChecks(t *testing.T) {
	env := newTestEnv(t, randx.New(5))

	t.Run("campaign not started", func(t *testing.T) {
		future := time.Now().UTC().Add(24 * time.Hour)
		c := saveCampaign(t, env.st, &types.Campaign{
			Name: "early", Topic: "t",
			Platforms: []types.Platform{types.PlatformX},
			StartDate: &future,
		})

		_, err := env.poster.CreatePost(context.Background(), c.ID)
		var werr *WindowConstraintViolation
		assert.ErrorAs(t, err, &werr)
	})

	t.Run("campaign ended", func(t *testing.T) {
		past := time.Now().UTC().Add(-24 * time.Hour)
		c := saveCampaign(t, env.st, &types.Campaign{
			Name: "late", Topic: "t",
			Platforms: []types.Platform{types.PlatformX},
			EndDate:   &past,
		})

		_, err := env.poster.CreatePost(context.Background(), c.ID)
		var werr *WindowConstraintViolation
		assert.ErrorAs(t, err, &werr)
	})

	t.Run("minimum interval not elapsed", func(t *testing.T) {
		c := saveCampaign(t, env.st, &types.Campaign{
			Name: "paced", Topic: "t",
			Platforms:            []types.Platform{types.PlatformX},
			MinPostIntervalHours: 1,
		})
		require.NoError(t, env.st.CreatePost(&types.Post{
			CampaignID: c.ID, Platform: types.PlatformX, AccountID: "a1",
			Content: "prior", Status: types.StatusPosted,
			CreatedAt: time.Now().UTC().Add(-10 * time.Minute),
		}))

		_, err := env.poster.CreatePost(context.Background(), c.ID)
		var werr *WindowConstraintViolation
		assert.ErrorAs(t, err, &werr)
	})

	t.Run("simulation mode skips window checks", func(t *testing.T) {
		past := time.Now().UTC().Add(-24 * time.Hour)
		c := saveCampaign(t, env.st, &types.Campaign{
			Name: "sim", Topic: "t",
			Platforms:      []types.Platform{types.PlatformX},
			EndDate:        &past,
			SimulationMode: true,
		})

		post, err := env.poster.CreatePost(context.Background(), c.ID)
		require.NoError(t, err)
		assert.NotNil(t, post)
	})
}

func TestShuffleCoversAllPlatforms(t *testing.T) {
	env := newTestEnv(t, randx.New(6))
	c := simCampaign(t, env.st,
		types.PlatformReddit, types.PlatformLinkedIn, types.PlatformX, types.PlatformTikTok)
	approveSub(t, env.st, c.ID, "golang")

	seen := make(map[types.Platform]bool)
	for i := 0; i < 40; i++ {
		post, err := env.poster.CreatePost(context.Background(), c.ID)
		require.NoError(t, err)
		require.NotNil(t, post)
		seen[post.Platform] = true
	}
	assert.Len(t, seen, 4, "random platform order should reach every platform eventually")
}

func TestQuotaCheckIsNotTransactional(t *testing.T) {
	// Two concurrent posting runs can both pass the quota check before
	// either inserts, so a quota of 1 may end up with 2 posts. This pins
	// the current read-then-write behavior rather than asserting a fix.
	env := newTestEnv(t, randx.New(8))
	c := saveCampaign(t, env.st, &types.Campaign{
		Name: "racy", Topic: "t",
		Platforms:      []types.Platform{types.PlatformX},
		PostQuotas:     map[types.Platform]int{types.PlatformX: 1},
		SimulationMode: true,
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.poster.CreatePost(context.Background(), c.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	posts, err := env.st.ListPostsByCampaign(c.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(posts), 1)
	assert.LessOrEqual(t, len(posts), 2, "overshoot is bounded by the number of racers")
}

func TestBenignSkipClassification(t *testing.T) {
	assert.True(t, isBenignSkip(&QuotaExhaustedError{Platform: types.PlatformX, Quota: 1}))
	assert.False(t, isBenignSkip(errors.New("boom")))
	assert.False(t, isBenignSkip(&ExternalServiceError{Service: "llm", Err: errors.New("down")}))
}
