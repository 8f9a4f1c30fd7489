package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloutfarm/internal/randx"
	"cloutfarm/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecentPost(t *testing.T, env *testEnv, campaignID string) *types.Post {
	t.Helper()
	p := &types.Post{
		CampaignID: campaignID,
		Platform:   types.PlatformX,
		AccountID:  "post-author",
		Content:    "original post",
		Status:     types.StatusSimulated,
		CreatedAt:  time.Now().UTC().Add(-5 * time.Minute),
	}
	require.NoError(t, env.st.CreatePost(p))
	return p
}

func TestCreateCommentsBatch(t *testing.T) {
	env := newTestEnv(t, randx.New(1))
	c := simCampaign(t, env.st, types.PlatformX)
	post := seedRecentPost(t, env, c.ID)

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(comments), 2)
	require.LessOrEqual(t, len(comments), 4)

	seen := make(map[string]bool)
	for _, cm := range comments {
		assert.Equal(t, post.ID, cm.PostID)
		assert.Equal(t, types.StatusSimulated, cm.Status)
		assert.NotNil(t, cm.Sentiment, "simulated comments carry a sentiment score")
		assert.NotEqual(t, post.AccountID, cm.AccountID, "the post author never comments on their own post")
		assert.False(t, seen[cm.AccountID], "one account, one comment per post")
		seen[cm.AccountID] = true
	}

	persisted, err := env.st.ListCommentsByPost(post.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, len(comments))
}

func TestCreateCommentsNoRecentPosts(t *testing.T) {
	env := newTestEnv(t, randx.New(2))
	c := simCampaign(t, env.st, types.PlatformX)

	// A post old enough to fall outside the trailing window.
	require.NoError(t, env.st.CreatePost(&types.Post{
		CampaignID: c.ID, Platform: types.PlatformX, AccountID: "a1",
		Content: "stale", Status: types.StatusSimulated,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}))

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCreateCommentsUnknownCampaign(t *testing.T) {
	env := newTestEnv(t, randx.New(3))

	_, err := env.commenter.CreateComments(context.Background(), "missing")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestThreadedReplyStaysOnPost(t *testing.T) {
	// Script: batch of 2, first comment threads under the existing root,
	// second stays top-level.
	rng := &scriptRand{
		ints:   []int{0, 0, 0},
		floats: []float64{0.1, 0.9},
	}
	env := newTestEnv(t, rng)
	c := simCampaign(t, env.st, types.PlatformX)
	post := seedRecentPost(t, env, c.ID)

	root := &types.Comment{PostID: post.ID, AccountID: "root-author", Content: "root", Status: types.StatusSimulated}
	require.NoError(t, env.st.CreateComment(root))

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	require.NotNil(t, comments[0].ParentCommentID)
	assert.Equal(t, root.ID, *comments[0].ParentCommentID)
	assert.Equal(t, post.ID, comments[0].PostID, "replies never leave the post")
	assert.Nil(t, comments[1].ParentCommentID)
}

func TestThreadedReplyWithNoRootsFallsBack(t *testing.T) {
	// Threading is rolled but there is nothing to thread under.
	rng := &scriptRand{floats: []float64{0.1, 0.1, 0.1, 0.1}}
	env := newTestEnv(t, rng)
	c := simCampaign(t, env.st, types.PlatformX)
	seedRecentPost(t, env, c.ID)

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotEmpty(t, comments)
	assert.Nil(t, comments[0].ParentCommentID)
}

// emptyAlloc simulates an exhausted account pool.
type emptyAlloc struct{ calls int }

func (a *emptyAlloc) GetRandomAccount(p types.Platform, excludeIDs []string) (*types.SocialAccount, error) {
	a.calls++
	return nil, errors.New("account pool unavailable")
}

func TestAllocatorExhaustionAbortsPost(t *testing.T) {
	env := newTestEnv(t, randx.New(4))
	c := simCampaign(t, env.st, types.PlatformX)
	seedRecentPost(t, env, c.ID)

	alloc := &emptyAlloc{}
	env.commenter.accounts = alloc

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err, "an exhausted pool aborts the post, not the run")
	assert.Empty(t, comments)
	assert.Equal(t, 1, alloc.calls, "the per-post loop stops after the first allocation failure")
}

func TestSingleCommentFailureIsSkipped(t *testing.T) {
	env := newTestEnv(t, randx.New(5))
	env.gen.fail = true
	c := simCampaign(t, env.st, types.PlatformX)
	seedRecentPost(t, env, c.ID)

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.GreaterOrEqual(t, env.gen.callCount(), 2, "each comment in the batch is still attempted")
}

func TestLiveCommentWindowChecks(t *testing.T) {
	env := newTestEnv(t, randx.New(6))

	t.Run("campaign not started", func(t *testing.T) {
		future := time.Now().UTC().Add(24 * time.Hour)
		c := saveCampaign(t, env.st, &types.Campaign{
			Name: "early", Topic: "t",
			Platforms: []types.Platform{types.PlatformX},
			StartDate: &future,
		})
		seedRecentPost(t, env, c.ID)

		_, err := env.commenter.CreateComments(context.Background(), c.ID)
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
		seedRecentPost(t, env, c.ID)

		_, err := env.commenter.CreateComments(context.Background(), c.ID)
		var werr *WindowConstraintViolation
		assert.ErrorAs(t, err, &werr)
	})

	t.Run("simulation mode skips the window", func(t *testing.T) {
		past := time.Now().UTC().Add(-24 * time.Hour)
		c := saveCampaign(t, env.st, &types.Campaign{
			Name: "sim", Topic: "t",
			Platforms:      []types.Platform{types.PlatformX},
			EndDate:        &past,
			SimulationMode: true,
		})
		seedRecentPost(t, env, c.ID)

		comments, err := env.commenter.CreateComments(context.Background(), c.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, comments)
	})
}

func TestLiveReplyIntervalGatesEachComment(t *testing.T) {
	env := newTestEnvWith(t, randx.New(6), okPublisher{})
	c := saveCampaign(t, env.st, &types.Campaign{
		Name: "live", Topic: "t",
		Platforms:             []types.Platform{types.PlatformX},
		MinReplyIntervalHours: 1,
	})
	require.NoError(t, env.st.CreatePost(&types.Post{
		CampaignID: c.ID, Platform: types.PlatformX, AccountID: "post-author",
		Content: "original post", Status: types.StatusPosted,
		Metadata:  map[string]string{"platform_id": "ext-post"},
		CreatedAt: time.Now().UTC().Add(-5 * time.Minute),
	}))

	comments, err := env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1, "only the first comment in the batch clears the interval")
	assert.Equal(t, types.StatusPosted, comments[0].Status)

	// A run straight after finds the fresh comment and writes nothing.
	comments, err = env.commenter.CreateComments(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCancellationStopsPacing(t *testing.T) {
	env := newTestEnv(t, randx.New(7))
	c := simCampaign(t, env.st, types.PlatformX)
	seedRecentPost(t, env, c.ID)

	env.commenter.sleep = sleepCtx // real pacing so cancellation has a window
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.commenter.CreateComments(ctx, c.ID)
	assert.ErrorIs(t, err, context.Canceled)
}
