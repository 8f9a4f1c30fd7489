package store

import (
	"testing"
	"time"

	"cloutfarm/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCampaign() *types.Campaign {
	return &types.Campaign{
		Name:              "launch",
		Topic:             "self-hosted analytics",
		TargetURL:         "https://example.com",
		Platforms:         []types.Platform{types.PlatformReddit, types.PlatformX},
		PostQuotas:        map[types.Platform]int{types.PlatformReddit: 3},
		PostsPerSubreddit: 2,
		SimulationMode:    true,
	}
}

func TestCampaignRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))
	require.NotEmpty(t, c.ID)

	got, err := s.GetCampaign(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.Platforms, got.Platforms)
	assert.Equal(t, 3, got.PostQuota(types.PlatformReddit))
	assert.Equal(t, 0, got.PostQuota(types.PlatformX))
	assert.Nil(t, got.StartDate)
}

func TestGetCampaignNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetCampaign("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunStateAndRecoveryListing(t *testing.T) {
	s := newTestStore(t)

	c1, c2 := testCampaign(), testCampaign()
	require.NoError(t, s.CreateCampaign(c1))
	require.NoError(t, s.CreateCampaign(c2))

	require.NoError(t, s.UpdateCampaignRunState(c1.ID, true, true))

	running, err := s.ListRunningCampaigns()
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, c1.ID, running[0].ID)
	assert.True(t, running[0].SimulationMode)

	require.NoError(t, s.UpdateCampaignRunState(c1.ID, false, false))
	running, err = s.ListRunningCampaigns()
	require.NoError(t, err)
	assert.Empty(t, running)

	assert.ErrorIs(t, s.UpdateCampaignRunState("nope", true, true), ErrNotFound)
}

func TestUpdateCampaignRunningPreservesMode(t *testing.T) {
	s := newTestStore(t)

	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))
	require.NoError(t, s.UpdateCampaignRunState(c.ID, true, true))

	require.NoError(t, s.UpdateCampaignRunning(c.ID, false))

	got, err := s.GetCampaign(c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRunning)
	assert.True(t, got.SimulationMode)

	assert.ErrorIs(t, s.UpdateCampaignRunning("nope", true), ErrNotFound)
}

func createTestPost(t *testing.T, s *Store, campaignID string, platform types.Platform, createdAt time.Time) *types.Post {
	t.Helper()
	p := &types.Post{
		CampaignID: campaignID,
		Platform:   platform,
		AccountID:  "acct-1",
		Content:    "hello",
		Status:     types.StatusSimulated,
		CreatedAt:  createdAt,
	}
	require.NoError(t, s.CreatePost(p))
	return p
}

func TestPostQueries(t *testing.T) {
	s := newTestStore(t)
	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))

	now := time.Now().UTC()
	createTestPost(t, s, c.ID, types.PlatformReddit, now.Add(-2*time.Hour))
	recent := createTestPost(t, s, c.ID, types.PlatformReddit, now.Add(-10*time.Minute))
	newest := createTestPost(t, s, c.ID, types.PlatformX, now.Add(-time.Minute))

	t.Run("count by platform", func(t *testing.T) {
		n, err := s.CountPostsByPlatform(c.ID, types.PlatformReddit)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("latest post time", func(t *testing.T) {
		ts, ok, err := s.LatestPostTime(c.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.WithinDuration(t, newest.CreatedAt, ts, time.Second)
	})

	t.Run("latest post time empty campaign", func(t *testing.T) {
		other := testCampaign()
		require.NoError(t, s.CreateCampaign(other))
		_, ok, err := s.LatestPostTime(other.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("recent posts newest first", func(t *testing.T) {
		posts, err := s.RecentPosts(c.ID, now.Add(-time.Hour), 5)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newest.ID, posts[0].ID)
		assert.Equal(t, recent.ID, posts[1].ID)
	})

	t.Run("recent posts respects limit", func(t *testing.T) {
		posts, err := s.RecentPosts(c.ID, now.Add(-3*time.Hour), 1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, newest.ID, posts[0].ID)
	})
}

func TestCommentQueries(t *testing.T) {
	s := newTestStore(t)
	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))
	post := createTestPost(t, s, c.ID, types.PlatformReddit, time.Now().UTC())

	root := &types.Comment{PostID: post.ID, AccountID: "a1", Content: "first", Status: types.StatusSimulated}
	require.NoError(t, s.CreateComment(root))
	reply := &types.Comment{PostID: post.ID, AccountID: "a2", ParentCommentID: &root.ID, Content: "second", Status: types.StatusSimulated}
	require.NoError(t, s.CreateComment(reply))

	t.Run("top level excludes replies", func(t *testing.T) {
		roots, err := s.TopLevelComments(post.ID)
		require.NoError(t, err)
		require.Len(t, roots, 1)
		assert.Equal(t, root.ID, roots[0].ID)
	})

	t.Run("author ids cover the whole post", func(t *testing.T) {
		ids, err := s.CommentAuthorIDs(post.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
	})

	t.Run("reply authors scoped to parent", func(t *testing.T) {
		ids, err := s.ReplyAuthorIDs(root.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a2"}, ids)
	})

	t.Run("latest comment time spans the campaign", func(t *testing.T) {
		_, ok, err := s.LatestCommentTime(c.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("parent id survives the round trip", func(t *testing.T) {
		got, err := s.GetComment(reply.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentCommentID)
		assert.Equal(t, root.ID, *got.ParentCommentID)
	})
}

func TestDeletePostCascades(t *testing.T) {
	s := newTestStore(t)
	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))
	post := createTestPost(t, s, c.ID, types.PlatformReddit, time.Now().UTC())
	comment := &types.Comment{PostID: post.ID, AccountID: "a1", Content: "hi", Status: types.StatusSimulated}
	require.NoError(t, s.CreateComment(comment))

	t.Run("wrong campaign id deletes nothing", func(t *testing.T) {
		err := s.DeletePost(post.ID, "other-campaign")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetPost(post.ID)
		assert.NoError(t, err)
	})

	t.Run("post and comments go together", func(t *testing.T) {
		require.NoError(t, s.DeletePost(post.ID, c.ID))
		_, err := s.GetPost(post.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetComment(comment.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteAllPostsInCampaign(t *testing.T) {
	s := newTestStore(t)
	c, other := testCampaign(), testCampaign()
	require.NoError(t, s.CreateCampaign(c))
	require.NoError(t, s.CreateCampaign(other))

	p1 := createTestPost(t, s, c.ID, types.PlatformReddit, time.Now().UTC())
	createTestPost(t, s, c.ID, types.PlatformX, time.Now().UTC())
	keep := createTestPost(t, s, other.ID, types.PlatformX, time.Now().UTC())
	require.NoError(t, s.CreateComment(&types.Comment{PostID: p1.ID, AccountID: "a1", Content: "hi", Status: types.StatusSimulated}))

	n, err := s.DeleteAllPostsInCampaign(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := s.ListPostsByCampaign(c.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = s.GetPost(keep.ID)
	assert.NoError(t, err, "other campaign's posts must survive")
}

func TestDeleteCampaignCascade(t *testing.T) {
	s := newTestStore(t)
	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))
	post := createTestPost(t, s, c.ID, types.PlatformReddit, time.Now().UTC())
	require.NoError(t, s.CreateSubredditApproval(&types.SubredditApproval{
		CampaignID: c.ID, Subreddit: "golang", Status: types.ApprovalApproved,
	}))

	require.NoError(t, s.DeleteCampaign(c.ID))

	_, err := s.GetCampaign(c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetPost(post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	subs, err := s.ApprovedSubreddits(c.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubredditApprovals(t *testing.T) {
	s := newTestStore(t)
	c := testCampaign()
	require.NoError(t, s.CreateCampaign(c))

	require.NoError(t, s.CreateSubredditApproval(&types.SubredditApproval{CampaignID: c.ID, Subreddit: "golang"}))
	require.NoError(t, s.CreateSubredditApproval(&types.SubredditApproval{CampaignID: c.ID, Subreddit: "selfhosted"}))

	subs, err := s.ApprovedSubreddits(c.ID)
	require.NoError(t, err)
	assert.Empty(t, subs, "pending suggestions are not postable")

	require.NoError(t, s.UpdateSubredditApprovalStatus(c.ID, "golang", types.ApprovalApproved))
	require.NoError(t, s.UpdateSubredditApprovalStatus(c.ID, "selfhosted", types.ApprovalRejected))

	subs, err = s.ApprovedSubreddits(c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, subs)

	assert.ErrorIs(t, s.UpdateSubredditApprovalStatus(c.ID, "unknown", types.ApprovalApproved), ErrNotFound)
}

func TestAccounts(t *testing.T) {
	s := newTestStore(t)

	a1 := &types.SocialAccount{Platform: types.PlatformReddit, Username: "u1", Credential: types.SimulatedCredential}
	a2 := &types.SocialAccount{Platform: types.PlatformReddit, Username: "u2", Credential: "user:pass"}
	a3 := &types.SocialAccount{Platform: types.PlatformX, Username: "u3", Credential: types.SimulatedCredential}
	for _, a := range []*types.SocialAccount{a1, a2, a3} {
		require.NoError(t, s.CreateAccount(a))
	}

	t.Run("filtered by platform", func(t *testing.T) {
		got, err := s.ListActiveAccounts(types.PlatformReddit, nil)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("exclude ids are honored", func(t *testing.T) {
		got, err := s.ListActiveAccounts(types.PlatformReddit, []string{a1.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a2.ID, got[0].ID)
	})

	t.Run("persona backfill persists", func(t *testing.T) {
		traits := &types.PersonaTraits{WritingStyle: "casual", Tone: "warm"}
		require.NoError(t, s.UpdateAccountPersona(a1.ID, traits))
		got, err := s.GetAccount(a1.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Persona)
		assert.Equal(t, "casual", got.Persona.WritingStyle)
	})
}
