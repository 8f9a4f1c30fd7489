package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloutfarm/internal/accounts"
	"cloutfarm/internal/llm"
	"cloutfarm/internal/persona"
	"cloutfarm/internal/platform"
	"cloutfarm/internal/randx"
	"cloutfarm/internal/store"
	"cloutfarm/internal/types"

	"github.com/stretchr/testify/require"
)

// fakeGen returns canned content or a canned failure.
type fakeGen struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (g *fakeGen) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail {
		return "", errors.New("model unavailable")
	}
	return "generated content", nil
}

func (g *fakeGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var _ llm.Generator = (*fakeGen)(nil)

// noPublisher fails every live call; tests run in simulation mode unless they
// deliberately exercise the live path.
type noPublisher struct{}

func (noPublisher) PublishPost(ctx context.Context, account *types.SocialAccount, target, content string) (string, error) {
	return "", errors.New("live publishing disabled in tests")
}

func (noPublisher) PublishComment(ctx context.Context, account *types.SocialAccount, postRef, content, parentRef string) (string, error) {
	return "", errors.New("live publishing disabled in tests")
}

// okPublisher accepts every live call with a canned reference.
type okPublisher struct{}

func (okPublisher) PublishPost(ctx context.Context, account *types.SocialAccount, target, content string) (string, error) {
	return "ext-post", nil
}

func (okPublisher) PublishComment(ctx context.Context, account *types.SocialAccount, postRef, content, parentRef string) (string, error) {
	return "ext-comment", nil
}

// scriptRand pops queued values and falls back to fixed ones, so tests can
// force specific branches without replaying whole sequences.
type scriptRand struct {
	ints   []int
	floats []float64
}

func (r *scriptRand) Intn(n int) int {
	if len(r.ints) > 0 {
		v := r.ints[0]
		r.ints = r.ints[1:]
		return v % n
	}
	return 0
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) > 0 {
		v := r.floats[0]
		r.floats = r.floats[1:]
		return v
	}
	return 0.99
}

func (r *scriptRand) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

type testEnv struct {
	st        *store.Store
	gen       *fakeGen
	poster    *Poster
	commenter *Commenter
}

func newTestEnv(t *testing.T, rng randx.Source) *testEnv {
	return newTestEnvWith(t, rng, noPublisher{})
}

func newTestEnvWith(t *testing.T, rng randx.Source, pub platform.Publisher) *testEnv {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	gen := &fakeGen{}
	alloc := accounts.NewAllocator(st, persona.NewGenerator(rng), rng)
	registry := platform.NewRegistry(platform.Env{Store: st, Publisher: pub, Rand: rng})

	commenter := NewCommenter(st, registry, alloc, gen, rng)
	commenter.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	return &testEnv{
		st:        st,
		gen:       gen,
		poster:    NewPoster(st, registry, alloc, gen, rng),
		commenter: commenter,
	}
}

func simCampaign(t *testing.T, st *store.Store, platforms ...types.Platform) *types.Campaign {
	t.Helper()
	c := &types.Campaign{
		Name:           "test",
		Topic:          "open source observability",
		TargetURL:      "https://example.com",
		Platforms:      platforms,
		SimulationMode: true,
	}
	require.NoError(t, st.CreateCampaign(c))
	return c
}

// saveCampaign persists a hand-built campaign.
func saveCampaign(t *testing.T, st *store.Store, c *types.Campaign) *types.Campaign {
	t.Helper()
	require.NoError(t, st.CreateCampaign(c))
	return c
}

func approveSub(t *testing.T, st *store.Store, campaignID, sub string) {
	t.Helper()
	require.NoError(t, st.CreateSubredditApproval(&types.SubredditApproval{
		CampaignID: campaignID, Subreddit: sub, Status: types.ApprovalApproved,
	}))
}
