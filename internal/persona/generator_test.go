package persona

import (
	"testing"

	"cloutfarm/internal/randx"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFillsEveryTrait(t *testing.T) {
	g := NewGenerator(randx.New(1))

	traits := g.Generate()
	assert.Contains(t, writingStyles, traits.WritingStyle)
	assert.Contains(t, responseLengths, traits.ResponseLength)
	assert.Contains(t, tones, traits.Tone)
	assert.Contains(t, engagementStyles, traits.EngagementStyle)
	require.Len(t, traits.Quirks, 2)
	require.Len(t, traits.Expertise, 2)
}

func TestGenerateSamplesWithoutReplacement(t *testing.T) {
	g := NewGenerator(randx.New(7))

	for i := 0; i < 50; i++ {
		traits := g.Generate()
		assert.NotEqual(t, traits.Quirks[0], traits.Quirks[1], "quirks must be distinct")
		assert.NotEqual(t, traits.Expertise[0], traits.Expertise[1], "expertise must be distinct")
	}
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	a := NewGenerator(randx.New(42)).Generate()
	b := NewGenerator(randx.New(42)).Generate()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different personas (-a +b):\n%s", diff)
	}
}

func TestGenerateVariesAcrossDraws(t *testing.T) {
	g := NewGenerator(randx.New(3))

	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		seen[g.Generate().WritingStyle] = true
	}
	assert.Greater(t, len(seen), 1, "independent draws should cover multiple styles")
}
