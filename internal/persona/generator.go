// Package persona samples the stylistic trait bundles attached to social
// accounts. Each field is drawn independently; quirks and expertise are
// drawn without replacement. Cross-field believability is out of scope.
package persona

import (
	"cloutfarm/internal/randx"
	"cloutfarm/internal/types"
)

var writingStyles = []string{
	"casual", "professional", "academic", "conversational", "witty", "direct",
}

var responseLengths = []string{
	"brief", "moderate", "detailed", "verbose",
}

var tones = []string{
	"friendly", "enthusiastic", "skeptical", "neutral", "supportive",
}

var engagementStyles = []string{
	"questioner", "storyteller", "debater", "cheerleader", "lurker-turned-poster",
}

var quirkPool = []string{
	"uses lowercase exclusively",
	"fond of em-dash free punchy sentences",
	"sprinkles in emoji",
	"quotes statistics from memory",
	"always signs off with a question",
	"references old internet culture",
	"types out numbers as words",
	"overuses ellipses",
}

var expertisePool = []string{
	"consumer tech", "personal finance", "fitness", "cooking",
	"travel", "gaming", "home improvement", "career advice",
}

// Generator produces random persona trait bundles.
type Generator struct {
	rng randx.Source
}

// NewGenerator creates a generator backed by the given random source.
func NewGenerator(rng randx.Source) *Generator {
	return &Generator{rng: rng}
}

// Generate samples a fresh persona.
func (g *Generator) Generate() *types.PersonaTraits {
	return &types.PersonaTraits{
		WritingStyle:    pick(g.rng, writingStyles),
		ResponseLength:  pick(g.rng, responseLengths),
		Tone:            pick(g.rng, tones),
		Quirks:          sample(g.rng, quirkPool, 2),
		Expertise:       sample(g.rng, expertisePool, 2),
		EngagementStyle: pick(g.rng, engagementStyles),
	}
}

func pick(rng randx.Source, options []string) string {
	return options[rng.Intn(len(options))]
}

// sample draws n distinct elements, preserving permutation order.
func sample(rng randx.Source, pool []string, n int) []string {
	perm := rng.Perm(len(pool))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, pool[idx])
	}
	return out
}
