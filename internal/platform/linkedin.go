package platform

import "cloutfarm/internal/types"

type linkedInHandler struct {
	baseHandler
}

func newLinkedInHandler(env Env) *linkedInHandler {
	return &linkedInHandler{baseHandler{
		env:      env,
		platform: types.PlatformLinkedIn,
		styleRules: "Write for a professional LinkedIn audience. First-person, " +
			"insight-driven, a few short paragraphs. Sparing hashtags, no emoji walls.",
		engagement: engagementRange{likes: 250, shares: 30, views: 5000},
	}}
}
