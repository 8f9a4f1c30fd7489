package platform

import "cloutfarm/internal/types"

type tikTokHandler struct {
	baseHandler
}

func newTikTokHandler(env Env) *tikTokHandler {
	return &tikTokHandler{baseHandler{
		env:      env,
		platform: types.PlatformTikTok,
		styleRules: "Write a TikTok caption. Short, hook-first, casual slang is " +
			"fine. Two or three hashtags, the first one on-topic.",
		engagement: engagementRange{likes: 2000, shares: 500, views: 60000},
	}}
}
