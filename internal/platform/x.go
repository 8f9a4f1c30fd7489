package platform

import "cloutfarm/internal/types"

type xHandler struct {
	baseHandler
}

func newXHandler(env Env) *xHandler {
	return &xHandler{baseHandler{
		env:      env,
		platform: types.PlatformX,
		styleRules: "Write for X. Stay under 280 characters, punchy and " +
			"conversational. One hashtag at most, links go at the end.",
		engagement: engagementRange{likes: 800, shares: 200, views: 20000},
	}}
}
