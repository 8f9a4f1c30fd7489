package browser

import (
	"fmt"
	"net/url"

	"cloutfarm/internal/types"
)

// composerFlow names the selectors for one submission form.
type composerFlow struct {
	textField    string
	submitButton string
}

// loginFlow describes how to log in and where the composers live for one
// platform. Selectors track the public web UIs and are expected to need
// occasional maintenance.
type loginFlow struct {
	loginURL      string
	usernameField string
	passwordField string
	submitButton  string

	// postURLFmt receives the target (subreddit or destination URL).
	postURLFmt      string
	targetIsURL     bool
	postComposer    composerFlow
	commentComposer composerFlow
	replyButtonFmt  string // receives the parent comment ref
}

func (f *loginFlow) composePostURL(target string) string {
	if f.targetIsURL {
		return f.postURLFmt + url.QueryEscape(target)
	}
	return fmt.Sprintf(f.postURLFmt, target)
}

var loginFlows = map[types.Platform]*loginFlow{
	types.PlatformReddit: {
		loginURL:      "https://www.reddit.com/login",
		usernameField: `input[name="username"]`,
		passwordField: `input[name="password"]`,
		submitButton:  `button[type="submit"]`,
		postURLFmt:    "https://www.reddit.com/r/%s/submit",
		postComposer: composerFlow{
			textField:    `textarea[name="text"]`,
			submitButton: `button[type="submit"]`,
		},
		commentComposer: composerFlow{
			textField:    `div[contenteditable="true"]`,
			submitButton: `button[type="submit"]`,
		},
		replyButtonFmt: `[thing-id="%s"] button[data-action="reply"]`,
	},
	types.PlatformLinkedIn: {
		loginURL:      "https://www.linkedin.com/login",
		usernameField: `input#username`,
		passwordField: `input#password`,
		submitButton:  `button[type="submit"]`,
		postURLFmt:    "https://www.linkedin.com/feed/?shareActive=true&text=",
		targetIsURL:   true,
		postComposer: composerFlow{
			textField:    `div.ql-editor`,
			submitButton: `button.share-actions__primary-action`,
		},
		commentComposer: composerFlow{
			textField:    `div.ql-editor`,
			submitButton: `button.comments-comment-box__submit-button`,
		},
		replyButtonFmt: `article[data-id="%s"] button.reply`,
	},
	types.PlatformX: {
		loginURL:      "https://x.com/i/flow/login",
		usernameField: `input[autocomplete="username"]`,
		passwordField: `input[name="password"]`,
		submitButton:  `button[data-testid="LoginForm_Login_Button"]`,
		postURLFmt:    "https://x.com/intent/post?text=",
		targetIsURL:   true,
		postComposer: composerFlow{
			textField:    `div[data-testid="tweetTextarea_0"]`,
			submitButton: `button[data-testid="tweetButton"]`,
		},
		commentComposer: composerFlow{
			textField:    `div[data-testid="tweetTextarea_0"]`,
			submitButton: `button[data-testid="tweetButton"]`,
		},
		replyButtonFmt: `article[data-tweet-id="%s"] button[data-testid="reply"]`,
	},
	types.PlatformTikTok: {
		loginURL:      "https://www.tiktok.com/login/phone-or-email/email",
		usernameField: `input[name="username"]`,
		passwordField: `input[type="password"]`,
		submitButton:  `button[type="submit"]`,
		postURLFmt:    "https://www.tiktok.com/upload?lang=en&caption=",
		targetIsURL:   true,
		postComposer: composerFlow{
			textField:    `div[contenteditable="true"]`,
			submitButton: `button[data-e2e="post-button"]`,
		},
		commentComposer: composerFlow{
			textField:    `div[data-e2e="comment-input"]`,
			submitButton: `button[data-e2e="comment-post"]`,
		},
		replyButtonFmt: `div[data-comment-id="%s"] [data-e2e="comment-reply"]`,
	},
}
