// Package browser publishes posts and comments to real platforms through a
// headless Chrome driven by rod. It owns the whole session lifecycle: the
// engine hands it an account and content and gets back a platform id.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloutfarm/internal/logging"
	"cloutfarm/internal/types"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// Config holds browser configuration.
type Config struct {
	Headless            bool
	Bin                 string
	NavigationTimeoutMs int
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Publisher drives a shared Chrome instance and keeps one logged-in page per
// account. Sessions are created lazily on first publish and reused after.
type Publisher struct {
	cfg      Config
	mu       sync.Mutex
	browser  *rod.Browser
	sessions map[string]*rod.Page // account id -> logged-in page
}

// NewPublisher creates a publisher. The browser is launched lazily.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{
		cfg:      cfg,
		sessions: make(map[string]*rod.Page),
	}
}

// ensureStarted launches or reconnects the browser. Caller must hold p.mu.
func (p *Publisher) ensureStarted(ctx context.Context) error {
	if p.browser != nil {
		if _, err := p.browser.Version(); err == nil {
			return nil
		}
		logging.Browser("stale browser connection, relaunching")
		_ = p.browser.Close()
		p.browser = nil
		p.sessions = make(map[string]*rod.Page)
	}

	launch := launcher.New().Headless(p.cfg.Headless)
	if p.cfg.Bin != "" {
		launch = launch.Bin(p.cfg.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to chrome: %w", err)
	}
	p.browser = browser
	logging.Browser("browser connected (headless=%v)", p.cfg.Headless)
	return nil
}

// Shutdown closes tracked pages and the browser.
func (p *Publisher) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, page := range p.sessions {
		_ = page.Close()
		delete(p.sessions, id)
	}
	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	return err
}

// PublishPost logs the account in if needed, submits the post, and returns
// the platform-assigned post id. target is a subreddit name for reddit and a
// destination URL elsewhere.
func (p *Publisher) PublishPost(ctx context.Context, account *types.SocialAccount, target, content string) (string, error) {
	page, flow, err := p.sessionFor(ctx, account)
	if err != nil {
		return "", err
	}

	postURL := flow.composePostURL(target)
	if err := page.Context(ctx).Timeout(p.cfg.NavigationTimeout()).Navigate(postURL); err != nil {
		return "", fmt.Errorf("failed to open composer on %s: %w", account.Platform, err)
	}
	if err := p.fillAndSubmit(ctx, page, flow.postComposer, content); err != nil {
		return "", fmt.Errorf("failed to submit post on %s: %w", account.Platform, err)
	}

	id := p.extractPlatformID(ctx, page)
	logging.Browser("published post %s on %s as %s", id, account.Platform, account.Username)
	return id, nil
}

// PublishComment submits a comment under postRef. A non-empty parentRef
// replies to that comment instead of the post itself.
func (p *Publisher) PublishComment(ctx context.Context, account *types.SocialAccount, postRef, content, parentRef string) (string, error) {
	page, flow, err := p.sessionFor(ctx, account)
	if err != nil {
		return "", err
	}

	if err := page.Context(ctx).Timeout(p.cfg.NavigationTimeout()).Navigate(postRef); err != nil {
		return "", fmt.Errorf("failed to open post on %s: %w", account.Platform, err)
	}

	composer := flow.commentComposer
	if parentRef != "" {
		// Open the inline reply box under the parent comment first.
		replySel := fmt.Sprintf(flow.replyButtonFmt, parentRef)
		el, err := page.Context(ctx).Element(replySel)
		if err != nil {
			return "", fmt.Errorf("reply control not found on %s: %w", account.Platform, err)
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return "", fmt.Errorf("failed to open reply box on %s: %w", account.Platform, err)
		}
	}
	if err := p.fillAndSubmit(ctx, page, composer, content); err != nil {
		return "", fmt.Errorf("failed to submit comment on %s: %w", account.Platform, err)
	}

	id := p.extractPlatformID(ctx, page)
	logging.Browser("published comment %s on %s as %s", id, account.Platform, account.Username)
	return id, nil
}

// sessionFor returns a logged-in page for the account, creating one if
// needed.
func (p *Publisher) sessionFor(ctx context.Context, account *types.SocialAccount) (*rod.Page, *loginFlow, error) {
	if account.IsSimulatedOnly() {
		return nil, nil, errors.New("account has no real credentials; cannot publish live")
	}
	flow, ok := loginFlows[account.Platform]
	if !ok {
		return nil, nil, fmt.Errorf("no login flow for platform %s", account.Platform)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStarted(ctx); err != nil {
		return nil, nil, err
	}
	if page, ok := p.sessions[account.ID]; ok {
		return page, flow, nil
	}

	page, err := p.login(ctx, account, flow)
	if err != nil {
		return nil, nil, err
	}
	p.sessions[account.ID] = page
	return page, flow, nil
}

// login opens an incognito context and walks the platform's login form.
func (p *Publisher) login(ctx context.Context, account *types.SocialAccount, flow *loginFlow) (*rod.Page, error) {
	username, password, ok := strings.Cut(account.Credential, ":")
	if !ok {
		return nil, fmt.Errorf("malformed credential for account %s", account.ID)
	}

	incognito, err := p.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: flow.loginURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}
	page = page.Context(ctx).Timeout(p.cfg.NavigationTimeout())

	if err := typeInto(page, flow.usernameField, username); err != nil {
		return nil, fmt.Errorf("login username step failed: %w", err)
	}
	if err := typeInto(page, flow.passwordField, password); err != nil {
		return nil, fmt.Errorf("login password step failed: %w", err)
	}
	submit, err := page.Element(flow.submitButton)
	if err != nil {
		return nil, fmt.Errorf("login submit not found: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("login submit failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("login navigation failed: %w", err)
	}

	logging.Browser("logged in %s on %s", account.Username, account.Platform)
	return page, nil
}

func (p *Publisher) fillAndSubmit(ctx context.Context, page *rod.Page, composer composerFlow, content string) error {
	scoped := page.Context(ctx).Timeout(p.cfg.NavigationTimeout())
	if err := typeInto(scoped, composer.textField, content); err != nil {
		return err
	}
	submit, err := scoped.Element(composer.submitButton)
	if err != nil {
		return err
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	return scoped.WaitLoad()
}

// extractPlatformID pulls the canonical id from the post-submit URL, falling
// back to a synthetic reference when the platform does not expose one.
func (p *Publisher) extractPlatformID(ctx context.Context, page *rod.Page) string {
	info, err := page.Context(ctx).Info()
	if err == nil && info.URL != "" {
		parts := strings.Split(strings.TrimRight(info.URL, "/"), "/")
		if last := parts[len(parts)-1]; last != "" {
			return last
		}
	}
	return "ref-" + uuid.NewString()
}

func typeInto(page *rod.Page, selector, text string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	return el.Input(text)
}
