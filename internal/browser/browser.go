// Package browser 管理进程内唯一的 Chrome 实例，并以 render.Session 的形式提供页面。
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"grabdoc/internal/render"
)

// Config 浏览器启动与页面行为配置
type Config struct {
	Headless        bool
	ProxyURL        string
	NoSandbox       bool // 多数 CI 容器中必须开启
	UserAgent       string
	NavigateTimeout time.Duration
}

// Manager 封装 rod.Browser 实例，首次 Open 时才启动，直到 Close 为止
type Manager struct {
	cfg Config

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// New 创建 Manager，此时尚未启动浏览器
func New(cfg Config) *Manager {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 60 * time.Second
	}
	return &Manager{cfg: cfg}
}

func (m *Manager) ensure() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser != nil {
		return m.browser, nil
	}

	l := launcher.New().Headless(m.cfg.Headless)
	if m.cfg.ProxyURL != "" {
		l = l.Proxy(m.cfg.ProxyURL)
	}
	if m.cfg.NoSandbox {
		l = l.NoSandbox(true).
			Set("disable-dev-shm-usage").
			Set("disable-accelerated-2d-canvas").
			Set("disable-gpu")
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch browser: %v", render.ErrUnavailable, err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: failed to connect to browser: %v", render.ErrUnavailable, err)
	}

	m.browser = b
	m.launcher = l
	return b, nil
}

// Open 创建新页面，设置 UA 并隐藏 webdriver 标记；url 非空时导航过去
func (m *Manager) Open(ctx context.Context, url string) (render.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := m.ensure()
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create page: %v", render.ErrUnavailable, err)
	}

	ua := m.cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua})
	_, _ = page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`)

	p := &Page{page: page, timeout: m.cfg.NavigateTimeout}
	if url == "" {
		return p, nil
	}
	if err := p.Navigate(url); err != nil {
		_ = page.Close()
		return nil, err
	}
	return p, nil
}

// Close 关闭浏览器并清理启动的进程
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher = nil
	}
	return err
}

// DefaultUserAgent 桌面版 Chrome 的 UA，浏览器与下载客户端共用
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
