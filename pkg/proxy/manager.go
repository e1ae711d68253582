package proxy

import (
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Manager handles the rotation of proxies and user agents.
type Manager struct {
	proxies    []*url.URL
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

// NewManager builds a Manager. Unparseable proxy URLs are skipped and an
// empty user agent list falls back to a built-in set.
func NewManager(proxies, userAgents []string) *Manager {
	m := &Manager{userAgents: userAgents}
	if len(m.userAgents) == 0 {
		m.userAgents = defaultUserAgents
	}
	for _, raw := range proxies {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		m.proxies = append(m.proxies, u)
	}
	return m
}

// Proxy returns the next proxy in sequence, or nil when none are configured.
// Its signature matches http.Transport.Proxy.
func (m *Manager) Proxy(_ *http.Request) (*url.URL, error) {
	if len(m.proxies) == 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p, nil
}

// UserAgent returns a random user agent string.
func (m *Manager) UserAgent() string {
	return m.userAgents[rand.IntN(len(m.userAgents))]
}
