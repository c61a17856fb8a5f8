package gateway

import (
	"context"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/glandu2/rzauth/internal/config"
)

// floodGuard enforces auth.client.{floodProtection, fastConnectionLimit,
// maxConnectionPerIp} (SPEC_FULL.md §4 supplemented feature #3) against new
// accepts on the client listener, before a connection ever reaches the
// dispatcher. Grounded on teranos-QNTX/ats/watcher/engine.go's
// map[string]*rate.Limiter per-key throttle shape, keyed here by remote IP
// instead of by watcher id.
type floodGuard struct {
	enabled   bool
	rateLimit rate.Limit
	maxPerIP  int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	active   map[string]int
}

func newFloodGuard(cfg config.Client) *floodGuard {
	return &floodGuard{
		enabled:   cfg.FloodProtection,
		rateLimit: rate.Limit(cfg.FastConnectionLimit),
		maxPerIP:  cfg.MaxConnectionPerIP,
		limiters:  make(map[string]*rate.Limiter),
		active:    make(map[string]int),
	}
}

// admit reports whether a freshly accepted connection from ip may proceed.
// Every ip for which admit returns true must eventually call release(ip)
// exactly once — see guardedAcceptLoop.
func (g *floodGuard) admit(ip string) bool {
	if !g.enabled {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	limiter, ok := g.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(g.rateLimit, int(g.rateLimit))
		g.limiters[ip] = limiter
	}
	if !limiter.Allow() {
		return false
	}

	if g.maxPerIP > 0 && g.active[ip] >= g.maxPerIP {
		return false
	}
	g.active[ip]++
	return true
}

func (g *floodGuard) release(ip string) {
	if !g.enabled {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.active[ip]--
	if g.active[ip] <= 0 {
		delete(g.active, ip)
		delete(g.limiters, ip)
	}
}

// guardedAcceptLoop wraps acceptLoop with g's per-IP admission check,
// closing rejected connections immediately instead of handing them to
// handle.
func guardedAcceptLoop(ctx context.Context, ln net.Listener, g *floodGuard, handle func(context.Context, net.Conn)) error {
	return acceptLoop(ctx, ln, func(ctx context.Context, conn net.Conn) {
		ip := remoteIP(conn)
		if !g.admit(ip) {
			conn.Close()
			return
		}
		defer g.release(ip)
		handle(ctx, conn)
	})
}
