package probeserver

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/portmesh-go/pkg/cmap"
)

// DefaultSweepInterval is how often idle peer limiters are removed.
const DefaultSweepInterval = time.Minute

// Admission limits how fast each peer IP may open connections, across all
// listeners. A nil *Admission admits everything.
type Admission struct {
	limit rate.Limit
	burst int
	peers *cmap.Map[string, *peerLimiter]
	now   func() time.Time
}

type peerLimiter struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewAdmission returns an admission controller allowing perSecond new
// connections per peer IP with the given burst. It returns nil when
// perSecond is not positive, which disables admission control.
func NewAdmission(perSecond float64, burst int) *Admission {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Admission{
		limit: rate.Limit(perSecond),
		burst: burst,
		peers: cmap.New[string, *peerLimiter](),
		now:   time.Now,
	}
}

// Allow reports whether a new connection from addr may be served.
func (a *Admission) Allow(addr net.Addr) bool {
	if a == nil || addr == nil {
		return true
	}

	pl, _ := a.peers.GetOrCreate(peerKey(addr), func() *peerLimiter {
		return &peerLimiter{lim: rate.NewLimiter(a.limit, a.burst)}
	})

	now := a.now()
	pl.lastSeen.Store(now.UnixNano())
	return pl.lim.AllowN(now, 1)
}

// Sweep drops limiters not used for longer than idle and returns how many
// were removed.
func (a *Admission) Sweep(idle time.Duration) int {
	if a == nil {
		return 0
	}
	cutoff := a.now().Add(-idle).UnixNano()
	return a.peers.DeleteIf(func(_ string, pl *peerLimiter) bool {
		return pl.lastSeen.Load() < cutoff
	})
}

// Len returns the number of tracked peers.
func (a *Admission) Len() int {
	if a == nil {
		return 0
	}
	return a.peers.Count()
}

// RunSweeper sweeps idle limiters every interval until ctx is done.
func (a *Admission) RunSweeper(ctx context.Context, interval time.Duration) {
	if a == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Sweep(interval)
		}
	}
}

func peerKey(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
