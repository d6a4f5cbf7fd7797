package responders

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/results"
	"golang.org/x/time/rate"
)

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// Visitors maps client addresses to their Visitor.
type Visitors struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu          sync.Mutex
	val         map[string]Visitor
	lastCleanup time.Time
}

// NewVisitors inits visitors that each get limit events per second with bursts of up to burst.
func NewVisitors(limit rate.Limit, burst int) *Visitors {
	return &Visitors{limit: limit, burst: burst, ttl: time.Hour, val: make(map[string]Visitor)}
}

// Fetch retrieves the Visitor for the given key creating a new Visitor if not seen.
func (vs *Visitors) Fetch(key string, now time.Time) Visitor {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.cleanup(now)

	v, ok := vs.val[key]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}

	v.LastSeen = now
	vs.val[key] = v

	return v
}

// Len returns the number of tracked visitors.
func (vs *Visitors) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	return len(vs.val)
}

// cleanup deletes visitors that have not been seen for longer than the ttl, at most once per ttl.
func (vs *Visitors) cleanup(now time.Time) {
	if now.Sub(vs.lastCleanup) < vs.ttl {
		return
	}

	vs.lastCleanup = now
	for key, v := range vs.val {
		if now.Sub(v.LastSeen) > vs.ttl {
			delete(vs.val, key)
		}
	}
}

// RateLimit fails requests with 429 when a client exceeds limit requests per second, with bursts of
// up to burst. Clients are told apart by their remote host.
func RateLimit(limit rate.Limit, burst int) Descriptor {
	return RateLimitVisitors(NewVisitors(limit, burst))
}

// RateLimitVisitors is like RateLimit but with the caller's visitors.
func RateLimitVisitors(visitors *Visitors) Descriptor {
	return Descriptor{
		Name:       "rate-limit",
		Implements: []string{CapabilityRateLimit},
		Needs:      []string{CapabilityRequestID},
		Responder: hyper.HandlerFunc(func(_ context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
			now := time.Now()
			lim := visitors.Fetch(clientKey(hctx), now).Limiter

			if lim.AllowN(now, 1) {
				return results.Success[hyper.Status]()
			}

			msg := "rate limit exceeded for request " + hctx.Metadata[MetadataRequestID]
			st := hyper.NewStatus(hyper.CodeTooManyRequests, nil)
			st.Header = hyper.NewHeader()
			st.Header.MustSet("Retry-After", strconv.Itoa(retryAfter(lim, now)))

			return results.FailureValue(st, results.NewError(msg))
		}),
	}
}

// retryAfter is the number of whole seconds until the limiter has a token again, at least one.
func retryAfter(lim *rate.Limiter, now time.Time) int {
	r := lim.ReserveN(now, 1)
	defer r.CancelAt(now)

	secs := int(r.DelayFrom(now).Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}

	return secs
}

func clientKey(hctx *hyper.Context) string {
	if hctx.Conn == nil {
		return "unknown"
	}

	addr := hctx.Conn.RemoteAddr()
	if addr == nil {
		return "unknown"
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}

	return host
}
