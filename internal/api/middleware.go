package api

import (
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const (
	defaultRateRPS   = 20
	defaultRateBurst = 40
)

// limiterPool holds one token bucket per player (or per remote IP for
// requests outside the world routes).
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	return &limiterPool{
		limiters: map[string]*rate.Limiter{},
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	limiter, ok := p.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(p.rps, p.burst)
		p.limiters[key] = limiter
	}
	return limiter
}

func (s *Server) limitPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["player_id"]
		if key == "" {
			if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = ip
			} else {
				key = r.RemoteAddr
			}
		}
		if !s.limiters.get(key).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
