package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/motu-crew/crewboard/pkg/httpapi"
)

type RateLimitConfig struct {
	RequestsPerPeriod int
	Period            time.Duration
	Store             limiter.Store
	RealIPHeader      string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{
		Prefix: "crewboard:ratelimit",
	})
}

// RateLimit limits requests per client IP. A non-positive rate disables the limiter.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	if cfg.RequestsPerPeriod <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	period := cfg.Period
	if period <= 0 {
		period = time.Second
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	rate := limiter.Rate{Period: period, Limit: int64(cfg.RequestsPerPeriod)}

	var ipOpts limiter.Option
	if cfg.RealIPHeader != "" {
		ipOpts = limiter.WithClientIPHeader(cfg.RealIPHeader)
	} else {
		ipOpts = limiter.WithTrustForwardHeader(false)
	}
	instance := limiter.New(store, rate, ipOpts)

	m := mhttp.NewMiddleware(instance,
		mhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.WriteRequestError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		}),
	)
	return m.Handler
}
