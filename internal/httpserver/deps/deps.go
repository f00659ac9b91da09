package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/logger"
)

// ActionLog reads back recorded operator actions.
type ActionLog interface {
	RecentActions(ctx context.Context, n int) ([]domain.ActionRecord, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to reach the probes and mutating routes
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	APIBase      string           // monitoring API base, shown in /api/infra

	Console     *console.Controller // the view-model every route reads from
	RedisClient *redis.Client       // nil when the warm-start cache is disabled
	Actions     ActionLog           // nil when the warm-start cache is disabled

	// RateLimit guards mutating routes; one instance shares one budget.
	RateLimit func(http.Handler) http.Handler
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
