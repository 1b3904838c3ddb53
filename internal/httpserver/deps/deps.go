package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/command"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/view"
)

// Storage is the status view of the configured persister.
type Storage interface {
	Name() string
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	PageTitle    string
	Dispatcher   *command.Dispatcher // owns the library store
	Board        *view.Board         // what the shelf page shows
	Renderer     *view.Renderer
	Storage      Storage // nil when running memory-only
	CoversDir    string  // optional directory served under /covers/
	AllowedHosts []string
	AllowedCIDRS []string // IPs allowed to access healthz/readyz/infra
	TrustProxy   bool
	RateLimit    func(http.Handler) http.Handler // shared limiter for mutating routes
}
