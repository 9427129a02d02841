package board

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/taskboard/internal/storage"
)

// Zones resolves a user's IANA zone. Unknown users, empty names and zones
// that fail to load all fall back to the default.
type Zones struct {
	repo     storage.Repository
	fallback *time.Location
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]*time.Location
}

func NewZones(repo storage.Repository, fallback *time.Location, logger *slog.Logger) *Zones {
	if fallback == nil {
		fallback = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Zones{
		repo:     repo,
		fallback: fallback,
		logger:   logger,
		cache:    make(map[string]*time.Location),
	}
}

func (z *Zones) Default() *time.Location { return z.fallback }

// ForUser looks the user up and resolves their zone.
func (z *Zones) ForUser(ctx context.Context, userID string) *time.Location {
	u, err := z.repo.GetUser(ctx, userID)
	if err != nil {
		z.logger.Warn("timezone lookup failed, using default", "user_id", userID, "zone", z.fallback.String(), "err", err)
		return z.fallback
	}
	return z.Resolve(u)
}

func (z *Zones) Resolve(u storage.User) *time.Location {
	name := strings.TrimSpace(u.Timezone)
	if name == "" {
		return z.fallback
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	if loc, ok := z.cache[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Failures are not cached.
		z.logger.Warn("unknown timezone, using default", "user_id", u.ID, "zone", name, "err", err)
		return z.fallback
	}
	z.cache[name] = loc
	return loc
}
