package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"clubgate/internal/identity"
	"clubgate/pkg/platform/sentinel"
)

var (
	hydrationDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clubgate_menu_hydration_duration_ms",
		Help:    "Latency of menu hydrations in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	hydrationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubgate_menu_hydration_fallbacks_total",
		Help: "Hydrations that degraded to the static role-indexed dataset",
	})
)

// Fetcher is the upstream transport collaborator.
type Fetcher interface {
	FetchUserMenuTree(ctx context.Context, bearer string) ([]Node, error)
}

// Cache holds one session's menu tree and derived permission set. It hydrates
// at most once per session; Clear (logout) resets it for the next login.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	group singleflight.Group

	mu          sync.RWMutex
	tree        []Node
	permissions PermissionSet
	initialized bool
	degraded    bool
}

func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	return &Cache{
		fetcher:     fetcher,
		logger:      logger,
		permissions: make(PermissionSet),
	}
}

// Hydrate fetches the role-scoped tree and atomically replaces the held tree
// and recomputed permission set. Already-hydrated caches return immediately.
// An unreachable upstream degrades to the fallback dataset for the identity's
// role; only a rejected credential propagates as an error.
func (c *Cache) Hydrate(ctx context.Context, ident identity.Identity) error {
	if c.Initialized() {
		return nil
	}

	ctx, span := otel.Tracer("clubgate/menu").Start(ctx, "menu.Hydrate")
	defer span.End()

	start := time.Now()
	defer func() {
		hydrationDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	// Concurrent navigations in one session collapse onto a single fetch.
	_, err, _ := c.group.Do("hydrate", func() (any, error) {
		tree, err := c.fetcher.FetchUserMenuTree(ctx, ident.Token)
		if err != nil {
			if errors.Is(err, sentinel.ErrAuthRejected) {
				return nil, err
			}
			hydrationFallbacks.Inc()
			c.logger.WarnContext(ctx, "menu fetch failed, serving fallback dataset",
				"role_id", ident.RoleID,
				"error", err,
			)
			fb := FallbackFor(ident)
			c.apply(fb.Menus, NewPermissionSet(fb.Permissions), true)
			return nil, nil
		}
		c.apply(tree, Permissions(tree), false)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("hydrate menus: %w", err)
	}
	return nil
}

// apply installs a tree unless another hydration won the race; a stale result
// arriving after the cache initialized is discarded.
func (c *Cache) apply(tree []Node, perms PermissionSet, degraded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return
	}
	c.tree = tree
	c.permissions = perms
	c.degraded = degraded
	c.initialized = true
}

// Initialized reports whether this session already hydrated.
func (c *Cache) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Degraded reports whether the current dataset is the static fallback.
func (c *Cache) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// CheckPermission is a pure lookup against the current permission set. It
// returns false, never an error, for unknown or empty codes.
func (c *Cache) CheckPermission(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.permissions.Has(code)
}

// Tree returns a snapshot of the current menu tree for the view layer.
func (c *Cache) Tree() []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Node, len(c.tree))
	copy(out, c.tree)
	return out
}

// PermissionCodes returns the derived codes, order unspecified.
func (c *Cache) PermissionCodes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.permissions.Codes()
}

// Clear resets tree, permission set and the initialized flag. Called only on
// logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree = nil
	c.permissions = make(PermissionSet)
	c.initialized = false
	c.degraded = false
}
