package reconciler

import (
	"context"
	"time"

	"github.com/weiawesome/yaycha/internal/config"
	"github.com/weiawesome/yaycha/internal/store"
	"github.com/weiawesome/yaycha/pkg/log"
)

const (
	defaultInterval = time.Minute
	defaultTopN     = 100
)

// CountSource returns the authoritative followers count of a user.
type CountSource interface {
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
}

// Reconciler periodically rewrites the cached followers counts of the most
// read users from the database, correcting drift from missed updates.
type Reconciler struct {
	store  store.FollowStore
	source CountSource
	cfg    config.ReconcilerConfig
	quit   chan struct{}
	doneCh chan struct{}
}

func New(store store.FollowStore, source CountSource, cfg config.ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	return &Reconciler{
		store:  store,
		source: source,
		cfg:    cfg,
		quit:   make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the reconciler in the background until Stop is called or ctx
// is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop. Wait on Done for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile runs one cycle and returns how many users were refreshed.
func (r *Reconciler) Reconcile(ctx context.Context) int {
	l := log.Ctx(ctx)

	userIDs, err := r.store.GetTopHotKeys(ctx, int64(r.cfg.TopN))
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get top hot keys")
		return 0
	}
	if len(userIDs) == 0 {
		l.Debug().Msg("reconciler: no hot keys to reconcile")
		return 0
	}

	refreshed := 0
	for _, userID := range userIDs {
		count, err := r.source.GetFollowersCount(ctx, userID)
		if err != nil {
			l.Error().Err(err).Uint(log.FieldUserID, userID).Msg("reconciler: failed to get followers count from db")
			continue
		}
		if err := r.store.SetFollowersCount(ctx, userID, count); err != nil {
			l.Error().Err(err).Uint(log.FieldUserID, userID).Msg("reconciler: failed to set followers count")
			continue
		}
		refreshed++
	}

	// Scores restart each cycle so the set tracks current traffic.
	if err := r.store.ResetHotKeyScores(ctx); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to reset hot key scores")
	}

	l.Info().Int("hot_keys", len(userIDs)).Int("refreshed", refreshed).Msg("reconciler: hot-key reconciliation complete")
	return refreshed
}
