package application

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/logger"
)

// Retrainer refreshes the anomaly model on a timer and after every batch of evaluated
// events. Scoring keeps using the previous snapshot while a run is in progress.
type Retrainer struct {
	engine   *Engine
	interval time.Duration
	every    int64
	seen     atomic.Int64
	signal   chan struct{}
	log      logger.Logger
}

// NewRetrainer creates a Retrainer for engine.
func NewRetrainer(engine *Engine, interval time.Duration, everyEvents int, log logger.Logger) *Retrainer {
	if interval <= 0 {
		interval = constants.DefaultRetrainInterval
	}
	return &Retrainer{
		engine:   engine,
		interval: interval,
		every:    int64(everyEvents),
		signal:   make(chan struct{}, 1),
		log:      log.WithComponent("Retrainer"),
	}
}

// Observe counts one evaluated event and requests a retrain every N events.
// It never blocks; a pending request absorbs further ones.
func (r *Retrainer) Observe() {
	if r.every <= 0 {
		return
	}
	if r.seen.Add(1)%r.every == 0 {
		r.Trigger()
	}
}

// Trigger requests a retrain without waiting for it.
func (r *Retrainer) Trigger() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Run trains once at start and then on every tick or trigger until ctx is done.
func (r *Retrainer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.retrain(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.retrain(ctx, "interval")
		case <-r.signal:
			r.retrain(ctx, "event_count")
		}
	}
}

func (r *Retrainer) retrain(ctx context.Context, reason string) {
	result, err := r.engine.Retrain(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error(ctx, "retrain failed", err, logger.String("trigger", reason))
		}
		return
	}
	r.log.Debug(ctx, "retrain finished",
		logger.String("trigger", reason),
		logger.Bool("trained", result.Trained),
		logger.Int("samples", result.Samples),
	)
}

//Personal.AI order the ending
