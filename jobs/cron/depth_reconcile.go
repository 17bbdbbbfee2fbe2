package cron

import (
	"context"

	"github.com/jasonlvhit/gocron"

	"github.com/zsmartex/tradecore/config"
)

type Reloader interface {
	Reload(ctx context.Context, symbol string) error
}

// DepthReconcileJob periodically rebuilds the display depth of every engine
// from the resting orders in the store.
type DepthReconcileJob struct {
	Engines  Reloader
	Interval uint64
}

func NewDepthReconcileJob(engines Reloader, interval uint64) *DepthReconcileJob {
	if interval == 0 {
		interval = 30
	}

	return &DepthReconcileJob{
		Engines:  engines,
		Interval: interval,
	}
}

func (j *DepthReconcileJob) Process(ctx context.Context) {
	s := gocron.NewScheduler()
	s.Every(j.Interval).Seconds().Do(j.Reconcile, ctx)
	stopped := s.Start()

	<-ctx.Done()
	s.Clear()
	stopped <- true
}

func (j *DepthReconcileJob) Reconcile(ctx context.Context) {
	if err := j.Engines.Reload(ctx, "all"); err != nil {
		config.Logger.Errorf("Failed to reconcile depth: %v", err)
	}
}
