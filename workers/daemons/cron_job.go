package daemons

import (
	"context"
	"sync"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/jobs"
	"github.com/zsmartex/tradecore/jobs/cron"
	"github.com/zsmartex/tradecore/server"
)

type CronJob struct {
	Jobs []jobs.Job
	wg   sync.WaitGroup
}

func NewCronJob(engines *server.EngineServer, cfg config.JobsConfig) *CronJob {
	jobs := []jobs.Job{cron.NewDepthReconcileJob(engines, cfg.DepthReconcileSeconds)}

	return &CronJob{Jobs: jobs}
}

// Start runs every job until ctx is done.
func (c *CronJob) Start(ctx context.Context) {
	for _, job := range c.Jobs {
		c.wg.Add(1)
		go c.Process(ctx, job)
	}
}

// Wait blocks until every job has returned.
func (c *CronJob) Wait() {
	c.wg.Wait()
}

func (c *CronJob) Process(ctx context.Context, job jobs.Job) {
	defer c.wg.Done()

	job.Process(ctx)
}
