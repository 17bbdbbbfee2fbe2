package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type recordingReloader struct {
	sync.Mutex
	symbols []string
	err     error
}

func (r *recordingReloader) Reload(_ context.Context, symbol string) error {
	r.Lock()
	defer r.Unlock()

	r.symbols = append(r.symbols, symbol)
	return r.err
}

func (r *recordingReloader) calls() int {
	r.Lock()
	defer r.Unlock()

	return len(r.symbols)
}

type suiteCronTester struct {
	suite.Suite
}

func (s *suiteCronTester) TestReconcileReloadsAllEngines() {
	reloader := &recordingReloader{}
	job := NewDepthReconcileJob(reloader, 0)
	s.Equal(uint64(30), job.Interval)

	job.Reconcile(context.Background())
	s.Equal([]string{"all"}, reloader.symbols)

	reloader.err = errors.New("store closed")
	job.Reconcile(context.Background())
	s.Equal(2, reloader.calls())
}

func (s *suiteCronTester) TestProcessStopsWithContext() {
	reloader := &recordingReloader{}
	job := NewDepthReconcileJob(reloader, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Process(ctx)
		close(done)
	}()

	s.Eventually(func() bool { return reloader.calls() > 0 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.Fail("job did not stop")
	}
}

func TestCron(t *testing.T) {
	suite.Run(t, new(suiteCronTester))
}
