package jobs

import "context"

// Job runs until ctx is done.
type Job interface {
	Process(ctx context.Context)
}
