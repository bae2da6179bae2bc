package job

import (
	"context"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/service"
)

// ProcessPostsJob is the cron sweep that catches due posts whose queue
// trigger was lost or never enqueued.
type ProcessPostsJob struct {
	scheduler service.SchedulerService
}

func NewProcessPostsJob(scheduler service.SchedulerService) *ProcessPostsJob {
	return &ProcessPostsJob{scheduler: scheduler}
}

func (j *ProcessPostsJob) Run() {
	ctx := context.Background()

	result, err := j.scheduler.ProcessDuePosts(ctx)
	if err != nil {
		slog.Error("post sweep failed", "error", err)
		return
	}
	if result.Processed > 0 {
		slog.Info("post sweep finished", "processed", result.Processed)
	}
}
