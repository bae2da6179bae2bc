package job

import (
	"context"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/service"
)

type HealthCheckJob struct {
	health service.HealthService
}

func NewHealthCheckJob(health service.HealthService) *HealthCheckJob {
	return &HealthCheckJob{health: health}
}

func (j *HealthCheckJob) Run() {
	ctx := context.Background()

	summary, err := j.health.Run(ctx)
	if err != nil {
		slog.Error("health sweep failed", "error", err)
		return
	}
	slog.Info("health sweep finished", "counters_reset", summary.DailyCountersReset)
}
