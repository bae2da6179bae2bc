package queue

import (
	"github.com/postpilothq/postpilot/internal/service"
)

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

// Queue handles asynq publish triggers. The worker funnels into the same
// conditional claim the cron sweep uses, so duplicate firing is harmless.
type Queue struct {
	scheduler service.SchedulerService
}

func NewQueue(scheduler service.SchedulerService) *Queue {
	return &Queue{scheduler: scheduler}
}
