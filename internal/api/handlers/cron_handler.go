package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
)

type CronHandler struct {
	scheduler  service.SchedulerService
	engagement service.EngagementService
	health     service.HealthService
}

func NewCronHandler(scheduler service.SchedulerService, engagement service.EngagementService, health service.HealthService) *CronHandler {
	return &CronHandler{
		scheduler:  scheduler,
		engagement: engagement,
		health:     health,
	}
}

func (h *CronHandler) ProcessPosts(c *fiber.Ctx) error {
	result, err := h.scheduler.ProcessDuePosts(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to process due posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CronHandler) CollectEngagement(c *fiber.Ctx) error {
	summary, err := h.engagement.Collect(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to collect engagement",
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *CronHandler) HealthCheck(c *fiber.Ctx) error {
	summary, err := h.health.Run(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to run health check",
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
