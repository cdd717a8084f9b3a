package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/middleware"
	"github.com/leadscout/api/internal/model"
	"github.com/leadscout/api/internal/service"
	"github.com/leadscout/api/pkg/response"
)

type ScrapeHandler struct {
	service   *service.ScrapeService
	validator *validator.Validate
}

func NewScrapeHandler(svc *service.ScrapeService, v *validator.Validate) *ScrapeHandler {
	return &ScrapeHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/scrape/start.
// The job runs to completion within the request; the response carries its results.
func (h *ScrapeHandler) Start(c *fiber.Ctx) error {
	req, ok := h.parseRequest(c)
	if !ok {
		return nil
	}

	result, err := h.service.Run(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, "Scrape job failed", err)
	}

	return response.OK(c, model.ScrapeStartResponse{
		Success:    true,
		JobID:      result.JobID,
		Results:    result.Results,
		TotalFound: len(result.Results),
	})
}

// Enqueue handles POST /api/scrape/enqueue
func (h *ScrapeHandler) Enqueue(c *fiber.Ctx) error {
	req, ok := h.parseRequest(c)
	if !ok {
		return nil
	}

	result, err := h.service.Enqueue(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, "Failed to queue scrape job", err)
	}

	return response.Accepted(c, result)
}

// Job handles GET /api/scrape/jobs/:jobId
func (h *ScrapeHandler) Job(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.JobFailure(c, fiber.StatusBadRequest, "Job ID is required", nil, apperr.KindInvalidArgument)
	}

	job, err := h.service.Get(c.UserContext(), jobID)
	if err != nil {
		return response.FromError(c, "job not found", err)
	}

	return response.OK(c, job)
}

// parseRequest binds and validates the body; on failure the response is already written
func (h *ScrapeHandler) parseRequest(c *fiber.Ctx) (model.JobRequest, bool) {
	var req model.JobRequest
	if err := c.BodyParser(&req); err != nil {
		_ = response.JobFailure(c, fiber.StatusBadRequest, "Invalid request body", nil, apperr.KindInvalidArgument)
		return req, false
	}

	if req.SubmitterID == "" {
		req.SubmitterID = middleware.GetUserID(c)
	}

	if err := h.validator.Struct(&req); err != nil {
		_ = response.JobFailure(c, fiber.StatusBadRequest, "Validation failed", formatValidationErrors(err), apperr.KindInvalidArgument)
		return req, false
	}

	return req, true
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
