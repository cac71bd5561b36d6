package server

import (
	"agrilink/internal/models"

	"github.com/gofiber/fiber/v2"
)

// EvaluateImage handles POST /api/ai/evaluate-image, relaying a produce image
// to the freshness evaluation service and returning its verdict unchanged.
func (s *Server) EvaluateImage(c *fiber.Ctx) error {
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if req.ImageURL == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Image URL is required"))
	}

	verdict, err := s.ai.EvaluateImage(c.Context(), req.ImageURL)
	if err != nil {
		return models.RespondWithError(c,
			models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(verdict)
}
