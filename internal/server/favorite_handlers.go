package server

import (
	"agrilink/internal/middleware"
	"agrilink/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFavorites handles GET /api/favorites. Favorited users are returned in
// their public projection.
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	users, err := s.users.ListFavorites(c.Context(), current.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	favorites := make([]models.PublicUser, 0, len(users))
	for i := range users {
		favorites = append(favorites, users[i].PublicWithProfile())
	}

	return c.JSON(favorites)
}

// AddFavorite handles POST /api/favorites/:userId.
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	targetID, err := parseObjectID(c, "userId")
	if err != nil {
		return nil
	}
	if targetID == current.ID {
		return models.RespondWithError(c,
			models.NewValidationError("Cannot favorite yourself"))
	}

	target, err := s.users.GetByID(c.Context(), targetID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if target == nil {
		return models.RespondWithError(c, models.NewNotFoundError("User not found"))
	}

	// The repository rejects duplicates atomically.
	if err := s.users.AddFavorite(c.Context(), current.ID, targetID); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Added to favorites successfully"})
}

// RemoveFavorite handles DELETE /api/favorites/:userId. Removing a user who
// is not in the list still succeeds.
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	targetID, err := parseObjectID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.users.RemoveFavorite(c.Context(), current.ID, targetID); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Removed from favorites successfully"})
}
