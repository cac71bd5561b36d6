package server

import (
	"agrilink/internal/middleware"
	"agrilink/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
)

// GetMe handles GET /api/users/me.
func (s *Server) GetMe(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	user, err := s.users.GetByID(c.Context(), current.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, models.NewNotFoundError("User not found"))
	}

	return c.JSON(fiber.Map{
		"userId":        user.ID,
		"name":          user.Name,
		"phone":         user.Phone,
		"userType":      user.UserType,
		"profileImage":  user.ProfileImage,
		"address":       user.Address,
		"buyerProfile":  user.BuyerProfile,
		"sellerProfile": user.SellerProfile,
		"isActive":      user.IsActive,
		"createdAt":     user.CreatedAt,
	})
}

// UpdateProfile handles PUT /api/users/profile. Only provided fields change;
// sub-profile updates are gated to the account's own role.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	var req struct {
		Name          string                `json:"name"`
		ProfileImage  string                `json:"profileImage"`
		Address       string                `json:"address"`
		BuyerProfile  *models.BuyerProfile  `json:"buyerProfile"`
		SellerProfile *models.SellerProfile `json:"sellerProfile"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	update := bson.M{}
	if req.Name != "" {
		update["name"] = req.Name
	}
	if req.ProfileImage != "" {
		update["profileImage"] = req.ProfileImage
	}
	if req.Address != "" {
		update["address"] = req.Address
	}
	if current.UserType == models.UserTypeBuyer && req.BuyerProfile != nil {
		update["buyerProfile"] = req.BuyerProfile
	}
	if current.UserType == models.UserTypeSeller && req.SellerProfile != nil {
		// The aggregate rating is derived from feedback, never client-set.
		req.SellerProfile.Rating = 0
		if current.SellerProfile != nil {
			req.SellerProfile.Rating = current.SellerProfile.Rating
		}
		update["sellerProfile"] = req.SellerProfile
	}

	if len(update) == 0 {
		return models.RespondWithError(c,
			models.NewValidationError("No fields to update"))
	}

	user, err := s.users.UpdateProfile(c.Context(), current.ID, update)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, models.NewNotFoundError("User not found"))
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user.PublicWithProfile(),
	})
}
