package server

import (
	"time"

	"agrilink/internal/middleware"
	"agrilink/internal/models"
	"agrilink/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Register handles POST /api/users/register. A session is issued immediately
// so registration doubles as login.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name            string          `json:"name"`
		Phone           string          `json:"phone"`
		Password        string          `json:"password"`
		ConfirmPassword string          `json:"confirmPassword"`
		Address         string          `json:"address"`
		ProfileImage    string          `json:"profileImage"`
		UserType        models.UserType `json:"userType"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name == "" || req.Phone == "" || req.Password == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Please provide all required fields (name, phone, password)"))
	}
	if req.Password != req.ConfirmPassword {
		return models.RespondWithError(c,
			models.NewValidationError("Passwords do not match"))
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}

	userType := req.UserType
	if userType == "" {
		userType = models.UserTypeBuyer
	}
	if !userType.Valid() {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid user type"))
	}

	existing, err := s.users.GetByPhone(c.Context(), req.Phone)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c,
			models.NewConflictError("Phone number already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		UserType:     userType,
		ProfileImage: req.ProfileImage,
		Address:      req.Address,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	// Role-appropriate empty sub-profile
	switch userType {
	case models.UserTypeBuyer:
		user.BuyerProfile = &models.BuyerProfile{
			PreferredCategories: []string{},
			DeliveryAddress:     req.Address,
		}
	case models.UserTypeSeller:
		user.SellerProfile = &models.SellerProfile{
			ContactInfo: req.Phone,
		}
	}

	if err := s.users.Create(c.Context(), user); err != nil {
		return models.RespondWithError(c, err)
	}

	token, err := s.sessions.Create(c.Context(), user.ID.Hex())
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "User registered successfully",
		"userId":   user.ID,
		"userType": user.UserType,
		"token":    token,
		"user":     user.Public(),
	})
}

// Login handles POST /api/users/login. Sessions are additive: logging in
// again does not invalidate earlier tokens.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.Phone == "" || req.Password == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Phone and password are required"))
	}

	user, err := s.users.GetByPhone(c.Context(), req.Phone)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if user == nil || !user.IsActive {
		return models.RespondWithError(c,
			models.NewUnauthenticatedError("Invalid credentials"))
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return models.RespondWithError(c,
			models.NewUnauthenticatedError("Invalid credentials"))
	}

	token, err := s.sessions.Create(c.Context(), user.ID.Hex())
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"userId":   user.ID,
		"userType": user.UserType,
		"token":    token,
		"user":     user.PublicWithProfile(),
	})
}

// Logout handles POST /api/users/logout. Deleting an already-deleted session
// still succeeds.
func (s *Server) Logout(c *fiber.Ctx) error {
	token := middleware.SessionToken(c)
	if err := s.sessions.Delete(c.Context(), token); err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:    "session",
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
	})

	return c.JSON(fiber.Map{"message": "Logout successful"})
}
