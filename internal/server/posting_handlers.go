package server

import (
	"time"

	"agrilink/internal/middleware"
	"agrilink/internal/models"
	"agrilink/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPostingPageSize = 50

// CreatePosting handles POST /api/postings. The creating seller becomes the
// posting's immutable owner.
func (s *Server) CreatePosting(c *fiber.Ctx) error {
	seller := middleware.CurrentUser(c)

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Category    string   `json:"category"`
		Images      []string `json:"images"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.Title == "" || req.Description == "" || req.Category == "" || req.Price == 0 {
		return models.RespondWithError(c,
			models.NewValidationError("Please provide all required fields"))
	}
	if req.Price < 0 {
		return models.RespondWithError(c,
			models.NewValidationError("Price must be greater than zero"))
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}

	posting := &models.Posting{
		SellerID:    seller.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      images,
		Active:      true,
		CreatedAt:   time.Now(),
	}

	if err := s.postings.Create(c.Context(), posting); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Posting created successfully",
		"postingId": posting.ID,
		"posting":   posting,
	})
}

// ListPostings handles GET /api/postings. Public; only active postings are
// returned, with optional category/seller/search filters.
func (s *Server) ListPostings(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPostingPageSize)
	filter := repository.PostingFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}

	if sellerID := c.Query("sellerId"); sellerID != "" {
		oid, err := primitive.ObjectIDFromHex(sellerID)
		if err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid seller ID"))
		}
		filter.SellerID = &oid
	}

	postings, err := s.postings.List(c.Context(), filter)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	sellerIDs := make([]primitive.ObjectID, 0, len(postings))
	for _, posting := range postings {
		sellerIDs = append(sellerIDs, posting.SellerID)
	}
	sellers, err := s.sellerSummaries(c.Context(), sellerIDs)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	result := make([]models.PostingWithSeller, 0, len(postings))
	for _, posting := range postings {
		result = append(result, models.PostingWithSeller{
			Posting: posting,
			Seller:  sellers[posting.SellerID],
		})
	}

	return c.JSON(result)
}

// GetPosting handles GET /api/postings/:id. Public; inactive postings are
// reported as not found.
func (s *Server) GetPosting(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	posting, err := s.postings.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if posting == nil || !posting.Active {
		return models.RespondWithError(c, models.NewNotFoundError("Posting not found"))
	}

	sellers, err := s.sellerSummaries(c.Context(), []primitive.ObjectID{posting.SellerID})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(models.PostingWithSeller{
		Posting: *posting,
		Seller:  sellers[posting.SellerID],
	})
}

// UpdatePosting handles PUT /api/postings/:id. Seller role plus ownership
// required.
func (s *Server) UpdatePosting(c *fiber.Ctx) error {
	seller := middleware.CurrentUser(c)

	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Category    string   `json:"category"`
		Images      []string `json:"images"`
		Active      *bool    `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	posting, err := s.postings.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if posting == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Posting not found"))
	}
	if posting.SellerID != seller.ID {
		return models.RespondWithError(c,
			models.NewForbiddenError("Not authorized to update this posting"))
	}

	update := bson.M{}
	if req.Title != "" {
		update["title"] = req.Title
	}
	if req.Description != "" {
		update["description"] = req.Description
	}
	if req.Price > 0 {
		update["price"] = req.Price
	}
	if req.Category != "" {
		update["category"] = req.Category
	}
	if req.Images != nil {
		update["images"] = req.Images
	}
	if req.Active != nil {
		update["active"] = *req.Active
	}

	if len(update) == 0 {
		return models.RespondWithError(c,
			models.NewValidationError("No fields to update"))
	}

	// Ownership is re-checked inside the update filter.
	updated, err := s.postings.Update(c.Context(), id, seller.ID, update)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if updated == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Posting not found"))
	}

	return c.JSON(fiber.Map{
		"message": "Posting updated successfully",
		"posting": updated,
	})
}

// DeletePosting handles DELETE /api/postings/:id. Soft delete only: the
// posting is deactivated, never removed.
func (s *Server) DeletePosting(c *fiber.Ctx) error {
	seller := middleware.CurrentUser(c)

	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	posting, err := s.postings.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if posting == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Posting not found"))
	}
	if posting.SellerID != seller.ID {
		return models.RespondWithError(c,
			models.NewForbiddenError("Not authorized to delete this posting"))
	}

	if err := s.postings.Deactivate(c.Context(), id, seller.ID); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Posting deleted successfully"})
}
