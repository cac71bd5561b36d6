package server

import (
	"time"

	"agrilink/internal/middleware"
	"agrilink/internal/models"
	"agrilink/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateOrder handles POST /api/orders. The total price is snapshotted from
// the posting at creation time and never recomputed.
func (s *Server) CreateOrder(c *fiber.Ctx) error {
	buyer := middleware.CurrentUser(c)

	var req struct {
		PostingID string `json:"postingId"`
		Quantity  *int   `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.PostingID == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Posting ID is required"))
	}
	postingID, err := primitive.ObjectIDFromHex(req.PostingID)
	if err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid posting ID"))
	}

	quantity := 1
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid quantity"))
		}
		quantity = *req.Quantity
	}

	posting, err := s.postings.GetByID(c.Context(), postingID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if posting == nil || !posting.Active {
		return models.RespondWithError(c,
			models.NewNotFoundError("Posting not found or inactive"))
	}

	order := &models.Order{
		BuyerID:    buyer.ID,
		PostingID:  posting.ID,
		Status:     models.OrderStatusPending,
		Quantity:   quantity,
		TotalPrice: posting.Price * float64(quantity),
		CreatedAt:  time.Now(),
	}

	if err := s.orders.Create(c.Context(), order); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"orderId": order.ID,
		"order":   order,
	})
}

// ListBuyerOrders handles GET /api/orders/buyer, returning the caller's
// orders with their posting summaries joined in.
func (s *Server) ListBuyerOrders(c *fiber.Ctx) error {
	buyer := middleware.CurrentUser(c)

	orders, err := s.orders.ListByBuyer(c.Context(), buyer.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	postingIDs := make([]primitive.ObjectID, 0, len(orders))
	for _, order := range orders {
		postingIDs = append(postingIDs, order.PostingID)
	}
	postings, err := s.postings.GetByIDs(c.Context(), dedupeIDs(postingIDs))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	summaries := make(map[primitive.ObjectID]*models.OrderPostingSummary, len(postings))
	for _, posting := range postings {
		summaries[posting.ID] = &models.OrderPostingSummary{
			ID:     posting.ID,
			Title:  posting.Title,
			Price:  posting.Price,
			Images: posting.Images,
		}
	}

	result := make([]models.OrderWithDetails, 0, len(orders))
	for _, order := range orders {
		result = append(result, models.OrderWithDetails{
			Order:   order,
			Posting: summaries[order.PostingID],
		})
	}

	return c.JSON(result)
}

// ListSellerOrders handles GET /api/orders/seller. Sellers have no direct
// reference on orders, so the lookup goes through their postings.
func (s *Server) ListSellerOrders(c *fiber.Ctx) error {
	seller := middleware.CurrentUser(c)

	postings, err := s.postings.ListBySeller(c.Context(), seller.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	postingIDs := make([]primitive.ObjectID, 0, len(postings))
	summaries := make(map[primitive.ObjectID]*models.OrderPostingSummary, len(postings))
	for _, posting := range postings {
		postingIDs = append(postingIDs, posting.ID)
		summaries[posting.ID] = &models.OrderPostingSummary{
			ID:     posting.ID,
			Title:  posting.Title,
			Price:  posting.Price,
			Images: posting.Images,
		}
	}

	orders, err := s.orders.ListByPostingIDs(c.Context(), postingIDs)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	buyerIDs := make([]primitive.ObjectID, 0, len(orders))
	for _, order := range orders {
		buyerIDs = append(buyerIDs, order.BuyerID)
	}
	buyers, err := s.buyerSummaries(c.Context(), buyerIDs)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	result := make([]models.OrderWithDetails, 0, len(orders))
	for _, order := range orders {
		result = append(result, models.OrderWithDetails{
			Order:   order,
			Posting: summaries[order.PostingID],
			Buyer:   buyers[order.BuyerID],
		})
	}

	return c.JSON(result)
}

// UpdateOrderStatus handles PUT /api/orders/:id/status. Only the seller who
// owns the underlying posting may advance an order, and only along the
// pending -> ready_for_delivery -> completed lifecycle (cancellation from
// either non-terminal state). The swap itself is conditional on the current
// status, so concurrent transitions cannot both win.
func (s *Server) UpdateOrderStatus(c *fiber.Ctx) error {
	seller := middleware.CurrentUser(c)

	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if !req.Status.Valid() {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid status"))
	}

	order, err := s.orders.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if order == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Order not found"))
	}

	posting, err := s.postings.GetByID(c.Context(), order.PostingID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if posting == nil || posting.SellerID != seller.ID {
		return models.RespondWithError(c,
			models.NewForbiddenError("Not authorized to update this order"))
	}

	if !order.Status.CanTransitionTo(req.Status) {
		return models.RespondWithError(c, models.NewConflictError(
			"Cannot change order status from "+string(order.Status)+" to "+string(req.Status)))
	}

	updated, err := s.orders.UpdateStatus(c.Context(), order.ID, order.Status, req.Status)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if !updated {
		// A concurrent transition moved the order first.
		return models.RespondWithError(c,
			models.NewConflictError("Order status changed concurrently"))
	}

	order.Status = req.Status
	return c.JSON(fiber.Map{
		"message": "Order status updated to " + string(req.Status),
		"order":   order,
	})
}

// CreateFeedback handles POST /api/orders/:id/feedback. One feedback per
// order, buyers only, and only after delivery completed. The resulting seller
// rating is the mean over all feedback on the seller's orders.
func (s *Server) CreateFeedback(c *fiber.Ctx) error {
	buyer := middleware.CurrentUser(c)

	orderID, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidateRating(req.Rating); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}

	order, err := s.orders.GetByID(c.Context(), orderID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if order == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Order not found"))
	}
	if order.BuyerID != buyer.ID {
		return models.RespondWithError(c,
			models.NewForbiddenError("Not authorized to leave feedback on this order"))
	}
	if order.Status != models.OrderStatusCompleted {
		return models.RespondWithError(c,
			models.NewConflictError("Order must be completed before leaving feedback"))
	}

	posting, err := s.postings.GetByID(c.Context(), order.PostingID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if posting == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Posting not found"))
	}

	feedback := &models.Feedback{
		OrderID:   order.ID,
		SellerID:  posting.SellerID,
		BuyerID:   buyer.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}

	// The unique orderId index turns a duplicate into a conflict error.
	if err := s.feedback.Create(c.Context(), feedback); err != nil {
		return models.RespondWithError(c, err)
	}

	avg, err := s.feedback.AverageRatingForSeller(c.Context(), posting.SellerID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.users.SetSellerRating(c.Context(), posting.SellerID, avg); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Feedback submitted successfully",
		"feedback": feedback,
	})
}
