package server

import (
	"time"

	"agrilink/internal/middleware"
	"agrilink/internal/models"
	"agrilink/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultDemandPageSize = 50

// CreateDemand handles POST /api/demands.
func (s *Server) CreateDemand(c *fiber.Ctx) error {
	buyer := middleware.CurrentUser(c)

	var req struct {
		ProductType      string   `json:"productType"`
		ProductName      string   `json:"productName"`
		Quantity         string   `json:"quantity"`
		DeliveryDate     string   `json:"deliveryDate"`
		DeliveryLocation string   `json:"deliveryLocation"`
		Latitude         *float64 `json:"latitude"`
		Longitude        *float64 `json:"longitude"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.ProductType == "" || req.ProductName == "" || req.Quantity == "" ||
		req.DeliveryDate == "" || req.DeliveryLocation == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Please provide all required fields"))
	}
	if req.Latitude == nil || req.Longitude == nil {
		return models.RespondWithError(c,
			models.NewValidationError("Please provide valid coordinates"))
	}

	demand := &models.Demand{
		BuyerID:          buyer.ID,
		ProductType:      req.ProductType,
		ProductName:      req.ProductName,
		Quantity:         req.Quantity,
		DeliveryDate:     req.DeliveryDate,
		DeliveryLocation: req.DeliveryLocation,
		Coordinates: models.Coordinates{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		},
		Status:    models.DemandStatusActive,
		Responses: []models.DemandResponse{},
		CreatedAt: time.Now(),
	}

	if err := s.demands.Create(c.Context(), demand); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Demand created successfully",
		"demandId": demand.ID,
		"demand":   demand,
	})
}

// ListDemands handles GET /api/demands. Defaults to active demands; any
// authenticated user may browse.
func (s *Server) ListDemands(c *fiber.Ctx) error {
	p := parsePagination(c, defaultDemandPageSize)
	filter := repository.DemandFilter{
		ProductType: c.Query("productType"),
		Limit:       p.Limit,
		Offset:      p.Offset,
	}
	if status := c.Query("status"); status != "" {
		ds := models.DemandStatus(status)
		if !ds.Valid() {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid status"))
		}
		filter.Status = ds
	}

	demands, err := s.demands.List(c.Context(), filter)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.joinDemandBuyers(c, demands); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(demands)
}

// MyDemands handles GET /api/demands/my-demands, returning the owning
// buyer's demands with responding sellers joined in.
func (s *Server) MyDemands(c *fiber.Ctx) error {
	buyer := middleware.CurrentUser(c)

	demands, err := s.demands.ListByBuyer(c.Context(), buyer.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.joinResponseSellers(c, demands); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(demands)
}

// GetDemand handles GET /api/demands/:id.
func (s *Server) GetDemand(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	demand, err := s.demands.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if demand == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Demand not found"))
	}

	demands := []models.Demand{*demand}
	if err := s.joinDemandBuyers(c, demands); err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.joinResponseSellers(c, demands); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(demands[0])
}

// RespondToDemand handles POST /api/demands/:id/respond. A demand holds at
// most one response per seller; the append is conditional on the demand still
// being active with no prior response from this seller.
func (s *Server) RespondToDemand(c *fiber.Ctx) error {
	seller := middleware.CurrentUser(c)

	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message     string   `json:"message"`
		Price       *float64 `json:"price"`
		ContactInfo string   `json:"contactInfo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if req.Message == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Message is required"))
	}

	demand, err := s.demands.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if demand == nil || demand.Status != models.DemandStatusActive {
		return models.RespondWithError(c,
			models.NewNotFoundError("Demand not found or not active"))
	}
	if demand.HasResponseFrom(seller.ID) {
		return models.RespondWithError(c,
			models.NewConflictError("You have already responded to this demand"))
	}

	contactInfo := req.ContactInfo
	if contactInfo == "" && seller.SellerProfile != nil {
		contactInfo = seller.SellerProfile.ContactInfo
	}

	response := models.DemandResponse{
		SellerID:    seller.ID,
		Message:     req.Message,
		Price:       req.Price,
		ContactInfo: contactInfo,
		CreatedAt:   time.Now(),
	}

	added, err := s.demands.AddResponse(c.Context(), demand.ID, response)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if !added {
		// Lost the race: the demand closed or the seller's earlier response
		// landed first.
		return models.RespondWithError(c,
			models.NewConflictError("You have already responded to this demand"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Response added successfully",
	})
}

// UpdateDemandStatus handles PATCH /api/demands/:id. Only the owning buyer
// may close a demand, and only to a terminal status.
func (s *Server) UpdateDemandStatus(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status models.DemandStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if req.Status != models.DemandStatusFulfilled && req.Status != models.DemandStatusCancelled {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid status"))
	}

	demand, err := s.demands.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if demand == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Demand not found"))
	}
	if demand.BuyerID != current.ID {
		return models.RespondWithError(c,
			models.NewForbiddenError("Not authorized to update this demand"))
	}
	if demand.Status != models.DemandStatusActive {
		return models.RespondWithError(c,
			models.NewConflictError("Demand is no longer active"))
	}

	updated, err := s.demands.UpdateStatus(c.Context(), demand.ID, current.ID, req.Status)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if !updated {
		return models.RespondWithError(c,
			models.NewConflictError("Demand is no longer active"))
	}

	demand.Status = req.Status
	return c.JSON(fiber.Map{
		"message": "Demand status updated successfully",
		"demand":  demand,
	})
}

// joinDemandBuyers fills in the buyer summary on each demand in place.
func (s *Server) joinDemandBuyers(c *fiber.Ctx, demands []models.Demand) error {
	buyerIDs := make([]primitive.ObjectID, 0, len(demands))
	for _, demand := range demands {
		buyerIDs = append(buyerIDs, demand.BuyerID)
	}
	buyers, err := s.buyerSummaries(c.Context(), buyerIDs)
	if err != nil {
		return err
	}
	for i := range demands {
		demands[i].Buyer = buyers[demands[i].BuyerID]
	}
	return nil
}

// joinResponseSellers fills in the seller summary on every response of every
// demand in place.
func (s *Server) joinResponseSellers(c *fiber.Ctx, demands []models.Demand) error {
	var sellerIDs []primitive.ObjectID
	for _, demand := range demands {
		for _, response := range demand.Responses {
			sellerIDs = append(sellerIDs, response.SellerID)
		}
	}
	if len(sellerIDs) == 0 {
		return nil
	}
	sellers, err := s.sellerSummaries(c.Context(), sellerIDs)
	if err != nil {
		return err
	}
	for i := range demands {
		for j := range demands[i].Responses {
			demands[i].Responses[j].Seller = sellers[demands[i].Responses[j].SellerID]
		}
	}
	return nil
}
