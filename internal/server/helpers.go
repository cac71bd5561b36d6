package server

import (
	"context"
	"errors"

	"agrilink/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// a second response being written.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given
// default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseObjectID extracts a route parameter as a Mongo object id. On failure
// it writes a 400 JSON response and returns errResponseWritten; callers
// should check: if err != nil { return nil }.
func parseObjectID(c *fiber.Ctx, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return primitive.NilObjectID, errResponseWritten
	}
	return id, nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	switch param {
	case "id":
		return "ID"
	case "userId":
		return "user ID"
	}
	return param
}

// dedupeIDs removes duplicate object ids, preserving first-seen order.
func dedupeIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sellerSummaries loads the given users and maps them to joined seller
// identities.
func (s *Server) sellerSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.SellerSummary, error) {
	users, err := s.users.GetByIDs(ctx, dedupeIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]*models.SellerSummary, len(users))
	for i := range users {
		out[users[i].ID] = models.SellerSummaryOf(&users[i])
	}
	return out, nil
}

// buyerSummaries loads the given users and maps them to joined buyer
// identities.
func (s *Server) buyerSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.BuyerSummary, error) {
	users, err := s.users.GetByIDs(ctx, dedupeIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]*models.BuyerSummary, len(users))
	for i := range users {
		out[users[i].ID] = models.BuyerSummaryOf(&users[i])
	}
	return out, nil
}
