// Package middleware provides authentication and authorization middleware
// for the application.
package middleware

import (
	"strings"

	"agrilink/internal/models"
	"agrilink/internal/repository"
	"agrilink/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Locals keys set by RequireAuth.
const (
	LocalsUserKey  = "currentUser"
	LocalsTokenKey = "sessionToken"
)

// Authenticator resolves bearer session tokens to user records.
type Authenticator struct {
	sessions session.Store
	users    repository.UserRepository
}

// NewAuthenticator returns an Authenticator backed by the given session
// store and user repository.
func NewAuthenticator(sessions session.Store, users repository.UserRepository) *Authenticator {
	return &Authenticator{sessions: sessions, users: users}
}

// RequireAuth enforces authentication for protected routes. The token is
// read from the Authorization header (raw or "Bearer <token>") or the
// session cookie. On success the resolved user is attached to the request
// context; the lookup itself has no side effects.
func (a *Authenticator) RequireAuth(c *fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return models.RespondWithError(c,
			models.NewUnauthenticatedError("Authentication required"))
	}

	userID, err := a.sessions.Resolve(c.Context(), token)
	if err != nil {
		if err == session.ErrNotFound {
			return models.RespondWithError(c,
				models.NewUnauthenticatedError("Invalid session"))
		}
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.RespondWithError(c,
			models.NewUnauthenticatedError("Invalid session"))
	}

	user, err := a.users.GetByID(c.Context(), oid)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	if user == nil || !user.IsActive {
		return models.RespondWithError(c,
			models.NewUnauthenticatedError("User not found or inactive"))
	}

	c.Locals(LocalsUserKey, user)
	c.Locals(LocalsTokenKey, token)
	return c.Next()
}

// extractToken pulls the session token from the Authorization header or the
// session cookie. A "Bearer " prefix is optional; the mobile client sends
// the raw token.
func extractToken(c *fiber.Ctx) string {
	if header := c.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Cookies("session")
}

// CurrentUser returns the authenticated user attached by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalsUserKey).(*models.User)
	return user
}

// SessionToken returns the token the current request authenticated with.
func SessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalsTokenKey).(string)
	return token
}

// SellerOnly restricts a route to seller accounts. Composed after
// RequireAuth.
func SellerOnly(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil || user.UserType != models.UserTypeSeller {
		return models.RespondWithError(c,
			models.NewForbiddenError("Seller account required"))
	}
	return c.Next()
}

// BuyerOnly restricts a route to buyer accounts. Composed after RequireAuth.
func BuyerOnly(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil || user.UserType != models.UserTypeBuyer {
		return models.RespondWithError(c,
			models.NewForbiddenError("Buyer account required"))
	}
	return c.Next()
}
