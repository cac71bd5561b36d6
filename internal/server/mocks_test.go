package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrilink/internal/ai"
	"agrilink/internal/config"
	"agrilink/internal/middleware"
	"agrilink/internal/models"
	"agrilink/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockSessionStore is a mock of the session.Store interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) Resolve(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockUserRepository is a mock of the repository.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddFavorite(ctx context.Context, userID, favoriteID primitive.ObjectID) error {
	args := m.Called(ctx, userID, favoriteID)
	return args.Error(0)
}

func (m *MockUserRepository) RemoveFavorite(ctx context.Context, userID, favoriteID primitive.ObjectID) error {
	args := m.Called(ctx, userID, favoriteID)
	return args.Error(0)
}

func (m *MockUserRepository) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) SetSellerRating(ctx context.Context, sellerID primitive.ObjectID, rating float64) error {
	args := m.Called(ctx, sellerID, rating)
	return args.Error(0)
}

// MockPostingRepository is a mock of the repository.PostingRepository interface
type MockPostingRepository struct {
	mock.Mock
}

func (m *MockPostingRepository) Create(ctx context.Context, posting *models.Posting) error {
	args := m.Called(ctx, posting)
	return args.Error(0)
}

func (m *MockPostingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Posting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Posting), args.Error(1)
}

func (m *MockPostingRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Posting, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Posting), args.Error(1)
}

func (m *MockPostingRepository) List(ctx context.Context, filter repository.PostingFilter) ([]models.Posting, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Posting), args.Error(1)
}

func (m *MockPostingRepository) ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Posting, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Posting), args.Error(1)
}

func (m *MockPostingRepository) Update(ctx context.Context, id, sellerID primitive.ObjectID, update bson.M) (*models.Posting, error) {
	args := m.Called(ctx, id, sellerID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Posting), args.Error(1)
}

func (m *MockPostingRepository) Deactivate(ctx context.Context, id, sellerID primitive.ObjectID) error {
	args := m.Called(ctx, id, sellerID)
	return args.Error(0)
}

// MockOrderRepository is a mock of the repository.OrderRepository interface
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Order, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByPostingIDs(ctx context.Context, postingIDs []primitive.ObjectID) ([]models.Order, error) {
	args := m.Called(ctx, postingIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

// MockDemandRepository is a mock of the repository.DemandRepository interface
type MockDemandRepository struct {
	mock.Mock
}

func (m *MockDemandRepository) Create(ctx context.Context, demand *models.Demand) error {
	args := m.Called(ctx, demand)
	return args.Error(0)
}

func (m *MockDemandRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Demand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Demand), args.Error(1)
}

func (m *MockDemandRepository) List(ctx context.Context, filter repository.DemandFilter) ([]models.Demand, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Demand), args.Error(1)
}

func (m *MockDemandRepository) ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Demand, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Demand), args.Error(1)
}

func (m *MockDemandRepository) AddResponse(ctx context.Context, id primitive.ObjectID, response models.DemandResponse) (bool, error) {
	args := m.Called(ctx, id, response)
	return args.Bool(0), args.Error(1)
}

func (m *MockDemandRepository) UpdateStatus(ctx context.Context, id, buyerID primitive.ObjectID, status models.DemandStatus) (bool, error) {
	args := m.Called(ctx, id, buyerID, status)
	return args.Bool(0), args.Error(1)
}

// MockFeedbackRepository is a mock of the repository.FeedbackRepository interface
type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

func (m *MockFeedbackRepository) GetByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Feedback, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) AverageRatingForSeller(ctx context.Context, sellerID primitive.ObjectID) (float64, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).(float64), args.Error(1)
}

// testDeps bundles the mocks wired into a test server.
type testDeps struct {
	sessions *MockSessionStore
	users    *MockUserRepository
	postings *MockPostingRepository
	orders   *MockOrderRepository
	demands  *MockDemandRepository
	feedback *MockFeedbackRepository
}

func newTestServer() (*Server, *testDeps) {
	deps := &testDeps{
		sessions: new(MockSessionStore),
		users:    new(MockUserRepository),
		postings: new(MockPostingRepository),
		orders:   new(MockOrderRepository),
		demands:  new(MockDemandRepository),
		feedback: new(MockFeedbackRepository),
	}
	s := &Server{
		config:   &config.Config{Port: "5000"},
		sessions: deps.sessions,
		users:    deps.users,
		postings: deps.postings,
		orders:   deps.orders,
		demands:  deps.demands,
		feedback: deps.feedback,
		ai:       ai.NewClient("http://ai.invalid"),
	}
	s.auth = middleware.NewAuthenticator(deps.sessions, deps.users)
	return s, deps
}

// injectUser stands in for RequireAuth in handler tests, placing the given
// user into request locals directly.
func injectUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalsUserKey, user)
		c.Locals(middleware.LocalsTokenKey, "test-token")
		return c.Next()
	}
}

// newTestApp mirrors the real route table with injectUser in place of the
// session-backed authenticator. Public routes stay public.
func newTestApp(s *Server, user *models.User) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")

	authed := injectUser(user)

	users := api.Group("/users")
	users.Post("/register", s.Register)
	users.Post("/login", s.Login)
	users.Post("/logout", authed, s.Logout)
	users.Get("/me", authed, s.GetMe)
	users.Put("/profile", authed, s.UpdateProfile)

	postings := api.Group("/postings")
	postings.Get("/", s.ListPostings)
	postings.Get("/:id", s.GetPosting)
	postings.Post("/", authed, middleware.SellerOnly, s.CreatePosting)
	postings.Put("/:id", authed, middleware.SellerOnly, s.UpdatePosting)
	postings.Delete("/:id", authed, middleware.SellerOnly, s.DeletePosting)

	orders := api.Group("/orders", authed)
	orders.Post("/", middleware.BuyerOnly, s.CreateOrder)
	orders.Get("/buyer", middleware.BuyerOnly, s.ListBuyerOrders)
	orders.Get("/seller", middleware.SellerOnly, s.ListSellerOrders)
	orders.Put("/:id/status", middleware.SellerOnly, s.UpdateOrderStatus)
	orders.Post("/:id/feedback", middleware.BuyerOnly, s.CreateFeedback)

	demands := api.Group("/demands", authed)
	demands.Post("/", middleware.BuyerOnly, s.CreateDemand)
	demands.Get("/", s.ListDemands)
	demands.Get("/my-demands", middleware.BuyerOnly, s.MyDemands)
	demands.Get("/:id", s.GetDemand)
	demands.Post("/:id/respond", middleware.SellerOnly, s.RespondToDemand)
	demands.Patch("/:id", s.UpdateDemandStatus)

	favorites := api.Group("/favorites", authed)
	favorites.Get("/", s.GetFavorites)
	favorites.Post("/:userId", s.AddFavorite)
	favorites.Delete("/:userId", s.RemoveFavorite)

	api.Post("/ai/evaluate-image", authed, s.EvaluateImage)

	return app
}

func testBuyer() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Test Buyer",
		Phone:    "+9779812345678",
		UserType: models.UserTypeBuyer,
		BuyerProfile: &models.BuyerProfile{
			PreferredCategories: []string{},
		},
		IsActive: true,
	}
}

func testSeller() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Test Seller",
		Phone:    "+9779887654321",
		UserType: models.UserTypeSeller,
		SellerProfile: &models.SellerProfile{
			BusinessName: "Fresh Farm",
			ContactInfo:  "+9779887654321",
		},
		IsActive: true,
	}
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}
