package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedLimit  int
		expectedOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit values", "limit=10&offset=20", 10, 20},
		{"zero limit falls back", "limit=0", 50, 0},
		{"negative offset clamped", "offset=-5", 50, 0},
		{"limit capped", "limit=5000", 100, 0},
		{"non-numeric ignored", "limit=abc&offset=xyz", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got Pagination
			app.Get("/", func(c *fiber.Ctx) error {
				got = parsePagination(c, 50)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tt.expectedLimit, got.Limit)
			assert.Equal(t, tt.expectedOffset, got.Offset)
		})
	}
}

func TestParseObjectID(t *testing.T) {
	valid := primitive.NewObjectID()

	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, err := parseObjectID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id.Hex()})
	})

	t.Run("valid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/"+valid.Hex(), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/not-hex", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDedupeIDs(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	deduped := dedupeIDs([]primitive.ObjectID{a, b, a, a, b})
	assert.Equal(t, []primitive.ObjectID{a, b}, deduped)

	assert.Empty(t, dedupeIDs(nil))
}
