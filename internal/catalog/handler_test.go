package catalog

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
)

// makeApp injects a jwt.Token into locals when X-Role is set, standing in for
// the jwtware middleware.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Role"); role != "" {
			c.Locals(auth.LocalsKey, &jwt.Token{Claims: jwt.MapClaims{"role": role, "customer_id": uuid.NewString()}})
		}
		return c.Next()
	})
	api := app.Group("/api")
	h.RegisterPublicRoutes(api)
	h.RegisterProtectedRoutes(api, auth.RequireAdmin())
	return app
}

func TestItemRoutes(t *testing.T) {
	id := uuid.New()
	repo := NewInMemoryRepository([]Item{{ID: id, Name: "Honey", StockQuantity: 3}})
	app := makeApp(NewHandler(NewService(repo)))

	res, err := app.Test(httptest.NewRequest("GET", "/api/items/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/items/"+uuid.NewString(), nil))
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/items/not-a-uuid", nil))
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestCreateItem_RequiresAdminAndValidates(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := makeApp(NewHandler(NewService(repo)))

	body := `{"name":"Olive Oil","regularPrice":850,"salePrice":799.5,"stockQuantity":12}`

	req := httptest.NewRequest("POST", "/api/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "customer")
	res, _ := app.Test(req)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	req = httptest.NewRequest("POST", "/api/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	res, _ = app.Test(req)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	var created Item
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, "Olive Oil", created.Name)
	assert.Equal(t, InStock, created.StockStatus)
	assert.Equal(t, "799.5", created.EffectivePrice().String())

	req = httptest.NewRequest("POST", "/api/items", strings.NewReader(`{"regularPrice":-1,"stockQuantity":-2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var payload struct {
		Error apperror.Error `json:"error"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, apperror.KindValidation, payload.Error.Kind)
	assert.Contains(t, payload.Error.Fields, "name")
	assert.Contains(t, payload.Error.Fields, "stockQuantity")
}
