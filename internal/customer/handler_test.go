package customer

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
)

const secret = "test-secret"

// makeApp injects a jwt.Token into locals when X-Customer-ID is provided,
// which keeps tests clear of the full jwtware middleware.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-Customer-ID"); v != "" {
			claims := jwt.MapClaims{"customer_id": v, "role": c.Get("X-Role", auth.RoleCustomer)}
			c.Locals(auth.LocalsKey, &jwt.Token{Claims: claims})
		}
		return c.Next()
	})
	api := app.Group("/api")
	h.RegisterPublicRoutes(api)
	h.RegisterProtectedRoutes(api)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) *httpResponse {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	out := &httpResponse{status: res.StatusCode, body: map[string]any{}}
	_ = json.NewDecoder(res.Body).Decode(&out.body)
	return out
}

type httpResponse struct {
	status int
	body   map[string]any
}

func TestRegisterAndSignIn(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := makeApp(NewHandler(NewService(repo), secret, time.Hour))

	reg := `{"email":"ayesha@example.com","password":"secret1","firstName":"Ayesha","lastName":"Khan","phone":"0300"}`
	res := post(t, app, "/api/customers", reg)
	require.Equal(t, fiber.StatusCreated, res.status)
	assert.NotContains(t, res.body, "passwordHash")
	assert.Equal(t, "customer", res.body["role"])

	res = post(t, app, "/api/customers", reg)
	assert.Equal(t, fiber.StatusConflict, res.status)

	res = post(t, app, "/api/customers/sign-in", `{"email":"ayesha@example.com","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)

	res = post(t, app, "/api/customers/sign-in", `{"email":"AYESHA@example.com","password":"secret1"}`)
	require.Equal(t, fiber.StatusOK, res.status)
	raw, _ := res.body["token"].(string)
	require.NotEmpty(t, raw)

	tok, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte(secret), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "customer", claims["role"])
	_, err = uuid.Parse(claims["customer_id"].(string))
	assert.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	app := makeApp(NewHandler(NewService(NewInMemoryRepository(nil)), secret, time.Hour))
	res := post(t, app, "/api/customers", `{"email":"not-an-email","password":"123"}`)
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestGetCustomer_SelfOrAdmin(t *testing.T) {
	me := Customer{ID: uuid.New(), Email: "me@example.com", Role: auth.RoleCustomer}
	repo := NewInMemoryRepository([]Customer{me})
	app := makeApp(NewHandler(NewService(repo), secret, time.Hour))

	get := func(caller, role string) int {
		req := httptest.NewRequest("GET", "/api/customers/"+me.ID.String(), nil)
		req.Header.Set("X-Customer-ID", caller)
		if role != "" {
			req.Header.Set("X-Role", role)
		}
		res, err := app.Test(req)
		require.NoError(t, err)
		return res.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, get(me.ID.String(), ""))
	assert.Equal(t, fiber.StatusForbidden, get(uuid.NewString(), ""))
	assert.Equal(t, fiber.StatusOK, get(uuid.NewString(), auth.RoleAdmin))
}
