package cart

import (
	"encoding/json"
	"io"
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

// makeAppWithCartHandler injects a jwt.Token into locals when X-Customer-ID
// is set, standing in for the bearer token middleware.
func makeAppWithCartHandler(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-Customer-ID"); v != "" {
			c.Locals(auth.LocalsKey, &jwt.Token{Claims: jwt.MapClaims{"customer_id": v, "role": auth.RoleCustomer}})
		}
		return c.Next()
	})
	h.RegisterPublicRoutes(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestCartRoutes_GuestFlow(t *testing.T) {
	f := newFixture(t)
	app := makeAppWithCartHandler(NewHandler(f.svc))

	status, body := do(t, app, "GET", "/api/cart/guest-h1?type=session", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["totalItems"])

	status, body = do(t, app, "POST", "/api/cart/add", `{"sessionId":"guest-h1","itemId":"`+f.milk.ID.String()+`","quantity":2}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["totalItems"])
	assert.Equal(t, float64(400), body["totalAmount"])

	// quantity defaults to 1
	status, body = do(t, app, "POST", "/api/cart/add", `{"sessionId":"guest-h1","itemId":"`+f.rice.ID.String()+`"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["totalItems"])

	status, body = do(t, app, "PUT", "/api/cart/update", `{"sessionId":"guest-h1","itemId":"`+f.milk.ID.String()+`","quantity":0}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["totalItems"])

	status, body = do(t, app, "POST", "/api/cart/add", `{"sessionId":"guest-h1","itemId":"`+f.milk.ID.String()+`","quantity":2}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["totalItems"])

	status, body = do(t, app, "PUT", "/api/cart/update", `{"sessionId":"guest-h1","itemId":"`+f.milk.ID.String()+`","quantity":-1}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["totalItems"])
	assert.Len(t, body["items"], 1)

	status, _ = do(t, app, "PUT", "/api/cart/update", `{"sessionId":"guest-h1","itemId":"`+f.milk.ID.String()+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do(t, app, "GET", "/api/cart/guest-h1", "")
	require.Equal(t, fiber.StatusOK, status)
	summary := body["orderSummary"].(map[string]any)
	assert.Equal(t, float64(450), summary["subtotal"])
	assert.Equal(t, float64(150), summary["shippingCost"])

	status, _ = do(t, app, "DELETE", "/api/cart/clear/guest-h1?type=session", "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, "DELETE", "/api/cart/remove", `{"sessionId":"guest-h1","itemId":"`+f.rice.ID.String()+`"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NotFound", body["error"].(map[string]any)["kind"])
}

func TestCartRoutes_KeyResolution(t *testing.T) {
	f := newFixture(t)
	app := makeAppWithCartHandler(NewHandler(f.svc))
	item := f.milk.ID.String()

	status, body := do(t, app, "POST", "/api/cart/add", `{"itemId":"`+item+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", body["error"].(map[string]any)["kind"])

	status, _ = do(t, app, "POST", "/api/cart/add", `{"customerId":"`+uuid.NewString()+`","sessionId":"s","itemId":"`+item+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// the token's customer wins over the body
	me := uuid.New()
	status, body = do(t, app, "POST", "/api/cart/add", `{"sessionId":"ignored","itemId":"`+item+`"}`, "X-Customer-ID", me.String())
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, me.String(), body["customerId"])

	status, _ = do(t, app, "GET", "/api/cart/"+uuid.NewString()+"?type=customer", "", "X-Customer-ID", me.String())
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "GET", "/api/cart/abc?type=bogus", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCartRoutes_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	app := makeAppWithCartHandler(NewHandler(f.svc))

	status, body := do(t, app, "POST", "/api/cart/add", `{"sessionId":"g","itemId":"`+f.rice.ID.String()+`","quantity":6}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "InsufficientStock", errBody["kind"])
	assert.Equal(t, f.rice.ID.String(), errBody["itemId"])
}

func TestCartRoutes_Merge(t *testing.T) {
	f := newFixture(t)
	app := makeAppWithCartHandler(NewHandler(f.svc))
	me := uuid.New()

	status, _ := do(t, app, "POST", "/api/cart/add", `{"sessionId":"guest-m","itemId":"`+f.milk.ID.String()+`","quantity":2}`)
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "POST", "/api/cart/merge", `{"sessionId":"guest-m"}`, "X-Customer-ID", me.String())
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["totalItems"])
	assert.Equal(t, me.String(), body["customerId"])

	status, _ = do(t, app, "POST", "/api/cart/merge", `{"sessionId":"guest-m"}`, "X-Customer-ID", me.String())
	require.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, "POST", "/api/cart/add", `{"sessionId":"guest-x","itemId":"`+f.milk.ID.String()+`"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, body = do(t, app, "POST", "/api/cart/merge", `{"sessionId":"guest-x","customerId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"].(map[string]any)["kind"])

	status, body = do(t, app, "GET", "/api/cart/guest-x?type=session", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["totalItems"])

	status, _ = do(t, app, "POST", "/api/cart/merge", `{}`, "X-Customer-ID", me.String())
	assert.Equal(t, fiber.StatusBadRequest, status)
}
