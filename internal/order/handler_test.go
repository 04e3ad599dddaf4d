package order

import (
	"context"
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

// makeApp stands in for jwtware: X-Customer-ID and X-Role become token claims.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-Customer-ID"); v != "" {
			claims := jwt.MapClaims{"customer_id": v, "role": c.Get("X-Role", auth.RoleCustomer), "email": c.Get("X-Email")}
			c.Locals(auth.LocalsKey, &jwt.Token{Claims: claims})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app.Group("/api"), auth.RequireAdmin())
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
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

var adminHeaders = []string{"X-Customer-ID", uuid.NewString(), "X-Role", auth.RoleAdmin, "X-Email", "admin@grocery.pk"}

func TestOrderRoutes_StatusAndTracking(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))
	path := "/api/orders/" + f.order.ID.String()

	status, body := do(t, app, "PUT", path+"/status", `{"status":"confirmed","adminNotes":"packed"}`, adminHeaders...)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Order status updated successfully", body["message"])
	o := body["order"].(map[string]any)
	assert.Equal(t, "confirmed", o["orderStatus"])
	assert.Equal(t, "packed", o["adminNotes"])
	assert.Equal(t, "admin@grocery.pk", o["updatedBy"])

	status, body = do(t, app, "PUT", path+"/status", `{"status":"placed"}`, adminHeaders...)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "InvalidStatus", body["error"].(map[string]any)["kind"])

	status, body = do(t, app, "PUT", path+"/tracking", `{"trackingNumber":"LEO-42"}`, adminHeaders...)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Tracking number added successfully", body["message"])
	assert.Equal(t, "LEO-42", body["order"].(map[string]any)["trackingNumber"])

	status, _ = do(t, app, "PUT", "/api/orders/not-a-uuid/status", `{"status":"confirmed"}`, adminHeaders...)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestOrderRoutes_AdminOnly(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))

	status, _ := do(t, app, "GET", "/api/orders", "", "X-Customer-ID", uuid.NewString())
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "PUT", "/api/orders/"+f.order.ID.String()+"/status", `{"status":"confirmed"}`, "X-Customer-ID", uuid.NewString())
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "GET", "/api/orders/"+f.order.ID.String(), "", "X-Customer-ID", uuid.NewString())
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestOrderRoutes_ListAndSummary(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))

	status, body := do(t, app, "GET", "/api/orders?page=1&limit=5&sortBy=totalAmount&sortOrder=asc", "", adminHeaders...)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["orders"], 1)
	p := body["pagination"].(map[string]any)
	assert.Equal(t, float64(1), p["currentPage"])
	assert.Equal(t, float64(1), p["totalPages"])
	assert.Equal(t, float64(1), p["totalOrders"])
	assert.Equal(t, false, p["hasNext"])
	assert.Equal(t, false, p["hasPrev"])

	status, _ = do(t, app, "GET", "/api/orders?sortBy=price", "", adminHeaders...)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do(t, app, "GET", "/api/orders?status=delivered", "", adminHeaders...)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["orders"], 0)

	status, body = do(t, app, "GET", "/api/orders/stats/summary", "", adminHeaders...)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["totalOrders"])
	assert.Equal(t, float64(1500), body["totalRevenue"])
}

func TestOrderRoutes_CustomerHistory(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))
	me := uuid.New()

	mine := newOrder("ORD-mine", &me, 250, f.order.CreatedAt)
	mine, err := f.repo.Create(context.Background(), mine)
	require.NoError(t, err)

	status, body := do(t, app, "GET", "/api/customers/"+me.String()+"/orders", "", "X-Customer-ID", me.String())
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["orders"], 1)

	status, body = do(t, app, "GET", "/api/orders/"+mine.ID.String(), "", "X-Customer-ID", me.String())
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ORD-mine", body["orderNumber"])

	status, _ = do(t, app, "GET", "/api/customers/"+me.String()+"/orders", "", "X-Customer-ID", uuid.NewString())
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "GET", "/api/customers/"+me.String()+"/orders", "", adminHeaders...)
	assert.Equal(t, fiber.StatusOK, status)
}
