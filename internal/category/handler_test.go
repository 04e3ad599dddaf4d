package category

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

func do(t *testing.T, app *fiber.App, method, path, role, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, raw
}

func TestCategoryRoutes_PublicReads(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))

	status, raw := do(t, app, "GET", "/api/categories?includeInactive=true", "", "")
	require.Equal(t, fiber.StatusOK, status)
	var list []Category
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 2)

	status, raw = do(t, app, "GET", "/api/categories?includeInactive=true", "admin", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 3)

	status, _ = do(t, app, "GET", "/api/categories/"+f.stale.ID.String(), "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = do(t, app, "GET", "/api/categories/"+f.stale.ID.String(), "admin", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, raw = do(t, app, "GET", "/api/categories/"+f.dairy.ID.String()+"/items?inStock=true", "", "")
	require.Equal(t, fiber.StatusOK, status)
	var page struct {
		Category Category `json:"category"`
		Items    []struct {
			ID uuid.UUID `json:"id"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, "Dairy", page.Category.Name)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, f.cheese.ID, page.Items[0].ID)

	status, _ = do(t, app, "GET", "/api/categories/"+f.stale.ID.String()+"/items", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = do(t, app, "GET", "/api/categories/nope/items", "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCategoryRoutes_ItemsAcrossCategories(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))

	body := `{"categoryIds":["` + f.fruit.ID.String() + `","` + f.dairy.ID.String() + `"]}`
	status, raw := do(t, app, "POST", "/api/categories/items", "", body)
	require.Equal(t, fiber.StatusOK, status)
	var out struct {
		Items []struct {
			Name     string  `json:"name"`
			Category Summary `json:"category"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, "Apple", out.Items[0].Name)
	assert.Equal(t, "fruit", out.Items[0].Category.Slug)

	status, _ = do(t, app, "POST", "/api/categories/items", "", `{"categoryIds":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCategoryRoutes_AdminWrites(t *testing.T) {
	f := newFixture(t)
	app := makeApp(NewHandler(f.svc))

	body := `{"name":"Frozen Foods","description":"ice cold","imageUrl":"https://cdn.example.com/frozen.png"}`
	status, _ := do(t, app, "POST", "/api/categories", "customer", body)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, raw := do(t, app, "POST", "/api/categories", "admin", body)
	require.Equal(t, fiber.StatusCreated, status)
	var created Category
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "frozen-foods", created.Slug)

	status, _ = do(t, app, "POST", "/api/categories", "admin", `{"name":"Frozen Foods","description":"again"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = do(t, app, "POST", "/api/categories", "admin", `{"name":"Bad","description":"x","imageUrl":"not a url"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	id := created.ID.String()
	status, raw = do(t, app, "PUT", "/api/categories/"+id+"/active", "admin", `{"isActive":false}`)
	require.Equal(t, fiber.StatusOK, status)
	var toggled Category
	require.NoError(t, json.Unmarshal(raw, &toggled))
	assert.False(t, toggled.IsActive)

	status, _ = do(t, app, "PUT", "/api/categories/"+id+"/active", "admin", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw = do(t, app, "PUT", "/api/categories/"+id, "admin", `{"name":"Frozen","description":"ice cold","displayOrder":5}`)
	require.Equal(t, fiber.StatusOK, status)
	var updated Category
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "frozen", updated.Slug)
	assert.Equal(t, 5, updated.DisplayOrder)
	assert.False(t, updated.IsActive)

	status, _ = do(t, app, "DELETE", "/api/categories/"+id, "admin", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "DELETE", "/api/categories/"+id, "admin", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
