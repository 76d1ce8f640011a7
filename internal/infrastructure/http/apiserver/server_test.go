package apiserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/application/shelf"
	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/apiserver"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/session"
	"github.com/spiceshelf/shelf/internal/infrastructure/persistence/memory"
	"github.com/spiceshelf/shelf/pkg/errors"
	"github.com/spiceshelf/shelf/test/testutils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticCatalog struct {
	catalog *spice.Catalog
}

func (s staticCatalog) Catalog() *spice.Catalog { return s.catalog }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	service := shelf.NewService(
		staticCatalog{catalog: testutils.ScenarioCatalog()},
		memory.NewBasketRepository(0),
		nil,
		zap.NewNop(),
	)
	router := apiserver.NewRouter(service, zap.NewNop())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.NewContext(r.Context(), &session.Session{ID: "api-session"})
		router.ServeHTTP(w, r.WithContext(ctx))
	})
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func dishNames(dishes []apiserver.DishResponse) []string {
	names := make([]string, len(dishes))
	for i, d := range dishes {
		names[i] = d.Name
	}
	return names
}

func TestListSpices(t *testing.T) {
	rec := do(t, newAPI(t), http.MethodGet, "/api/v1/spices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spices []apiserver.SpiceResponse
	env := decode(t, rec, &spices)
	assert.True(t, env.Success)
	require.Len(t, spices, len(testutils.ShelfSpices))
	assert.Equal(t, apiserver.SpiceResponse{Name: "Cumin", Alias: "Jeera", Color: "#a0522d"}, spices[0])
}

func TestListDishes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no filter", "", []string{"Chana Masala", "Jeera Rice", "Masala Chai", "Dal Tadka"}},
		{"superset", "?spice=Cumin&spice=Turmeric", []string{"Chana Masala", "Dal Tadka"}},
		{"no match", "?spice=Clove&spice=Coriander", []string{}},
	}

	api := newAPI(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, api, http.MethodGet, "/api/v1/dishes"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var dishes []apiserver.DishResponse
			decode(t, rec, &dishes)
			assert.Equal(t, tt.want, dishNames(dishes))
		})
	}
}

func TestBasketFlow(t *testing.T) {
	api := newAPI(t)

	var basket apiserver.BasketResponse
	rec := do(t, api, http.MethodPost, "/api/v1/basket/spices", map[string]string{"name": "Cumin"})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec, &basket)
	assert.Equal(t, "Added: Cumin", env.Message)
	assert.Equal(t, []string{"Cumin"}, basket.Spices)

	rec = do(t, api, http.MethodPost, "/api/v1/basket/spices", map[string]string{"name": "Cumin"})
	env = decode(t, rec, &basket)
	assert.Equal(t, "Cumin is already in basket", env.Message)

	do(t, api, http.MethodPost, "/api/v1/basket/spices", map[string]string{"name": "Turmeric"})

	rec = do(t, api, http.MethodGet, "/api/v1/basket", nil)
	basket = apiserver.BasketResponse{}
	decode(t, rec, &basket)
	assert.False(t, basket.SearchTriggered)
	assert.Empty(t, basket.Results)

	rec = do(t, api, http.MethodPost, "/api/v1/basket/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &basket)
	assert.True(t, basket.SearchTriggered)
	assert.Equal(t, 2, basket.ResultCount)
	assert.Equal(t, []string{"Chana Masala", "Dal Tadka"}, dishNames(basket.Results))
	assert.NotEmpty(t, basket.Results[0].WikiURL)
	assert.Empty(t, basket.Results[1].ImageURL)

	rec = do(t, api, http.MethodPost, "/api/v1/basket/clear", nil)
	basket = apiserver.BasketResponse{}
	decode(t, rec, &basket)
	assert.Empty(t, basket.Spices)
	assert.False(t, basket.SearchTriggered)
	assert.Zero(t, basket.ResultCount)
}

func TestAddSpice_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		status int
		code   errors.ErrorCode
	}{
		{"missing name", map[string]string{}, http.StatusBadRequest, errors.CodeValidationFailed},
		{"blank name", map[string]string{"name": "  "}, http.StatusBadRequest, errors.CodeValidationFailed},
		{"unknown spice", map[string]string{"name": "Saffron"}, http.StatusNotFound, errors.CodeSpiceNotFound},
	}

	api := newAPI(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, api, http.MethodPost, "/api/v1/basket/spices", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestBasket_RequiresSession(t *testing.T) {
	service := shelf.NewService(
		staticCatalog{catalog: testutils.ScenarioCatalog()},
		memory.NewBasketRepository(0),
		nil,
		zap.NewNop(),
	)
	router := apiserver.NewRouter(service, zap.NewNop())

	rec := do(t, router, http.MethodGet, "/api/v1/basket", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeBadRequest, decodeError(t, rec).Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newAPI(t), http.MethodGet, "/api/v1/recipes", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, decodeError(t, rec).Error.Code)
}

func TestOpenAPISpec(t *testing.T) {
	rec := do(t, newAPI(t), http.MethodGet, "/api/v1/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Spice Shelf API")
}
