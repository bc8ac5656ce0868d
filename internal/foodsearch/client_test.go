package foodsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagoisdead/sustento-back/internal/config"
)

const searchResponse = `{
  "message": "ok",
  "data": {
    "products": [
      {
        "id": "7891000100103",
        "name": "Peito de Frango",
        "nutrients": {"calories_100g": 159, "protein_100g": "32.0", "carbs_100g": 0, "fat_100g": 3.2},
        "novaGroup": 1,
        "anvisaWarnings": [],
        "dietaryInfo": {"vegan": {"status": "Não Vegano"}, "vegetarian": {"status": "Não Vegetariano"}, "status_gluten": "Não Contém Glúten", "allergens": []}
      },
      {"id": "2", "name": "Frango Empanado", "nutrients": {"calories_100g": null}, "novaGroup": 4}
    ]
  }
}`

func TestClientSearch(t *testing.T) {
	var gotQuery, gotMax, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/aliments/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotMax = r.URL.Query().Get("max_results")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer srv.Close()

	c := NewClient(config.FoodSearchConfig{BaseURL: srv.URL + "/api/aliments/", APIKey: "secret"}, time.Second, nil)
	products, err := c.Search(context.Background(), "Peito de Frango", 0)
	require.NoError(t, err)

	assert.Equal(t, "Peito de Frango", gotQuery)
	assert.Equal(t, "10", gotMax)
	assert.Equal(t, "Bearer secret", gotAuth)

	require.Len(t, products, 2)
	assert.Equal(t, "Peito de Frango", products[0].Name)
	assert.Equal(t, 32.0, products[0].Nutrients.Macros().Protein)
	assert.Equal(t, 159.0, products[0].Nutrients.Macros().Calories)
	assert.Equal(t, []Violation{NotVegan, NotVegetarian}, products[0].Violations())
	assert.Zero(t, products[1].Nutrients.Macros().Calories)
	assert.Equal(t, 4, products[1].NovaGroup)
}

func TestClientSearch_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(config.FoodSearchConfig{BaseURL: srv.URL}, time.Second, nil)
		_, err := c.Search(context.Background(), "arroz", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		defer srv.Close()

		c := NewClient(config.FoodSearchConfig{BaseURL: srv.URL}, time.Second, nil)
		_, err := c.Search(context.Background(), "arroz", 5)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(searchResponse))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(config.FoodSearchConfig{BaseURL: srv.URL}, time.Second, nil)
		_, err := c.Search(ctx, "arroz", 5)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
