package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/foodgram-api/internal/auth"
	"github.com/franciscosanchezn/foodgram-api/internal/database"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/storage"
	"github.com/franciscosanchezn/foodgram-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "router-test-secret-key-32-chars!"
	testBaseURL = "http://testserver"
)

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...))

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	svc    Services
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Setup()

	db, err := database.InitDatabase(database.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewLocalStorage(t.TempDir(), testBaseURL+"/media")
	require.NoError(t, err)

	svc := NewServices(db, store)
	oauth := auth.NewOAuthService(db, auth.Options{
		JWTSecret:    testSecret,
		TokenTTL:     time.Hour,
		ClientID:     "foodgram-web",
		ClientSecret: "web-secret",
	}, Authenticator(svc.Users))
	require.NoError(t, oauth.RegisterWebClient(context.Background(), testBaseURL))

	router := New(db, oauth, store, svc, Options{
		JWTSecret:       testSecret,
		BaseURL:         testBaseURL,
		DefaultPageSize: 6,
		MaxPageSize:     100,
		LoginRatePerMin: 1000,
	})
	return &testAPI{t: t, router: router, svc: svc}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (a *testAPI) register(username string) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/users", "", gin.H{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "password123",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(a.t, w)["id"].(float64))
}

func (a *testAPI) login(username string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/token/login", "", gin.H{
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode(a.t, w)["auth_token"].(string)
}

// admin registers a user, promotes it and returns its token
func (a *testAPI) admin() string {
	a.t.Helper()
	a.register("admin")
	_, err := a.svc.Users.EnsureAdmin(context.Background(), "admin@example.com", "password123")
	require.NoError(a.t, err)
	return a.login("admin")
}

// seedReference creates two tags and two ingredients through the admin API
func (a *testAPI) seedReference(adminToken string) (tagIDs []uint, flourID, eggsID uint) {
	a.t.Helper()
	for i, slug := range []string{"breakfast", "lunch"} {
		w := a.do(http.MethodPost, "/api/tags", adminToken, gin.H{
			"name":  strings.ToUpper(slug[:1]) + slug[1:],
			"color": fmt.Sprintf("#00000%d", i),
			"slug":  slug,
		})
		require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
		tagIDs = append(tagIDs, uint(decode(a.t, w)["id"].(float64)))
	}

	create := func(name, unit string) uint {
		w := a.do(http.MethodPost, "/api/ingredients", adminToken, gin.H{"name": name, "measurement_unit": unit})
		require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
		return uint(decode(a.t, w)["id"].(float64))
	}
	return tagIDs, create("flour", "g"), create("eggs", "pcs")
}

func (a *testAPI) createRecipe(token, name string, tags []uint, ingredients []gin.H) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/recipes", token, gin.H{
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 30,
		"image":        pngDataURI,
		"tags":         tags,
		"ingredients":  ingredients,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(a.t, w)["id"].(float64))
}

func TestHealthCheck(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestRegisterLoginLogout(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodPost, "/api/users", "", gin.H{
		"email":      "Cook@Example.com",
		"username":   "cook",
		"first_name": "Ann",
		"last_name":  "Cook",
		"password":   "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "cook@example.com", created["email"])
	assert.Equal(t, "cook", created["username"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "is_subscribed")

	t.Run("duplicate email", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/users", "", gin.H{
			"email": "cook@example.com", "username": "other", "first_name": "A", "last_name": "B",
			"password": "password123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, models.ErrValidationFailed, body["code"])
		assert.Contains(t, body["details"], "email")
	})

	t.Run("reserved username", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/users", "", gin.H{
			"email": "me@example.com", "username": "me", "first_name": "A", "last_name": "B",
			"password": "password123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["details"], "username")
	})

	t.Run("short password", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/users", "", gin.H{
			"email": "short@example.com", "username": "short", "first_name": "A", "last_name": "B",
			"password": "1234",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["details"], "password")
	})

	t.Run("wrong password", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/auth/token/login", "", gin.H{
			"email": "cook@example.com", "password": "wrong-password",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrInvalidCredentials, decode(t, w)["code"])
	})

	token := api.login("cook")

	w = api.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "cook", me["username"])
	assert.Equal(t, false, me["is_subscribed"])

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/users/me", "", nil).Code)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/auth/token/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/users/me", token, nil).Code)
}

func TestSetPassword(t *testing.T) {
	api := setupAPI(t)
	api.register("cook")
	token := api.login("cook")

	w := api.do(http.MethodPost, "/api/users/set_password", token, gin.H{
		"current_password": "not-my-password",
		"new_password":     "new-password-1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["details"], "current_password")

	w = api.do(http.MethodPost, "/api/users/set_password", token, gin.H{
		"current_password": "password123",
		"new_password":     "new-password-1",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	// existing tokens are revoked with the old password
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/users/me", token, nil).Code)

	w = api.do(http.MethodPost, "/api/auth/token/login", "", gin.H{
		"email": "cook@example.com", "password": "new-password-1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOAuthPasswordGrant(t *testing.T) {
	api := setupAPI(t)
	api.register("cook")

	form := "grant_type=password&client_id=foodgram-web&client_secret=web-secret" +
		"&username=cook%40example.com&password=password123"
	req := httptest.NewRequest(http.MethodPost, "/api/oauth/token", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := decode(t, w)["access_token"].(string)
	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReferenceData(t *testing.T) {
	api := setupAPI(t)
	adminToken := api.admin()
	tagIDs, flourID, _ := api.seedReference(adminToken)

	api.register("cook")
	cookToken := api.login("cook")

	t.Run("only admins create tags", func(t *testing.T) {
		body := gin.H{"name": "Dinner", "color": "#123456", "slug": "dinner"}
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/tags", "", body).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/tags", cookToken, body).Code)
	})

	t.Run("tag rules", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/tags", adminToken, gin.H{"name": "Bad", "color": "red", "slug": "bad slug"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		details := decode(t, w)["details"]
		assert.Contains(t, details, "color")
		assert.Contains(t, details, "slug")

		w = api.do(http.MethodPost, "/api/tags", adminToken, gin.H{"name": "Brunch", "color": "#abcdef", "slug": "breakfast"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["details"], "slug")
	})

	t.Run("list and get", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/tags", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var tags []models.Tag
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
		require.Len(t, tags, 2)
		assert.Equal(t, "Breakfast", tags[0].Name)

		w = api.do(http.MethodGet, fmt.Sprintf("/api/tags/%d", tagIDs[1]), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "lunch", decode(t, w)["slug"])

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/tags/999", "", nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/tags/abc", "", nil).Code)
	})

	t.Run("ingredient search", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/ingredients?name=FL", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var ingredients []models.Ingredient
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ingredients))
		require.Len(t, ingredients, 1)
		assert.Equal(t, flourID, ingredients[0].ID)

		w = api.do(http.MethodGet, "/api/ingredients?name=zzz", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestRecipeLifecycle(t *testing.T) {
	api := setupAPI(t)
	tagIDs, flourID, eggsID := api.seedReference(api.admin())

	api.register("chef")
	chefToken := api.login("chef")
	api.register("guest")
	guestToken := api.login("guest")

	ingredients := []gin.H{{"id": flourID, "amount": 200}, {"id": eggsID, "amount": 2}}
	w := api.do(http.MethodPost, "/api/recipes", chefToken, gin.H{
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"cooking_time": 20,
		"image":        pngDataURI,
		"tags":         tagIDs,
		"ingredients":  ingredients,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recipe := decode(t, w)
	recipeID := uint(recipe["id"].(float64))

	assert.Equal(t, "Pancakes", recipe["name"])
	assert.Equal(t, false, recipe["is_favorited"])
	assert.Len(t, recipe["tags"], 2)
	assert.Len(t, recipe["ingredients"], 2)
	author := recipe["author"].(map[string]interface{})
	assert.Equal(t, "chef", author["username"])

	image := recipe["image"].(string)
	require.True(t, strings.HasPrefix(image, testBaseURL+"/media/recipes/images/"), image)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, strings.TrimPrefix(image, testBaseURL), "", nil).Code)

	t.Run("anonymous read", func(t *testing.T) {
		w := api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipeID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Mix and fry.", decode(t, w)["text"])
	})

	t.Run("validation", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/recipes", chefToken, gin.H{
			"name":         "Pancakes",
			"text":         "",
			"cooking_time": 0,
			"tags":         []uint{},
			"ingredients":  []gin.H{{"id": flourID, "amount": 0}},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		details := decode(t, w)["details"].(map[string]interface{})
		for _, field := range []string{"name", "text", "cooking_time", "tags", "ingredients", "image"} {
			assert.Contains(t, details, field)
		}
	})

	t.Run("anonymous create", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/recipes", "", gin.H{}).Code)
	})

	t.Run("only the author updates", func(t *testing.T) {
		body := gin.H{"tags": tagIDs[:1], "ingredients": ingredients[:1], "name": "Crepes"}
		w := api.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", recipeID), guestToken, body)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = api.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", recipeID), chefToken, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode(t, w)
		assert.Equal(t, "Crepes", updated["name"])
		assert.Equal(t, "Mix and fry.", updated["text"])
		assert.Equal(t, float64(20), updated["cooking_time"])
		assert.Equal(t, image, updated["image"])
		assert.Len(t, updated["tags"], 1)
		assert.Len(t, updated["ingredients"], 1)
	})

	t.Run("patch requires tags", func(t *testing.T) {
		w := api.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", recipeID), chefToken, gin.H{"ingredients": ingredients})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["details"], "tags")
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d", recipeID)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, path, guestToken, nil).Code)
		assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, chefToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, "", nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, chefToken, nil).Code)
	})
}

func TestRecipeListFilters(t *testing.T) {
	api := setupAPI(t)
	tagIDs, flourID, _ := api.seedReference(api.admin())

	chefID := api.register("chef")
	chefToken := api.login("chef")
	api.register("guest")
	guestToken := api.login("guest")

	flour := []gin.H{{"id": flourID, "amount": 100}}
	breakfast := api.createRecipe(chefToken, "Porridge", tagIDs[:1], flour)
	api.createRecipe(chefToken, "Soup", tagIDs[1:], flour)
	api.createRecipe(guestToken, "Toast", tagIDs[:1], flour)

	count := func(path, token string) float64 {
		w := api.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode(t, w)["count"].(float64)
	}

	assert.Equal(t, float64(3), count("/api/recipes", ""))
	assert.Equal(t, float64(2), count(fmt.Sprintf("/api/recipes?author=%d", chefID), ""))
	assert.Equal(t, float64(2), count("/api/recipes?tags=breakfast", ""))
	assert.Equal(t, float64(3), count("/api/recipes?tags=breakfast&tags=lunch", ""))

	require.Equal(t, http.StatusCreated,
		api.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", breakfast), guestToken, nil).Code)
	assert.Equal(t, float64(1), count("/api/recipes?is_favorited=1", guestToken))
	assert.Equal(t, float64(0), count("/api/recipes?is_in_shopping_cart=1", guestToken))
	// anonymous users get the unfiltered list
	assert.Equal(t, float64(3), count("/api/recipes?is_favorited=1", ""))

	w := api.do(http.MethodGet, "/api/recipes?author=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoritesAndShoppingCart(t *testing.T) {
	api := setupAPI(t)
	tagIDs, flourID, eggsID := api.seedReference(api.admin())

	api.register("chef")
	chefToken := api.login("chef")
	api.register("shopper")
	token := api.login("shopper")

	a := api.createRecipe(chefToken, "A", tagIDs, []gin.H{{"id": flourID, "amount": 200}, {"id": eggsID, "amount": 2}})
	b := api.createRecipe(chefToken, "B", tagIDs, []gin.H{{"id": flourID, "amount": 100}, {"id": eggsID, "amount": 1}})

	t.Run("favorite toggle", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d/favorite", a)
		w := api.do(http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		short := decode(t, w)
		assert.Equal(t, "A", short["name"])
		assert.Equal(t, float64(30), short["cooking_time"])
		assert.NotContains(t, short, "text")

		w = api.do(http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrAlreadyInFavorites, decode(t, w)["code"])

		w = api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", a), token, nil)
		assert.Equal(t, true, decode(t, w)["is_favorited"])

		assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, token, nil).Code)
		w = api.do(http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrNotInFavorites, decode(t, w)["code"])

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/recipes/999/favorite", token, nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/recipes/999/favorite", token, nil).Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrShoppingCartEmpty, decode(t, w)["code"])
	})

	t.Run("download", func(t *testing.T) {
		for _, id := range []uint{a, b} {
			w := api.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), token, nil)
			require.Equal(t, http.StatusCreated, w.Code)
		}
		w := api.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", a), token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = api.do(http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_list.txt")
		assert.Equal(t, "- eggs - 3 pcs\n- flour - 300 g\n", w.Body.String())

		assert.Equal(t, http.StatusUnauthorized,
			api.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil).Code)
	})
}

func TestSubscriptions(t *testing.T) {
	api := setupAPI(t)
	tagIDs, flourID, _ := api.seedReference(api.admin())

	chefID := api.register("chef")
	chefToken := api.login("chef")
	fanID := api.register("fan")
	token := api.login("fan")

	flour := []gin.H{{"id": flourID, "amount": 100}}
	api.createRecipe(chefToken, "First", tagIDs, flour)
	api.createRecipe(chefToken, "Second", tagIDs, flour)

	w := api.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", fanID), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrSelfSubscription, decode(t, w)["code"])

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/users/999/subscribe", token, nil).Code)

	path := fmt.Sprintf("/api/users/%d/subscribe", chefID)
	w = api.do(http.MethodPost, path+"?recipes_limit=1", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	subscription := decode(t, w)
	assert.Equal(t, "chef", subscription["username"])
	assert.Equal(t, true, subscription["is_subscribed"])
	assert.Equal(t, float64(2), subscription["recipes_count"])
	assert.Len(t, subscription["recipes"], 1)

	w = api.do(http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrAlreadySubscribed, decode(t, w)["code"])

	w = api.do(http.MethodGet, "/api/users/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(1), page["count"])
	results := page["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Len(t, results[0].(map[string]interface{})["recipes"], 2)

	// only a positive recipes_limit truncates
	for _, limit := range []string{"0", "-1", "abc"} {
		w = api.do(http.MethodGet, "/api/users/subscriptions?recipes_limit="+limit, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		results = decode(t, w)["results"].([]interface{})
		require.Len(t, results, 1)
		assert.Len(t, results[0].(map[string]interface{})["recipes"], 2, "recipes_limit=%s", limit)
	}
	w = api.do(http.MethodGet, "/api/users/subscriptions?recipes_limit=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results = decode(t, w)["results"].([]interface{})
	assert.Len(t, results[0].(map[string]interface{})["recipes"], 1)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/users/%d", chefID), token, nil)
	assert.Equal(t, true, decode(t, w)["is_subscribed"])
	w = api.do(http.MethodGet, fmt.Sprintf("/api/users/%d", chefID), "", nil)
	assert.Equal(t, false, decode(t, w)["is_subscribed"])

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, token, nil).Code)
	w = api.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrNotSubscribed, decode(t, w)["code"])
}

func TestPagination(t *testing.T) {
	api := setupAPI(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		api.register(name)
	}

	w := api.do(http.MethodGet, "/api/users?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)
	assert.Equal(t, float64(3), first["count"])
	assert.Equal(t, testBaseURL+"/api/users?limit=2&page=2", first["next"])
	assert.Nil(t, first["previous"])
	assert.Len(t, first["results"], 2)

	w = api.do(http.MethodGet, "/api/users?limit=2&page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.Nil(t, second["next"])
	assert.Equal(t, testBaseURL+"/api/users?limit=2", second["previous"])
	assert.Len(t, second["results"], 1)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/users?limit=2&page=3", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/users?page=abc", "", nil).Code)
	// pages whose offset would overflow are out of range too
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/users?page=9223372036854775807&limit=6", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/users?page=4611686018427387904", "", nil).Code)

	// an empty first page is still a page
	w = api.do(http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 0, "next": null, "previous": null, "results": []}`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrNotFound, decode(t, w)["code"])
}
