package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/foodgram-api/internal/database"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret-key-32-characters"

var errBadPassword = errors.New("bad password")

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.InitDatabase(database.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupOAuthService(t *testing.T) (*OAuthService, *gorm.DB, *models.User) {
	db := setupTestDB(t)

	user := &models.User{Email: "cook@example.com", Username: "cook", Role: models.RoleAdmin}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)

	authenticate := func(ctx context.Context, email, password string) (uint, error) {
		if email == user.Email && user.CheckPassword(password) {
			return user.ID, nil
		}
		return 0, errBadPassword
	}

	service := NewOAuthService(db, Options{
		JWTSecret:    testSecret,
		TokenTTL:     time.Hour,
		ClientID:     "foodgram-web",
		ClientSecret: "web-secret",
	}, authenticate)
	require.NoError(t, service.RegisterWebClient(context.Background(), "http://localhost"))

	return service, db, user
}

func TestIssueTokenCarriesClaims(t *testing.T) {
	service, _, user := setupOAuthService(t)
	ctx := context.Background()

	access, err := service.IssueToken(ctx, user.ID)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(access, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1", claims["uid"])
	assert.Equal(t, models.RoleAdmin, claims["role"])
	assert.Equal(t, "foodgram-web", claims["aud"])
	assert.Equal(t, "cook", claims["username"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)

	second, err := service.IssueToken(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, access, second)
}

func TestRevokeToken(t *testing.T) {
	service, _, user := setupOAuthService(t)
	ctx := context.Background()

	access, err := service.IssueToken(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, service.CheckAccess(ctx, access))

	require.NoError(t, service.RevokeToken(ctx, access))
	assert.Error(t, service.CheckAccess(ctx, access))
	assert.NoError(t, service.RevokeToken(ctx, access))
}

func TestRevokeUserTokens(t *testing.T) {
	service, _, user := setupOAuthService(t)
	ctx := context.Background()

	first, err := service.IssueToken(ctx, user.ID)
	require.NoError(t, err)
	second, err := service.IssueToken(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, service.RevokeUserTokens(ctx, user.ID))
	assert.Error(t, service.CheckAccess(ctx, first))
	assert.Error(t, service.CheckAccess(ctx, second))
}

func TestExpiredTokens(t *testing.T) {
	service, db, user := setupOAuthService(t)
	ctx := context.Background()

	access, err := service.IssueToken(ctx, user.ID)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&models.OAuthToken{}).
		Where("access_token = ?", access).
		Updates(map[string]interface{}{"created_at": past, "expires_at": past.Add(time.Hour)}).Error)
	assert.Error(t, service.CheckAccess(ctx, access))

	removed, err := service.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestRegisterWebClientRotatesSecret(t *testing.T) {
	service, db, _ := setupOAuthService(t)
	ctx := context.Background()

	require.NoError(t, service.RegisterWebClient(ctx, "http://localhost"))
	service.opts.ClientSecret = "rotated-secret"
	require.NoError(t, service.RegisterWebClient(ctx, "http://localhost"))

	var clients []models.OAuthClient
	require.NoError(t, db.Find(&clients).Error)
	require.Len(t, clients, 1)
	assert.True(t, clients[0].VerifyPassword("rotated-secret"))
}

func TestPasswordGrantEndpoint(t *testing.T) {
	service, _, _ := setupOAuthService(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", func(c *gin.Context) {
		if err := service.GetServer().HandleTokenRequest(c.Writer, c.Request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
	})

	request := func(password string) *httptest.ResponseRecorder {
		form := url.Values{
			"grant_type":    {"password"},
			"client_id":     {"foodgram-web"},
			"client_secret": {"web-secret"},
			"username":      {"cook@example.com"},
			"password":      {password},
		}
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid credentials", func(t *testing.T) {
		w := request("password123")
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["access_token"])
		assert.Equal(t, "Bearer", response["token_type"])
		assert.NotContains(t, response, "refresh_token")

		access := response["access_token"].(string)
		assert.NoError(t, service.CheckAccess(context.Background(), access))
	})

	t.Run("wrong password", func(t *testing.T) {
		w := request("wrong")
		assert.NotEqual(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_grant")
	})
}
