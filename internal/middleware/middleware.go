package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Context keys set by the auth middleware
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextToken    = "accessToken"
	ContextClientID = "clientID"
)

// Accepted Authorization schemes
var tokenSchemes = []string{"Token ", "Bearer "}

// AccessVerifier confirms a token has not been revoked
type AccessVerifier interface {
	CheckAccess(ctx context.Context, access string) error
}

// TokenAuth requires a valid access token, sent as "Authorization: Token <t>" or "Authorization: Bearer <t>".
// The JWT signature and claims are checked first, then the token store, so revoked tokens are rejected.
func TokenAuth(jwtSecret []byte, verifier AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, jwtSecret, verifier); err != nil {
			respondUnauthorized(c, err.Error())
			return
		}
		c.Next()
	}
}

// OptionalTokenAuth authenticates the request when a token is present and lets anonymous
// requests through. A present but invalid token is still rejected.
func OptionalTokenAuth(jwtSecret []byte, verifier AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if err := authenticate(c, jwtSecret, verifier); err != nil {
			respondUnauthorized(c, err.Error())
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user, false for anonymous requests
func UserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

// AccessToken returns the raw token of the authenticated request
func AccessToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}

// ClientID returns the OAuth2 client the request's token was issued to
func ClientID(c *gin.Context) string {
	return c.GetString(ContextClientID)
}

func authenticate(c *gin.Context, jwtSecret []byte, verifier AccessVerifier) error {
	tokenString, err := extractToken(c.GetHeader("Authorization"))
	if err != nil {
		return err
	}

	claims, err := parseAndValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return err
	}
	if err := verifier.CheckAccess(c.Request.Context(), tokenString); err != nil {
		log.WithError(err).Debug("Token rejected by token store")
		return fmt.Errorf("token has been revoked or has expired")
	}
	if err := extractAndSetClaims(c, claims); err != nil {
		return err
	}
	c.Set(ContextToken, tokenString)
	return nil
}

func extractToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authentication credentials were not provided")
	}
	for _, scheme := range tokenSchemes {
		if strings.HasPrefix(header, scheme) {
			token := strings.TrimSpace(strings.TrimPrefix(header, scheme))
			if token == "" {
				return "", fmt.Errorf("token is empty")
			}
			return token, nil
		}
	}
	return "", fmt.Errorf("authorization header must use the Token or Bearer scheme")
}

func respondUnauthorized(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, description))
}

// parseJWTToken validates and parses a JWT token using HMAC signing method
// Returns the claims if valid, error otherwise
func parseJWTToken(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Reject algorithm substitution: only HMAC tokens are ever issued
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v. Expected HMAC", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims format")
	}

	return claims, nil
}

// parseAndValidateJWT parses the JWT and performs strict validation
func parseAndValidateJWT(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	claims, err := parseJWTToken(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return nil, fmt.Errorf("token missing required 'exp' claim")
	}
	if exp.Before(now) {
		return nil, fmt.Errorf("token has expired")
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return nil, fmt.Errorf("invalid nbf claim: %w", err)
	}
	if nbf != nil && nbf.After(now) {
		return nil, fmt.Errorf("token not yet valid")
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("invalid iat claim: %w", err)
	}
	if iat != nil && iat.After(now.Add(time.Minute)) {
		return nil, fmt.Errorf("token issued in the future")
	}

	return claims, nil
}

// extractAndSetClaims extracts user information from JWT claims and sets it in the Gin context
func extractAndSetClaims(c *gin.Context, claims jwt.MapClaims) error {
	userID, err := extractUserID(claims)
	if err != nil {
		return err
	}
	if userID == 0 {
		return fmt.Errorf("invalid user identifier: cannot be zero")
	}
	c.Set(ContextUserID, userID)

	if aud, ok := claims["aud"].(string); ok && aud != "" {
		c.Set(ContextClientID, aud)
	} else if audArray, ok := claims["aud"].([]interface{}); ok && len(audArray) > 0 {
		if firstAud, ok := audArray[0].(string); ok && firstAud != "" {
			c.Set(ContextClientID, firstAud)
		}
	}

	role, err := extractRole(claims)
	if err != nil {
		return err
	}
	c.Set(ContextUserRole, role)

	return nil
}

// extractUserID reads the "uid" claim, issued as a numeric string
func extractUserID(claims jwt.MapClaims) (uint, error) {
	if uid, ok := claims["uid"].(string); ok && uid != "" {
		parsedID, err := strconv.ParseUint(uid, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid uid claim format: must be a numeric string, got: %s", uid)
		}
		return uint(parsedID), nil
	}

	// JSON numbers decode as float64
	if uid, ok := claims["uid"].(float64); ok {
		if uid <= 0 {
			return 0, fmt.Errorf("invalid uid claim: must be positive, got: %f", uid)
		}
		return uint(uid), nil
	}

	return 0, fmt.Errorf("token missing required 'uid' claim. This token is not valid for this API")
}

// extractRole extracts and validates the role from JWT claims
// All tokens must have an explicit role claim - no defaults are provided
func extractRole(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", fmt.Errorf("token missing required 'role' claim. Tokens must explicitly specify user roles")
	}

	allowedRoles := map[string]bool{
		models.RoleAdmin: true,
		models.RoleUser:  true,
	}

	if !allowedRoles[role] {
		return "", fmt.Errorf("invalid role '%s'. Allowed roles: admin, user", role)
	}

	return role, nil
}
