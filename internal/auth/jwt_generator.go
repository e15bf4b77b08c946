package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accessTokenGenerator signs access tokens carrying the account's id, role and username
type accessTokenGenerator struct {
	key    []byte
	method jwt.SigningMethod
	db     *gorm.DB
}

func newAccessTokenGenerator(key []byte, db *gorm.DB) *accessTokenGenerator {
	return &accessTokenGenerator{key: key, method: jwt.SigningMethodHS512, db: db}
}

// account is the slice of a user row that ends up in the token
type account struct {
	Role     string
	Username string
}

// Token implements oauth2.AccessGenerate. No refresh tokens are issued.
func (g *accessTokenGenerator) Token(ctx context.Context, data *oauth2.GenerateBasic, _ bool) (string, string, error) {
	if data.UserID == "" {
		return "", "", errors.New("cannot issue a token without a user")
	}

	acc, err := g.account(ctx, data.UserID)
	if err != nil {
		return "", "", err
	}

	issued := data.TokenInfo.GetAccessCreateAt()
	claims := jwt.MapClaims{
		"aud":      data.Client.GetID(),
		"uid":      data.UserID,
		"role":     acc.Role,
		"username": acc.Username,
		"iat":      issued.Unix(),
		"exp":      issued.Add(data.TokenInfo.GetAccessExpiresIn()).Unix(),
		// two logins within one second must still differ
		"jti": uuid.NewString(),
	}

	access, err := jwt.NewWithClaims(g.method, claims).SignedString(g.key)
	if err != nil {
		return "", "", fmt.Errorf("signing access token: %w", err)
	}
	return access, "", nil
}

// account reads the role at issue time so promotions apply on the next login
func (g *accessTokenGenerator) account(ctx context.Context, rawID string) (account, error) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return account{}, fmt.Errorf("invalid user id %q: %w", rawID, err)
	}

	var acc account
	err = g.db.WithContext(ctx).Model(&models.User{}).
		Select("role", "username").
		Where("id = ?", id).
		Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return account{}, fmt.Errorf("user %d not found", id)
	}
	if err != nil {
		return account{}, fmt.Errorf("loading user %d: %w", id, err)
	}

	if acc.Role == "" {
		acc.Role = models.RoleUser
	}
	return acc, nil
}
