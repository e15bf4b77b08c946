package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// PasswordAuthenticator resolves an email/password pair to a user id
type PasswordAuthenticator func(ctx context.Context, email, password string) (uint, error)

// Options configures token issuing
type Options struct {
	JWTSecret    string
	TokenTTL     time.Duration
	ClientID     string
	ClientSecret string
}

// OAuthService issues and revokes access tokens for the first-party web client.
// Tokens are HS512 JWTs that are also recorded in the token store, so logging out
// invalidates a token before it expires.
type OAuthService struct {
	server      *server.Server
	manager     *manage.Manager
	clientStore *GormClientStore
	tokenStore  *GormTokenStore
	opts        Options
}

func NewOAuthService(db *gorm.DB, opts Options, authenticate PasswordAuthenticator) *OAuthService {
	manager := manage.NewDefaultManager()
	manager.SetPasswordTokenCfg(&manage.Config{
		AccessTokenExp:    opts.TokenTTL,
		IsGenerateRefresh: false,
	})

	// Use JWT for access tokens
	manager.MapAccessGenerate(newAccessTokenGenerator([]byte(opts.JWTSecret), db))

	// Configure token store
	tokenStore := NewGormTokenStore(db)
	manager.MustTokenStorage(tokenStore, nil)

	// Configure client store
	clientStore := NewGormClientStore(db)
	manager.MapClientStorage(clientStore)

	srv := server.NewDefaultServer(manager)
	srv.SetAllowedGrantType(oauth2.PasswordCredentials)
	srv.SetClientInfoHandler(server.ClientFormHandler)
	srv.SetPasswordAuthorizationHandler(func(ctx context.Context, clientID, username, password string) (string, error) {
		userID, err := authenticate(ctx, username, password)
		if err != nil {
			log.WithError(err).WithField("client_id", clientID).Debug("Password grant rejected")
			return "", oauth2errors.ErrInvalidGrant
		}
		return strconv.FormatUint(uint64(userID), 10), nil
	})
	srv.SetInternalErrorHandler(func(err error) *oauth2errors.Response {
		log.WithError(err).Warn("OAuth2 token request failed")
		return nil
	})

	return &OAuthService{
		server:      srv,
		manager:     manager,
		clientStore: clientStore,
		tokenStore:  tokenStore,
		opts:        opts,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// RegisterWebClient stores the first-party client the login endpoint issues tokens through
func (o *OAuthService) RegisterWebClient(ctx context.Context, domain string) error {
	if err := o.clientStore.EnsureClient(ctx, o.opts.ClientID, o.opts.ClientSecret, "Foodgram web", domain); err != nil {
		return err
	}
	log.WithField("client_id", o.opts.ClientID).Info("Web client registered")
	return nil
}

// IssueToken creates an access token for an authenticated user
func (o *OAuthService) IssueToken(ctx context.Context, userID uint) (string, error) {
	info, err := o.manager.GenerateAccessToken(ctx, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     o.opts.ClientID,
		ClientSecret: o.opts.ClientSecret,
		UserID:       strconv.FormatUint(uint64(userID), 10),
	})
	if err != nil {
		return "", err
	}
	return info.GetAccess(), nil
}

// CheckAccess reports whether the token is still recorded and unexpired
func (o *OAuthService) CheckAccess(ctx context.Context, access string) error {
	_, err := o.manager.LoadAccessToken(ctx, access)
	return err
}

// RevokeToken deletes the token; revoking an unknown token is not an error
func (o *OAuthService) RevokeToken(ctx context.Context, access string) error {
	err := o.manager.RemoveAccessToken(ctx, access)
	if errors.Is(err, oauth2errors.ErrInvalidAccessToken) {
		return nil
	}
	return err
}

// RevokeUserTokens deletes every token of a user
func (o *OAuthService) RevokeUserTokens(ctx context.Context, userID uint) error {
	return o.tokenStore.RemoveByUser(ctx, strconv.FormatUint(uint64(userID), 10))
}

// PurgeExpiredTokens removes expired tokens from the store
func (o *OAuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	removed, err := o.tokenStore.PurgeExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("Expired tokens purged")
	}
	return removed, nil
}
