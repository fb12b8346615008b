package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdyrsy/kalbar-cm/pkg/config"

	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned when sign-in fails. It does not
	// distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a refresh token is unknown,
	// revoked or expired.
	ErrInvalidToken = errors.New("invalid or expired refresh token")
)

// Session is the token triple issued on successful sign-in.
type Session struct {
	UserID       string `json:"-"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Account is an identity-provider user account.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateUserParams are the fields needed to provision an identity account.
type CreateUserParams struct {
	Name     string
	Email    string
	Password string
	Role     string
	Segment  string
}

// Provider abstracts the identity service behind sign-in, refresh and
// admin user provisioning. Implementations: HTTPProvider for an
// external GoTrue-compatible service, LocalProvider for the embedded
// credential store.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*Account, error)
	DeleteUser(ctx context.Context, userID string) error
}

var provider Provider

// Initialize selects and configures the identity provider.
func Initialize(cfg *config.IdentityConfig, jwtCfg *config.JWTConfig) error {
	switch cfg.Mode {
	case "http":
		if cfg.BaseURL == "" {
			return errors.New("IDENTITY_BASE_URL is required in http mode")
		}
		provider = NewHTTPProvider(cfg, zap.L())
	case "local", "":
		provider = NewLocalProvider(cfg, jwtCfg)
	default:
		return fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
	return nil
}

// Default returns the configured identity provider.
func Default() Provider {
	return provider
}
