package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/pkg/config"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/pkg/jwtutil"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is the embedded identity mode: credentials are verified
// against the users table, access tokens are signed locally and refresh
// tokens live in the session_tokens table. Useful for standalone
// deployments without an external identity service.
type LocalProvider struct {
	refreshTTL time.Duration
	accessTTL  time.Duration
}

// NewLocalProvider creates the embedded identity provider.
func NewLocalProvider(cfg *config.IdentityConfig, jwtCfg *config.JWTConfig) *LocalProvider {
	return &LocalProvider{
		refreshTTL: cfg.RefreshTokenTTL,
		accessTTL:  time.Duration(jwtCfg.ExpirationHours) * time.Hour,
	}
}

// SignIn verifies the bcrypt password hash of the matching profile row
// and issues a fresh session.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	db := database.GetDB().WithContext(ctx)

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issueSession(ctx, &user)
}

// Refresh rotates a valid refresh token into a new session.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	db := database.GetDB().WithContext(ctx)

	var token model.SessionToken
	if err := db.Where("token = ? AND revoked = ?", refreshToken, false).First(&token).Error; err != nil {
		return nil, ErrInvalidToken
	}
	if token.IsExpired() {
		return nil, ErrInvalidToken
	}

	var user model.User
	if err := db.First(&user, "id = ?", token.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	// Rotate: the redeemed token is revoked before the new one is issued.
	if err := db.Model(&token).Update("revoked", true).Error; err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return p.issueSession(ctx, &user)
}

// CreateUser allocates an account ID for a new profile row. The profile
// row itself is the credential store in local mode, so nothing else is
// persisted here.
func (p *LocalProvider) CreateUser(ctx context.Context, params CreateUserParams) (*Account, error) {
	db := database.GetDB().WithContext(ctx)

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", params.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("email already registered")
	}

	return &Account{ID: uuid.NewString(), Email: params.Email}, nil
}

// DeleteUser revokes every outstanding session for the account. The
// profile row holds the credentials, so removing it is the caller's job.
func (p *LocalProvider) DeleteUser(ctx context.Context, userID string) error {
	db := database.GetDB().WithContext(ctx)

	return db.Model(&model.SessionToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func (p *LocalProvider) issueSession(ctx context.Context, user *model.User) (*Session, error) {
	access, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role, user.Segment)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh := model.SessionToken{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(p.refreshTTL),
	}
	if err := database.GetDB().WithContext(ctx).Create(&refresh).Error; err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &Session{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresIn:    int(p.accessTTL.Seconds()),
	}, nil
}
