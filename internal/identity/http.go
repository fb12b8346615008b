package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mdyrsy/kalbar-cm/pkg/config"

	"go.uber.org/zap"
)

// HTTPProvider talks to an external GoTrue-compatible identity service.
// Credential checks use the password grant; provisioning uses the admin
// API authenticated with the service key.
type HTTPProvider struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// errorResponse is the identity service's JSON error envelope. Field
// names vary across endpoints, so all known spellings are captured.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return "unknown identity service error"
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// NewHTTPProvider creates an identity client for the given configuration.
func NewHTTPProvider(cfg *config.IdentityConfig, logger *zap.Logger) *HTTPProvider {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		ServiceKey: cfg.ServiceKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// SignIn verifies credentials with the password grant and returns the
// issued session.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	respBody, status, err := p.post(ctx, "/token?grant_type=password", body, false)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden {
		p.Logger.Warn("Identity sign-in rejected", zap.Int("status", status))
		return nil, ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return nil, p.upstreamError("sign-in", status, respBody)
	}

	var session sessionResponse
	if err := json.Unmarshal(respBody, &session); err != nil {
		p.Logger.Error("Failed to parse sign-in response", zap.Error(err))
		return nil, err
	}

	return &Session{
		UserID:       session.User.ID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}, nil
}

// Refresh exchanges a refresh token for a new session.
func (p *HTTPProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	respBody, status, err := p.post(ctx, "/token?grant_type=refresh_token", body, false)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if status != http.StatusOK {
		return nil, p.upstreamError("refresh", status, respBody)
	}

	var session sessionResponse
	if err := json.Unmarshal(respBody, &session); err != nil {
		p.Logger.Error("Failed to parse refresh response", zap.Error(err))
		return nil, err
	}

	return &Session{
		UserID:       session.User.ID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}, nil
}

// CreateUser provisions a pre-confirmed identity account via the admin API.
func (p *HTTPProvider) CreateUser(ctx context.Context, params CreateUserParams) (*Account, error) {
	p.Logger.Info("Creating identity account", zap.String("email", params.Email))

	body := map[string]interface{}{
		"email":         params.Email,
		"password":      params.Password,
		"email_confirm": true,
		"user_metadata": map[string]string{
			"name":    params.Name,
			"role":    params.Role,
			"segment": params.Segment,
		},
	}

	respBody, status, err := p.post(ctx, "/admin/users", body, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, p.upstreamError("create user", status, respBody)
	}

	var account Account
	if err := json.Unmarshal(respBody, &account); err != nil {
		p.Logger.Error("Failed to parse create-user response", zap.Error(err))
		return nil, err
	}

	return &account, nil
}

// DeleteUser removes an identity account via the admin API.
func (p *HTTPProvider) DeleteUser(ctx context.Context, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/admin/users/%s", p.BaseURL, userID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.ServiceKey)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		p.Logger.Error("Identity delete request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return p.upstreamError("delete user", resp.StatusCode, respBody)
	}

	return nil
}

// post sends a JSON request and returns the raw body plus status code.
func (p *HTTPProvider) post(ctx context.Context, path string, body interface{}, admin bool) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+p.ServiceKey)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		p.Logger.Error("Identity request failed", zap.String("path", path), zap.Error(err))
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		p.Logger.Error("Failed to read identity response", zap.Error(err))
		return nil, 0, err
	}

	return respBody, resp.StatusCode, nil
}

func (p *HTTPProvider) upstreamError(op string, status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		p.Logger.Error("Identity service error",
			zap.String("operation", op),
			zap.Int("status", status),
			zap.String("response", string(body)))
		return fmt.Errorf("identity %s failed: %d %s", op, status, string(body))
	}
	p.Logger.Error("Identity service error",
		zap.String("operation", op),
		zap.Int("status", status),
		zap.String("message", errResp.text()))
	return fmt.Errorf("identity %s failed: %s", op, errResp.text())
}
