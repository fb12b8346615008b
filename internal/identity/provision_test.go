package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/mdyrsy/kalbar-cm/internal/model"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeProvider struct {
	created []CreateUserParams
	deleted []string

	createErr error
	deleteErr error
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return nil, ErrInvalidCredentials
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return nil, ErrInvalidToken
}

func (f *fakeProvider) CreateUser(ctx context.Context, params CreateUserParams) (*Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, params)
	return &Account{ID: "acct-1", Email: params.Email}, nil
}

func (f *fakeProvider) DeleteUser(ctx context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return f.deleteErr
}

func TestProvisionUser(t *testing.T) {
	provider := &fakeProvider{}
	var saved *model.User

	user, err := ProvisionUser(context.Background(), provider, CreateUserParams{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "hunter22pass",
		Role:     model.RoleAccountManager,
		Segment:  model.SegmentPRQ,
	}, func(u *model.User) error {
		saved = u
		return nil
	}, zap.NewNop())

	if err != nil {
		t.Fatalf("ProvisionUser: %v", err)
	}
	if user.ID != "acct-1" {
		t.Errorf("profile ID = %q, want the identity account ID", user.ID)
	}
	if saved == nil || saved.Email != "ana@example.com" {
		t.Fatalf("profile not saved: %+v", saved)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("hunter22pass")); err != nil {
		t.Error("stored password hash does not verify")
	}
	if len(provider.deleted) != 0 {
		t.Errorf("no compensation expected on success, got deletes %v", provider.deleted)
	}
}

// A failed profile write must delete the identity account that was just
// created, so no identity-only orphan remains.
func TestProvisionUserCompensatesOnSaveFailure(t *testing.T) {
	provider := &fakeProvider{}

	_, err := ProvisionUser(context.Background(), provider, CreateUserParams{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "longenough",
		Role:     model.RoleAccountManager,
		Segment:  model.SegmentPRQ,
	}, func(u *model.User) error {
		return errors.New("profile insert failed")
	}, zap.NewNop())

	if err == nil {
		t.Fatal("expected the save failure to propagate")
	}
	if len(provider.deleted) != 1 || provider.deleted[0] != "acct-1" {
		t.Errorf("compensating delete not issued, deletes = %v", provider.deleted)
	}
}

func TestProvisionUserCompensationFailureStillReturnsSaveError(t *testing.T) {
	provider := &fakeProvider{deleteErr: errors.New("identity service down")}
	saveErr := errors.New("profile insert failed")

	_, err := ProvisionUser(context.Background(), provider, CreateUserParams{
		Email:    "carol@example.com",
		Password: "longenough",
	}, func(u *model.User) error {
		return saveErr
	}, zap.NewNop())

	if !errors.Is(err, saveErr) {
		t.Errorf("got %v, want the original save error", err)
	}
	if len(provider.deleted) != 1 {
		t.Errorf("compensating delete should still be attempted, deletes = %v", provider.deleted)
	}
}

func TestProvisionUserCreateFailureSkipsSave(t *testing.T) {
	provider := &fakeProvider{createErr: errors.New("email already registered")}
	saveCalled := false

	_, err := ProvisionUser(context.Background(), provider, CreateUserParams{
		Email:    "dup@example.com",
		Password: "longenough",
	}, func(u *model.User) error {
		saveCalled = true
		return nil
	}, zap.NewNop())

	if err == nil {
		t.Fatal("expected create error to propagate")
	}
	if saveCalled {
		t.Error("profile save must not run when account creation fails")
	}
}
