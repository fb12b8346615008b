package identity

import (
	"context"

	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ProvisionUser creates an identity account and its denormalized
// profile row in one flow. The save callback persists the profile; when
// it fails the just-created identity account is deleted again so the
// two stores cannot drift apart with an identity-only orphan. The
// compensating delete is best effort and not retried.
func ProvisionUser(ctx context.Context, p Provider, params CreateUserParams, save func(*model.User) error, log *zap.Logger) (*model.User, error) {
	account, err := p.CreateUser(ctx, params)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		compensate(ctx, p, account.ID, log)
		return nil, err
	}

	user := &model.User{
		ID:           account.ID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         params.Role,
		Segment:      params.Segment,
	}

	if err := save(user); err != nil {
		log.Error("Profile write failed after identity account creation",
			zap.String("user_id", account.ID),
			zap.String("email", params.Email),
			zap.Error(err))
		compensate(ctx, p, account.ID, log)
		return nil, err
	}

	return user, nil
}

func compensate(ctx context.Context, p Provider, accountID string, log *zap.Logger) {
	if err := p.DeleteUser(ctx, accountID); err != nil {
		// A residual orphan is possible here; there is no retry or
		// dead-letter path, only the log line and the counter.
		log.Error("Compensating identity delete failed",
			zap.String("user_id", accountID),
			zap.Error(err))
		prometheus.RecordCompensatingDelete("failed")
		return
	}

	log.Info("Compensating identity delete succeeded", zap.String("user_id", accountID))
	prometheus.RecordCompensatingDelete("success")
}
