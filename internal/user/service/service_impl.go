package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/scribelabs/scribe/internal/clock"
	userdomain "github.com/scribelabs/scribe/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  userdomain.Repository
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     userdomain.Repository
	validate *validator.Validate
}

func NewService(p ServiceParam) userdomain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("user.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		validate: validator.New(),
	}
}

// EnsureUser upserts the local row for an identity the provider vouched for.
// Profile fields set locally are not clobbered on repeat sightings.
func (s *service) EnsureUser(ctx context.Context, u userdomain.User) (*userdomain.User, error) {
	if u.ID == "" || u.Email == "" {
		return nil, userdomain.ErrInvalidUser
	}
	now := s.clock.Now(ctx)
	u.CreatedAt = now
	u.UpdatedAt = now
	if err := s.repo.Upsert(ctx, s.db, &u); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, u.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *service) UpdateProfile(ctx context.Context, id string, req userdomain.UpdateProfileRequest) (*userdomain.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, userdomain.ErrInvalidUser
	}

	u, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}
	u.UpdatedAt = s.clock.Now(ctx)

	if err := s.repo.Update(ctx, s.db, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the user and every dependent record in one
// transaction. Deletes are explicit rather than relying on FK cascade so the
// behavior is identical across postgres and the sqlite test driver.
func (s *service) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, s.db, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			`DELETE FROM usage_events WHERE user_id = ?`,
			`DELETE FROM generated_contents WHERE user_id = ?`,
			`DELETE FROM subscriptions WHERE user_id = ?`,
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		s.log.Info("account deleted", zap.String("user_id", id))
		return nil
	})
}
