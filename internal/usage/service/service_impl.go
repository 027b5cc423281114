package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/scribelabs/scribe/internal/clock"
	"github.com/scribelabs/scribe/internal/plan"
	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  usagedomain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  usagedomain.Repository
}

func NewService(p ServiceParam) usagedomain.Ledger {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("usage.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) Record(ctx context.Context, userID string, amount int64, typ usagedomain.EventType, description string) error {
	if amount <= 0 {
		return usagedomain.ErrInvalidAmount
	}
	ev := &usagedomain.UsageEvent{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		CreatedAt:   s.clock.Now(ctx),
	}
	if err := s.repo.Insert(ctx, s.db, ev); err != nil {
		s.log.Error("failed to record usage", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("%w: %v", usagedomain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *service) MonthlyUsage(ctx context.Context, userID string, typ usagedomain.EventType) (int64, error) {
	total, err := s.repo.SumSince(ctx, s.db, userID, typ, startOfMonth(s.clock.Now(ctx)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", usagedomain.ErrStorageUnavailable, err)
	}
	return total, nil
}

func (s *service) HasExceededLimit(ctx context.Context, userID string, typ usagedomain.EventType, limit int64) (bool, error) {
	if limit == plan.Unlimited {
		return false, nil
	}
	total, err := s.MonthlyUsage(ctx, userID, typ)
	if err != nil {
		return false, err
	}
	return total >= limit, nil
}

// startOfMonth is the fixed reset instant: first of the current calendar
// month at local midnight, not a rolling window.
func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
