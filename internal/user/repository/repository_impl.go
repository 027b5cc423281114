package repository

import (
	"context"
	"errors"

	userdomain "github.com/scribelabs/scribe/internal/user/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, u *userdomain.User) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(u).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*userdomain.User, error) {
	var u userdomain.User
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, userdomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, u *userdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		u.Name,
		u.AvatarURL,
		u.UpdatedAt,
		u.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Exec(`DELETE FROM users WHERE id = ?`, id).Error
}
