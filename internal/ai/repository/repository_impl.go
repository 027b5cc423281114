package repository

import (
	"context"

	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() aidomain.ContentRepository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, gc *aidomain.GeneratedContent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO generated_contents (id, user_id, prompt, content, model, tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gc.ID,
		gc.UserID,
		gc.Prompt,
		gc.Content,
		gc.Model,
		gc.Tokens,
		gc.CreatedAt,
	).Error
}
