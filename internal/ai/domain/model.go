package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	DefaultModel       = "gpt-4-turbo-preview"
	DefaultMaxTokens   = 2000
	DefaultTemperature = float32(0.7)
)

// GeneratedContent is the append-only audit trail of proxy calls. Core logic
// never reads it back.
type GeneratedContent struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    string       `json:"user_id" gorm:"type:text;not null;index"`
	Prompt    string       `json:"prompt" gorm:"type:text;not null"`
	Content   string       `json:"content" gorm:"type:text;not null"`
	Model     string       `json:"model" gorm:"type:text;not null"`
	Tokens    int64        `json:"tokens" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (GeneratedContent) TableName() string { return "generated_contents" }

var (
	ErrInvalidInput        = errors.New("invalid_generation_input")
	ErrQuotaExceeded       = errors.New("monthly_quota_exceeded")
	ErrProviderUnavailable = errors.New("completion_provider_unavailable")
	ErrEmptyCompletion     = errors.New("empty_completion")
)

type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
}

// CompletionResult carries the output and, when the provider reports it, the
// authoritative billed token count. TotalTokens of zero means unknown.
type CompletionResult struct {
	Content     string
	TotalTokens int64
}

// TokenStream yields output fragments until io.EOF. It is finite and not
// restartable.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Stream(ctx context.Context, req CompletionRequest) (TokenStream, error)
}

type GenerateContentRequest struct {
	Prompt      string   `json:"prompt" validate:"required,max=5000"`
	Style       string   `json:"style" validate:"omitempty,max=200"`
	Model       string   `json:"model" validate:"omitempty,max=100"`
	MaxTokens   int      `json:"max_tokens" validate:"omitempty,min=1,max=4000"`
	Temperature *float32 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

type GenerateCodeRequest struct {
	Task     string `json:"task" validate:"required,max=2000"`
	Language string `json:"language" validate:"required,max=50"`
	Context  string `json:"context" validate:"omitempty,max=3000"`
}

type SummarizeRequest struct {
	Content   string `json:"content" validate:"required,max=10000"`
	MaxLength int    `json:"max_length" validate:"omitempty,min=50,max=1000"`
}

type TranslateRequest struct {
	Text           string `json:"text" validate:"required,max=5000"`
	TargetLanguage string `json:"target_language" validate:"required,max=50"`
}

type GenerateResult struct {
	Output     string `json:"output"`
	TokensUsed int64  `json:"tokens_used"`
}

// StreamFunc receives each output fragment as it arrives.
type StreamFunc func(fragment string) error

type Service interface {
	GenerateContent(ctx context.Context, userID string, req GenerateContentRequest) (*GenerateResult, error)
	StreamContent(ctx context.Context, userID string, req GenerateContentRequest, fn StreamFunc) (*GenerateResult, error)
	GenerateCode(ctx context.Context, userID string, req GenerateCodeRequest) (*GenerateResult, error)
	Summarize(ctx context.Context, userID string, req SummarizeRequest) (*GenerateResult, error)
	Translate(ctx context.Context, userID string, req TranslateRequest) (*GenerateResult, error)
}

type ContentRepository interface {
	Insert(ctx context.Context, db *gorm.DB, gc *GeneratedContent) error
}
