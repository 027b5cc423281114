package service

import (
	"context"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
	"github.com/scribelabs/scribe/internal/ai/prompts"
	"github.com/scribelabs/scribe/internal/clock"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Provider aidomain.CompletionProvider
	Ledger   usagedomain.Ledger
	SubSvc   subscriptiondomain.Service
	Repo     aidomain.ContentRepository
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	provider aidomain.CompletionProvider
	ledger   usagedomain.Ledger
	subSvc   subscriptiondomain.Service
	repo     aidomain.ContentRepository
	validate *validator.Validate
}

func NewService(p ServiceParam) aidomain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("ai.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		provider: p.Provider,
		ledger:   p.Ledger,
		subSvc:   p.SubSvc,
		repo:     p.Repo,
		validate: validator.New(),
	}
}

// call captures one validated request to the shared pipeline. The four
// public variants differ only in prompt construction and schema.
type call struct {
	systemPrompt string
	prompt       string
	model        string
	maxTokens    int
	temperature  float32
	description  string
}

func (s *service) GenerateContent(ctx context.Context, userID string, req aidomain.GenerateContentRequest) (*aidomain.GenerateResult, error) {
	c, err := s.contentCall(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, userID, c)
}

func (s *service) StreamContent(ctx context.Context, userID string, req aidomain.GenerateContentRequest, fn aidomain.StreamFunc) (*aidomain.GenerateResult, error) {
	c, err := s.contentCall(req)
	if err != nil {
		return nil, err
	}
	return s.runStream(ctx, userID, c, fn)
}

func (s *service) GenerateCode(ctx context.Context, userID string, req aidomain.GenerateCodeRequest) (*aidomain.GenerateResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, aidomain.ErrInvalidInput
	}
	return s.run(ctx, userID, call{
		systemPrompt: prompts.SystemCode,
		prompt:       prompts.Code(req.Task, req.Language, req.Context),
		model:        aidomain.DefaultModel,
		maxTokens:    aidomain.DefaultMaxTokens,
		temperature:  aidomain.DefaultTemperature,
		description:  "Code generation",
	})
}

func (s *service) Summarize(ctx context.Context, userID string, req aidomain.SummarizeRequest) (*aidomain.GenerateResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, aidomain.ErrInvalidInput
	}
	maxTokens := 500
	if req.MaxLength > 0 {
		maxTokens = req.MaxLength * 2
	}
	return s.run(ctx, userID, call{
		systemPrompt: prompts.SystemSummarize,
		prompt:       prompts.Summarize(req.Content, req.MaxLength),
		model:        aidomain.DefaultModel,
		maxTokens:    maxTokens,
		temperature:  aidomain.DefaultTemperature,
		description:  "Summarization",
	})
}

func (s *service) Translate(ctx context.Context, userID string, req aidomain.TranslateRequest) (*aidomain.GenerateResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, aidomain.ErrInvalidInput
	}
	return s.run(ctx, userID, call{
		systemPrompt: prompts.SystemTranslate,
		prompt:       prompts.Translate(req.Text, req.TargetLanguage),
		model:        aidomain.DefaultModel,
		maxTokens:    aidomain.DefaultMaxTokens,
		temperature:  aidomain.DefaultTemperature,
		description:  "Translation",
	})
}

func (s *service) contentCall(req aidomain.GenerateContentRequest) (call, error) {
	if err := s.validate.Struct(req); err != nil {
		return call{}, aidomain.ErrInvalidInput
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return call{}, aidomain.ErrInvalidInput
	}
	c := call{
		systemPrompt: prompts.SystemContent,
		prompt:       prompts.Content(req.Prompt, req.Style),
		model:        req.Model,
		maxTokens:    req.MaxTokens,
		temperature:  aidomain.DefaultTemperature,
		description:  "Content generation",
	}
	if c.model == "" {
		c.model = aidomain.DefaultModel
	}
	if c.maxTokens == 0 {
		c.maxTokens = aidomain.DefaultMaxTokens
	}
	if req.Temperature != nil {
		c.temperature = *req.Temperature
	}
	return c, nil
}

// run is the pipeline shared by every variant: quota gate, provider call,
// then bookkeeping. The quota check happens strictly before the provider
// call so an unbillable request never spends provider resources, and usage
// is recorded only after the provider confirmed output.
func (s *service) run(ctx context.Context, userID string, c call) (*aidomain.GenerateResult, error) {
	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.provider.Complete(ctx, aidomain.CompletionRequest{
		Model:        c.model,
		SystemPrompt: c.systemPrompt,
		Prompt:       c.prompt,
		MaxTokens:    c.maxTokens,
		Temperature:  c.temperature,
	})
	if err != nil {
		return nil, err
	}

	tokens := result.TotalTokens
	if tokens <= 0 {
		tokens = estimateTokens(c.prompt + result.Content)
	}
	return s.finish(ctx, userID, c, result.Content, tokens)
}

func (s *service) runStream(ctx context.Context, userID string, c call, fn aidomain.StreamFunc) (*aidomain.GenerateResult, error) {
	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	stream, err := s.provider.Stream(ctx, aidomain.CompletionRequest{
		Model:        c.model,
		SystemPrompt: c.systemPrompt,
		Prompt:       c.prompt,
		MaxTokens:    c.maxTokens,
		Temperature:  c.temperature,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var out strings.Builder
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := fn(fragment); err != nil {
			return nil, err
		}
		out.WriteString(fragment)
	}

	return s.finish(ctx, userID, c, out.String(), estimateTokens(c.prompt+out.String()))
}

func (s *service) checkQuota(ctx context.Context, userID string) error {
	limit, err := s.subSvc.MonthlyTokenLimit(ctx, userID)
	if err != nil {
		return err
	}
	exceeded, err := s.ledger.HasExceededLimit(ctx, userID, usagedomain.EventTypeAIGeneration, limit)
	if err != nil {
		return err
	}
	if exceeded {
		return aidomain.ErrQuotaExceeded
	}
	return nil
}

func (s *service) finish(ctx context.Context, userID string, c call, output string, tokens int64) (*aidomain.GenerateResult, error) {
	if err := s.ledger.Record(ctx, userID, tokens, usagedomain.EventTypeAIGeneration, c.description); err != nil {
		return nil, err
	}
	gc := &aidomain.GeneratedContent{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Prompt:    c.prompt,
		Content:   output,
		Model:     c.model,
		Tokens:    tokens,
		CreatedAt: s.clock.Now(ctx),
	}
	if err := s.repo.Insert(ctx, s.db, gc); err != nil {
		// Usage is already committed; the audit row is best effort.
		s.log.Error("failed to persist generated content",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return &aidomain.GenerateResult{Output: output, TokensUsed: tokens}, nil
}

// estimateTokens is the fallback metering heuristic: one token per four
// characters, rounded up. Authoritative provider usage wins when reported.
func estimateTokens(text string) int64 {
	if text == "" {
		return 0
	}
	return int64((len(text) + 3) / 4)
}
