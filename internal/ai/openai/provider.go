package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"
	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
	"github.com/scribelabs/scribe/internal/config"
	"go.uber.org/zap"
)

type provider struct {
	client *goopenai.Client
	log    *zap.Logger
}

// NewProvider builds the OpenAI-backed completion provider. The client is
// created once at startup from validated config and injected everywhere it
// is needed.
func NewProvider(cfg config.Config, log *zap.Logger) aidomain.CompletionProvider {
	return &provider{
		client: goopenai.NewClient(cfg.OpenAIAPIKey),
		log:    log.Named("ai.openai"),
	}
}

func (p *provider) Complete(ctx context.Context, req aidomain.CompletionRequest) (aidomain.CompletionResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, chatRequest(req, false))
	if err != nil {
		p.log.Error("completion request failed", zap.String("model", req.Model), zap.Error(err))
		return aidomain.CompletionResult{}, fmt.Errorf("%w: %v", aidomain.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return aidomain.CompletionResult{}, aidomain.ErrEmptyCompletion
	}
	return aidomain.CompletionResult{
		Content:     resp.Choices[0].Message.Content,
		TotalTokens: int64(resp.Usage.TotalTokens),
	}, nil
}

func (p *provider) Stream(ctx context.Context, req aidomain.CompletionRequest) (aidomain.TokenStream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, chatRequest(req, true))
	if err != nil {
		p.log.Error("stream request failed", zap.String("model", req.Model), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", aidomain.ErrProviderUnavailable, err)
	}
	return &tokenStream{stream: stream}, nil
}

type tokenStream struct {
	stream *goopenai.ChatCompletionStream
}

func (s *tokenStream) Recv() (string, error) {
	for {
		chunk, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", aidomain.ErrProviderUnavailable, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *tokenStream) Close() error { return s.stream.Close() }

func chatRequest(req aidomain.CompletionRequest, stream bool) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
	return goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
}
