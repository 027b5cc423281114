package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
)

func (s *Server) GenerateContent(c *gin.Context) {
	var req aidomain.GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	if c.Query("stream") == "true" {
		s.streamContent(c, req)
		return
	}

	result, err := s.aisvc.GenerateContent(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	observeTokens("generate", result.TokensUsed)
	respondData(c, result)
}

// streamContent writes SSE frames: one "chunk" event per fragment, a final
// "done" event carrying the token total. Errors before the first fragment
// surface as a normal JSON error response.
func (s *Server) streamContent(c *gin.Context, req aidomain.GenerateContentRequest) {
	userID := currentUserID(c)
	started := false

	result, err := s.aisvc.StreamContent(c.Request.Context(), userID, req, func(fragment string) error {
		if !started {
			c.Writer.Header().Set("Content-Type", "text/event-stream")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")
			c.Writer.WriteHeader(http.StatusOK)
			started = true
		}
		return writeSSE(c, "chunk", gin.H{"content": fragment})
	})
	if err != nil {
		if !started {
			AbortWithError(c, err)
			return
		}
		// Headers are gone; the only option left is an error frame.
		_ = writeSSE(c, "error", gin.H{"code": err.Error()})
		return
	}

	observeTokens("generate", result.TokensUsed)
	_ = writeSSE(c, "done", gin.H{"tokens_used": result.TokensUsed})
}

func writeSSE(c *gin.Context, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("event: " + event + "\ndata: " + string(raw) + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func (s *Server) GenerateCode(c *gin.Context) {
	var req aidomain.GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.aisvc.GenerateCode(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	observeTokens("code", result.TokensUsed)
	respondData(c, result)
}

func (s *Server) Summarize(c *gin.Context) {
	var req aidomain.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.aisvc.Summarize(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	observeTokens("summarize", result.TokensUsed)
	respondData(c, result)
}

func (s *Server) Translate(c *gin.Context) {
	var req aidomain.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.aisvc.Translate(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	observeTokens("translate", result.TokensUsed)
	respondData(c, result)
}
