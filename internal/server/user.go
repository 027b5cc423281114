package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	userdomain "github.com/scribelabs/scribe/internal/user/domain"
)

type meResponse struct {
	User         *userdomain.User                 `json:"user"`
	Subscription *subscriptiondomain.Subscription `json:"subscription,omitempty"`
}

func (s *Server) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := meResponse{User: user}
	sub, err := s.subsvc.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
		AbortWithError(c, err)
		return
	}
	if err == nil {
		resp.Subscription = sub
	}
	respondData(c, resp)
}

func (s *Server) UpdateMe(c *gin.Context) {
	var req userdomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.usersvc.UpdateProfile(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, user)
}

func (s *Server) DeleteMe(c *gin.Context) {
	if err := s.usersvc.DeleteAccount(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type usageResponse struct {
	TokensUsed int64  `json:"tokens_used"`
	TokenLimit int64  `json:"token_limit"`
	Unlimited  bool   `json:"unlimited"`
	Period     string `json:"period"`
}

func (s *Server) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	limit, err := s.subsvc.MonthlyTokenLimit(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	used, err := s.ledger.MonthlyUsage(ctx, userID, usagedomain.EventTypeAIGeneration)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, usageResponse{
		TokensUsed: used,
		TokenLimit: limit,
		Unlimited:  limit < 0,
		Period:     "month",
	})
}
