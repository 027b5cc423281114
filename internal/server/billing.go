package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) GetSubscription(c *gin.Context) {
	sub, err := s.subsvc.GetByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, sub)
}

type checkoutRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, err)
		return
	}

	p, ok := s.catalog.ByID(req.PlanID)
	if !ok || p.StripePriceID == "" {
		AbortWithError(c, newValidationError("plan_id", "unknown_plan", "plan does not exist or is not purchasable"))
		return
	}

	url, err := s.checkoutsvc.CreateCheckout(c.Request.Context(), currentUserID(c), currentEmail(c), p.StripePriceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"url": url})
}

func (s *Server) CreatePortal(c *gin.Context) {
	url, err := s.checkoutsvc.CreatePortal(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"url": url})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	if err := s.subsvc.Cancel(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"cancel_at_period_end": true})
}

func (s *Server) ResumeSubscription(c *gin.Context) {
	if err := s.subsvc.Resume(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"cancel_at_period_end": false})
}
