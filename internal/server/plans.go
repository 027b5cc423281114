package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) ListPlans(c *gin.Context) {
	respondData(c, s.catalog.List())
}
