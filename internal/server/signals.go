package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/signal"
)

// handlePendingCount answers ?scope=global|project|task with ?id for the
// scoped kinds.
func (s *Server) handlePendingCount(c *gin.Context) {
	scope := signal.Scope{
		Kind: signal.ScopeKind(c.DefaultQuery("scope", string(signal.ScopeGlobal))),
		ID:   c.Query("id"),
	}
	count, err := s.store.PendingCount(c.Request.Context(), scope)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"scope": scope, "pending": count})
}

func (s *Server) handlePendingSummary(c *gin.Context) {
	summary, err := s.store.PendingSummary(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}
