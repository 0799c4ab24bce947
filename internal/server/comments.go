package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/models"
	"worktrack/internal/thread"
)

func (s *Server) handleCreateComment(c *gin.Context) {
	var req models.CommentDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	comment, err := s.store.CreateComment(c.Request.Context(), req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

func (s *Server) handleGetComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comment, err := s.store.GetComment(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comment": comment})
}

// handleUpdateComment edits the comment content.
func (s *Server) handleUpdateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CommentPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	comment, err := s.store.UpdateComment(c.Request.Context(), id, req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comment": comment})
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	opts, ok := s.deleteOptions(c)
	if !ok {
		return
	}
	if err := s.store.DeleteComment(c.Request.Context(), id, opts); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleThread returns the reply forest attached to a project, task or
// ticket.
func (s *Server) handleThread(c *gin.Context) {
	id, ok := parseID(c, "entity_id")
	if !ok {
		return
	}
	target := models.Target{Type: models.EntityType(c.Param("entity_type")), ID: id}

	forest, err := s.store.Thread(c.Request.Context(), target)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if forest == nil {
		forest = []*thread.Node{}
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"target":   target,
		"comments": forest,
		"count":    thread.Count(forest),
	})
}
