package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

// handleListTickets lists tickets filtered by ?status, ?project_id and
// ?task_id, newest first.
func (s *Server) handleListTickets(c *gin.Context) {
	filter := storage.TicketFilter{
		ProjectID: c.Query("project_id"),
		TaskID:    c.Query("task_id"),
		Status:    models.TicketStatus(c.Query("status")),
	}
	if filter.Status != "" {
		if _, ok := models.ValidTicketStatuses[filter.Status]; !ok {
			s.respondStoreError(c, models.Errorf(models.ErrInvalidField, models.EntityTicket, "status", "unknown status %q", filter.Status))
			return
		}
	}
	for field, id := range map[string]string{"project_id": filter.ProjectID, "task_id": filter.TaskID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			s.respondStoreError(c, models.Errorf(models.ErrInvalidField, models.EntityTicket, field, "%q is not a valid id", id))
			return
		}
	}

	tickets, err := s.store.ListTickets(c.Request.Context(), filter)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tickets": tickets})
}

func (s *Server) handleCreateTicket(c *gin.Context) {
	var req models.TicketDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	ticket, err := s.store.CreateTicket(c.Request.Context(), req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"ticket": ticket})
}

func (s *Server) handleGetTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ticket, err := s.store.GetTicket(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"ticket": ticket})
}

// handleUpdateTicket patches a ticket. Resolving it requires a
// resolution_note alongside the new status.
func (s *Server) handleUpdateTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.TicketPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	ticket, err := s.store.UpdateTicket(c.Request.Context(), id, req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"ticket": ticket})
}

func (s *Server) handleDeleteTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	opts, ok := s.deleteOptions(c)
	if !ok {
		return
	}
	if err := s.store.DeleteTicket(c.Request.Context(), id, opts); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
