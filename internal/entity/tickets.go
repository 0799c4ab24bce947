package entity

import (
	"context"
	"strings"

	"worktrack/internal/models"
	"worktrack/internal/storage"
	"worktrack/internal/workflow"
)

// CreateTicket stores a new pending ticket. Tickets cannot be created in a
// resolved state; resolution only happens through UpdateTicket.
func (s *Store) CreateTicket(ctx context.Context, d models.TicketDraft) (models.Ticket, error) {
	if d.Status != "" && d.Status != models.TicketPending {
		return models.Ticket{}, models.Errorf(models.ErrInvalidTransition, models.EntityTicket, "status", "tickets are created pending, not %q", d.Status)
	}
	t := models.Ticket{
		ProjectID:   d.ProjectID,
		TaskID:      d.TaskID,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Type:        d.Type,
		Status:      models.TicketPending,
		Priority:    d.Priority,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   s.clock.Now(),
	}
	if t.Type == "" {
		t.Type = models.TicketInfo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if err := validateTicket(t); err != nil {
		return models.Ticket{}, err
	}

	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if err := s.resolveTicketScope(ctx, tx, t.ProjectID, t.TaskID); err != nil {
			return err
		}
		id, err := s.assignID(models.EntityTicket, d.ID, func(id string) error {
			_, err := tx.GetTicket(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		t.ID = id
		return tx.PutTicket(ctx, t)
	})
	if err != nil {
		return models.Ticket{}, err
	}
	s.logCommitted("ticket created", models.EntityTicket, t.ID)
	return t, nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	var t models.Ticket
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		t, err = tx.GetTicket(ctx, id)
		return err
	})
	return t, err
}

// ListTickets returns tickets matching f, newest first.
func (s *Store) ListTickets(ctx context.Context, f storage.TicketFilter) ([]models.Ticket, error) {
	var out []models.Ticket
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListTickets(ctx, f)
		return err
	})
	return out, err
}

// UpdateTicket applies patch to the ticket. When the status changes, the
// resolution note in the patch accompanies the transition. When it does
// not, a note may only be edited on a ticket that is already resolved.
func (s *Store) UpdateTicket(ctx context.Context, id string, patch models.TicketPatch) (models.Ticket, error) {
	var next models.Ticket
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		cur, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		next = cur
		if patch.Title != nil {
			next.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Type != nil {
			next.Type = *patch.Type
		}
		if patch.Priority != nil {
			next.Priority = *patch.Priority
		}
		if err := validateTicket(next); err != nil {
			return err
		}

		if patch.ProjectID != nil {
			next.ProjectID = *patch.ProjectID
		}
		if patch.TaskID != nil {
			next.TaskID = *patch.TaskID
		}
		if next.ProjectID != cur.ProjectID || next.TaskID != cur.TaskID {
			if err := s.resolveTicketScope(ctx, tx, next.ProjectID, next.TaskID); err != nil {
				return err
			}
		}

		switch {
		case patch.Status != nil && *patch.Status != cur.Status:
			note := ""
			if patch.ResolutionNote != nil {
				note = *patch.ResolutionNote
			}
			out, err := workflow.TransitionTicket(cur.Status, *patch.Status, note, s.clock.Now())
			if err != nil {
				return err
			}
			next.Status, next.ResolvedAt, next.ResolutionNote = out.Status, out.ResolvedAt, out.ResolutionNote
		case patch.ResolutionNote != nil:
			if cur.Status == models.TicketPending {
				return models.Errorf(models.ErrInvalidField, models.EntityTicket, "resolution_note", "pending tickets have no resolution")
			}
			note := strings.TrimSpace(*patch.ResolutionNote)
			if note == "" {
				return models.Errorf(models.ErrMissingResolution, models.EntityTicket, "resolution_note", "%s requires a resolution note", cur.Status)
			}
			next.ResolutionNote = note
		}

		return tx.PutTicket(ctx, next)
	})
	if err != nil {
		return models.Ticket{}, err
	}
	s.logCommitted("ticket updated", models.EntityTicket, id)
	return next, nil
}

// DeleteTicket removes the ticket. Without opts.Cascade it fails with
// models.ErrHasDependents while comments are attached to it.
func (s *Store) DeleteTicket(ctx context.Context, id string, opts models.DeleteOptions) error {
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetTicket(ctx, id); err != nil {
			return err
		}
		return newRemover(ctx, tx, opts.Cascade).ticket(id)
	})
	if err != nil {
		return err
	}
	s.logCommitted("ticket deleted", models.EntityTicket, id)
	return nil
}

func validateTicket(t models.Ticket) error {
	if t.Title == "" {
		return models.Errorf(models.ErrInvalidField, models.EntityTicket, "title", "title is required")
	}
	if _, ok := models.ValidTicketTypes[t.Type]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityTicket, "type", "unknown type %q", t.Type)
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityTicket, "priority", "unknown priority %q", t.Priority)
	}
	if _, ok := models.ValidPeople[t.CreatedBy]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityTicket, "created_by", "unknown person %q", t.CreatedBy)
	}
	return nil
}
