package entity

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

var palette = []string{
	"#2563eb", // blue-600
	"#7c3aed", // violet-600
	"#dc2626", // red-600
	"#059669", // green-600
	"#ea580c", // orange-600
	"#d97706", // amber-600
	"#0ea5e9", // sky-500
}

func randomPaletteColor() string {
	return palette[rand.IntN(len(palette))]
}

// CreateProject validates d, fills defaults and stores the new project.
func (s *Store) CreateProject(ctx context.Context, d models.ProjectDraft) (models.Project, error) {
	now := s.clock.Now()
	p := models.Project{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Status:      d.Status,
		Priority:    d.Priority,
		Progress:    d.Progress,
		DueDate:     copyTime(d.DueDate),
		Owner:       d.Owner,
		Tags:        normalizeTags(d.Tags),
		Color:       strings.TrimSpace(d.Color),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if p.Owner == "" {
		p.Owner = models.OwnerBoth
	}
	if p.Color == "" {
		p.Color = randomPaletteColor()
	}
	if err := validateProject(p); err != nil {
		return models.Project{}, err
	}

	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		id, err := s.assignID(models.EntityProject, d.ID, func(id string) error {
			_, err := tx.GetProject(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		p.ID = id
		return tx.PutProject(ctx, p)
	})
	if err != nil {
		return models.Project{}, err
	}
	s.logCommitted("project created", models.EntityProject, p.ID)
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	var p models.Project
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		p, err = tx.GetProject(ctx, id)
		return err
	})
	return p, err
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListProjects(ctx)
		return err
	})
	return out, err
}

// UpdateProject applies patch to the project. Project status has no
// workflow; any valid status may follow any other.
func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	var next models.Project
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		cur, err := tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		next = cur
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Status != nil {
			next.Status = *patch.Status
		}
		if patch.Priority != nil {
			next.Priority = *patch.Priority
		}
		if patch.Progress != nil {
			next.Progress = *patch.Progress
		}
		if patch.DueDate != nil {
			next.DueDate = clearableTime(patch.DueDate)
		}
		if patch.Owner != nil {
			next.Owner = *patch.Owner
		}
		if patch.Tags != nil {
			next.Tags = normalizeTags(*patch.Tags)
		}
		if patch.Color != nil {
			next.Color = strings.TrimSpace(*patch.Color)
			if next.Color == "" {
				next.Color = randomPaletteColor()
			}
		}
		if err := validateProject(next); err != nil {
			return err
		}
		next.UpdatedAt = s.clock.Now()
		return tx.PutProject(ctx, next)
	})
	if err != nil {
		return models.Project{}, err
	}
	s.logCommitted("project updated", models.EntityProject, id)
	return next, nil
}

// DeleteProject removes the project. Without opts.Cascade it fails with
// models.ErrHasDependents while any task, ticket or comment refers to it.
func (s *Store) DeleteProject(ctx context.Context, id string, opts models.DeleteOptions) error {
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, id); err != nil {
			return err
		}
		return newRemover(ctx, tx, opts.Cascade).project(id)
	})
	if err != nil {
		return err
	}
	s.logCommitted("project deleted", models.EntityProject, id)
	return nil
}

func validateProject(p models.Project) error {
	if p.Name == "" {
		return models.Errorf(models.ErrInvalidField, models.EntityProject, "name", "name is required")
	}
	if _, ok := models.ValidProjectStatuses[p.Status]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityProject, "status", "unknown status %q", p.Status)
	}
	if _, ok := models.ValidPriorities[p.Priority]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityProject, "priority", "unknown priority %q", p.Priority)
	}
	if _, ok := models.ValidOwners[p.Owner]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityProject, "owner", "unknown owner %q", p.Owner)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return models.Errorf(models.ErrInvalidField, models.EntityProject, "progress", "progress %d is outside 0..100", p.Progress)
	}
	return nil
}

// normalizeTags trims, drops blanks and duplicates, and keeps first-seen
// order.
func normalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
