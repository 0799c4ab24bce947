package entity

import (
	"context"
	"strings"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

// CreateComment attaches a comment to an existing project, task or ticket.
// A reply must be on the same target as its parent.
func (s *Store) CreateComment(ctx context.Context, d models.CommentDraft) (models.Comment, error) {
	c := models.Comment{
		Target:    d.Target,
		Author:    d.Author,
		Content:   strings.TrimSpace(d.Content),
		ParentID:  d.ParentID,
		CreatedAt: s.clock.Now(),
	}
	if err := validateComment(c); err != nil {
		return models.Comment{}, err
	}
	if err := checkTarget(c.Target); err != nil {
		return models.Comment{}, err
	}

	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if err := resolveTarget(ctx, tx, c.Target); err != nil {
			return err
		}
		id, err := s.assignID(models.EntityComment, d.ID, func(id string) error {
			_, err := tx.GetComment(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		c.ID = id
		if c.ParentID != "" {
			if err := checkCommentParent(ctx, tx, c.ID, c.Target, c.ParentID); err != nil {
				return err
			}
		}
		return tx.PutComment(ctx, c)
	})
	if err != nil {
		return models.Comment{}, err
	}
	s.logCommitted("comment created", models.EntityComment, c.ID)
	return c, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		c, err = tx.GetComment(ctx, id)
		return err
	})
	return c, err
}

// UpdateComment edits the content of a comment. The target, author and
// parent of a comment never change. EditedAt is stamped only when the
// content actually differs.
func (s *Store) UpdateComment(ctx context.Context, id string, patch models.CommentPatch) (models.Comment, error) {
	var next models.Comment
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		cur, err := tx.GetComment(ctx, id)
		if err != nil {
			return err
		}
		next = cur
		if patch.Content == nil {
			return nil
		}
		content := strings.TrimSpace(*patch.Content)
		if content == cur.Content {
			return nil
		}
		next.Content = content
		if err := validateComment(next); err != nil {
			return err
		}
		edited := s.clock.Now()
		next.EditedAt = &edited
		return tx.PutComment(ctx, next)
	})
	if err != nil {
		return models.Comment{}, err
	}
	s.logCommitted("comment updated", models.EntityComment, id)
	return next, nil
}

// DeleteComment removes the comment. Without opts.Cascade it fails with
// models.ErrHasDependents while replies point at it.
func (s *Store) DeleteComment(ctx context.Context, id string, opts models.DeleteOptions) error {
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetComment(ctx, id); err != nil {
			return err
		}
		return newRemover(ctx, tx, opts.Cascade).comment(id)
	})
	if err != nil {
		return err
	}
	s.logCommitted("comment deleted", models.EntityComment, id)
	return nil
}

func validateComment(c models.Comment) error {
	if c.Content == "" {
		return models.Errorf(models.ErrInvalidField, models.EntityComment, "content", "content is required")
	}
	if _, ok := models.ValidPeople[c.Author]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityComment, "author", "unknown person %q", c.Author)
	}
	return nil
}
