package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// Comments handles comment writes. Only the comment's own author may edit or delete it.
type Comments struct {
	db *gorm.DB
}

func NewComments(db *gorm.DB) *Comments {
	return &Comments{db: db}
}

// Get loads a comment that belongs to post.
func (s *Comments) Get(ctx context.Context, post *models.Post, commentID uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND post_id = ?", commentID, post.ID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load comment %d: %w", commentID, err)
	}
	return &c, nil
}

// Create attaches a comment by identity to post.
func (s *Comments) Create(ctx context.Context, identity *models.User, post *models.Post, text string) (*models.Comment, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	c := &models.Comment{PostID: post.ID, AuthorID: identity.ID, Text: text}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	utils.CommentsCreated.Inc()
	return c, nil
}

// Update rewrites the text only.
func (s *Comments) Update(ctx context.Context, identity *models.User, c *models.Comment, text string) error {
	if !CanMutate(identity, c.AuthorID) {
		return ErrForbidden
	}
	text, err := validateCommentText(text)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", c.ID).Update("text", text).Error; err != nil {
		return fmt.Errorf("update comment %d: %w", c.ID, err)
	}
	c.Text = text
	return nil
}

func (s *Comments) Delete(ctx context.Context, identity *models.User, c *models.Comment) error {
	if !CanMutate(identity, c.AuthorID) {
		return ErrForbidden
	}
	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, c.ID).Error; err != nil {
		return fmt.Errorf("delete comment %d: %w", c.ID, err)
	}
	return nil
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	verr := &ValidationError{}
	switch {
	case text == "":
		verr.Add("text", "This field is required.")
	case len([]rune(text)) > models.CommentMaxLength:
		verr.Add("text", fmt.Sprintf("Ensure this value has at most %d characters.", models.CommentMaxLength))
	}
	return text, verr.OrNil()
}
