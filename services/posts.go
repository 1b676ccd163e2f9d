package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/storage"
	"github.com/cppla/yatube/utils"
)

// PostInput is the editable part of a post.
type PostInput struct {
	Text    string
	GroupID *uint
	// Image replaces the stored image when set.
	Image *storage.Upload
	// ClearImage drops the stored image when no replacement is given.
	ClearImage bool
}

// Posts handles post writes. Every mutation of an existing post goes through CanMutate.
type Posts struct {
	db     *gorm.DB
	images storage.ImageStore
}

func NewPosts(db *gorm.DB, images storage.ImageStore) *Posts {
	return &Posts{db: db, images: images}
}

// Get loads a post by its author's username and id.
func (s *Posts) Get(ctx context.Context, username string, postID uint) (*models.Post, error) {
	return postByAuthor(s.db.WithContext(ctx), username, postID)
}

// ByID is used by the JSON API where posts are addressed by id alone.
func (s *Posts) ByID(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Scopes(withPostRelations).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	return &post, nil
}

// Create stores a new post authored by identity.
func (s *Posts) Create(ctx context.Context, identity *models.User, in PostInput) (*models.Post, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	db := s.db.WithContext(ctx)
	if err := s.validate(db, &in); err != nil {
		return nil, err
	}

	post := &models.Post{Text: in.Text, AuthorID: identity.ID, GroupID: in.GroupID}
	if in.Image != nil {
		name, err := s.images.Save(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = name
	}
	if err := db.Omit(clause.Associations).Create(post).Error; err != nil {
		s.removeImage(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}
	utils.PostsCreated.Inc()
	return post, nil
}

// Update rewrites text, group and image. Author and creation time never change.
func (s *Posts) Update(ctx context.Context, identity *models.User, post *models.Post, in PostInput) error {
	if !CanMutate(identity, post.AuthorID) {
		return ErrForbidden
	}
	db := s.db.WithContext(ctx)
	if err := s.validate(db, &in); err != nil {
		return err
	}

	oldImage := post.Image
	newImage := oldImage
	if in.Image != nil {
		name, err := s.images.Save(ctx, *in.Image)
		if err != nil {
			return err
		}
		newImage = name
	} else if in.ClearImage {
		newImage = ""
	}

	err := db.Model(&models.Post{}).Where("id = ?", post.ID).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{"text": in.Text, "group_id": in.GroupID, "image": newImage}).Error
	if err != nil {
		if newImage != oldImage {
			s.removeImage(ctx, newImage)
		}
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	if newImage != oldImage {
		s.removeImage(ctx, oldImage)
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Image = newImage
	post.Group = nil
	return nil
}

// Delete removes the post, its comments and its stored image.
func (s *Posts) Delete(ctx context.Context, identity *models.User, post *models.Post) error {
	if !CanMutate(identity, post.AuthorID) {
		return ErrForbidden
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&models.Post{ID: post.ID}).Error
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", post.ID, err)
	}
	s.removeImage(ctx, post.Image)
	return nil
}

func (s *Posts) validate(db *gorm.DB, in *PostInput) error {
	verr := &ValidationError{}
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		verr.Add("text", "This field is required.")
	}
	if in.GroupID != nil {
		var count int64
		if err := db.Model(&models.Group{}).Where("id = ?", *in.GroupID).Count(&count).Error; err != nil {
			return fmt.Errorf("check group: %w", err)
		}
		if count == 0 {
			verr.Add("group", "Select a valid choice.")
		}
	}
	if in.Image != nil {
		if err := s.images.Check(*in.Image); err != nil {
			verr.Add("image", err.Error())
		}
	}
	return verr.OrNil()
}

func (s *Posts) removeImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.images.Delete(ctx, name); err != nil {
		utils.Sugar.Warnf("remove image %s failed: %v", name, err)
	}
}
