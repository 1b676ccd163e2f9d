package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
)

const (
	groupTitleMax       = 200
	groupSlugMax        = 30
	groupDescriptionMax = 300
)

// Groups is the administrative side of groups; readers reach them through Feed.
type Groups struct {
	db *gorm.DB
}

func NewGroups(db *gorm.DB) *Groups {
	return &Groups{db: db}
}

// GroupInput describes a new group. An empty Slug is derived from Title.
type GroupInput struct {
	Title       string
	Slug        string
	Description string
}

func (s *Groups) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = slug.Make(in.Title)
		if len(in.Slug) > groupSlugMax {
			in.Slug = strings.Trim(in.Slug[:groupSlugMax], "-")
		}
	}

	verr := &ValidationError{}
	switch {
	case in.Title == "":
		verr.Add("title", "This field is required.")
	case len([]rune(in.Title)) > groupTitleMax:
		verr.Add("title", fmt.Sprintf("Ensure this value has at most %d characters.", groupTitleMax))
	}
	switch {
	case in.Slug == "":
		verr.Add("slug", "This field is required.")
	case len(in.Slug) > groupSlugMax:
		verr.Add("slug", fmt.Sprintf("Ensure this value has at most %d characters.", groupSlugMax))
	case !slug.IsSlug(in.Slug):
		verr.Add("slug", "Enter a valid slug of letters, numbers and hyphens.")
	}
	if len([]rune(in.Description)) > groupDescriptionMax {
		verr.Add("description", fmt.Sprintf("Ensure this value has at most %d characters.", groupDescriptionMax))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Group{}).Where("title = ?", in.Title).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check group title: %w", err)
	}
	if count > 0 {
		verr.Add("title", "Group with this title already exists.")
	}
	if err := db.Model(&models.Group{}).Where("slug = ?", in.Slug).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check group slug: %w", err)
	}
	if count > 0 {
		verr.Add("slug", "Group with this slug already exists.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	g := &models.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := db.Create(g).Error; err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// List returns all groups ordered by title, for the post form and the CLI.
func (s *Groups) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *Groups) BySlug(ctx context.Context, groupSlug string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", groupSlug).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load group %q: %w", groupSlug, err)
	}
	return &g, nil
}

// Delete removes the group. Its posts stay, detached from any group.
func (s *Groups) Delete(ctx context.Context, groupSlug string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.Where("slug = ?", groupSlug).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Delete(&g).Error
	})
}
