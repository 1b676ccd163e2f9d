package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
)

// IndexView is the global listing.
type IndexView struct {
	Page Page[models.Post]
}

// GroupView is one group's listing.
type GroupView struct {
	Group models.Group
	Page  Page[models.Post]
}

// ProfileView is one author's listing.
type ProfileView struct {
	Author    models.User
	PostCount int64
	Following bool
	Page      Page[models.Post]
}

// FollowView is the viewer's following feed.
type FollowView struct {
	Page Page[models.Post]
}

// PostView is a single post with its comments, newest first.
type PostView struct {
	Post      models.Post
	Comments  []models.Comment
	PostCount int64
	Following bool
}

// Feed composes the read-side listings. All listings are newest first.
type Feed struct {
	db       *gorm.DB
	graph    *FollowGraph
	pageSize int
}

func NewFeed(db *gorm.DB, graph *FollowGraph, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{db: db, graph: graph, pageSize: pageSize}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func withPostRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Group")
}

// paginatePosts counts the filtered posts, clamps the page and loads its rows.
func (f *Feed) paginatePosts(ctx context.Context, number int, filter func(*gorm.DB) *gorm.DB) (Page[models.Post], error) {
	var total int64
	if err := f.db.WithContext(ctx).Model(&models.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return Page[models.Post]{}, fmt.Errorf("count posts: %w", err)
	}
	page := NewPage[models.Post](total, f.pageSize, number)
	page.Items = []models.Post{}
	if total == 0 {
		return page, nil
	}
	err := f.db.WithContext(ctx).
		Scopes(filter, withPostRelations, newestFirst).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return page, nil
}

func allPosts(db *gorm.DB) *gorm.DB { return db }

func (f *Feed) Index(ctx context.Context, number int) (IndexView, error) {
	page, err := f.paginatePosts(ctx, number, allPosts)
	if err != nil {
		return IndexView{}, err
	}
	return IndexView{Page: page}, nil
}

// Group returns ErrNotFound for unknown slugs.
func (f *Feed) Group(ctx context.Context, slug string, number int) (GroupView, error) {
	var group models.Group
	if err := f.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GroupView{}, ErrNotFound
		}
		return GroupView{}, fmt.Errorf("load group %q: %w", slug, err)
	}
	page, err := f.paginatePosts(ctx, number, func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", group.ID)
	})
	if err != nil {
		return GroupView{}, err
	}
	return GroupView{Group: group, Page: page}, nil
}

// Profile returns ErrNotFound for unknown usernames.
func (f *Feed) Profile(ctx context.Context, viewer *models.User, username string, number int) (ProfileView, error) {
	author, err := userByUsername(f.db.WithContext(ctx), username)
	if err != nil {
		return ProfileView{}, err
	}
	page, err := f.paginatePosts(ctx, number, byAuthor(author.ID))
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{
		Author:    *author,
		PostCount: page.Total,
		Following: f.graph.isFollowingID(ctx, viewer, author.ID),
		Page:      page,
	}, nil
}

// Following lists posts by authors the viewer follows. Anonymous viewers get ErrUnauthenticated.
func (f *Feed) Following(ctx context.Context, viewer *models.User, number int) (FollowView, error) {
	if viewer == nil {
		return FollowView{}, ErrUnauthenticated
	}
	followed := f.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", viewer.ID)
	page, err := f.paginatePosts(ctx, number, func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id IN (?)", followed)
	})
	if err != nil {
		return FollowView{}, err
	}
	return FollowView{Page: page}, nil
}

// Post loads a post addressed by its author's username. A post that exists but
// belongs to someone else is reported as ErrNotFound.
func (f *Feed) Post(ctx context.Context, viewer *models.User, username string, postID uint) (PostView, error) {
	db := f.db.WithContext(ctx)
	post, err := postByAuthor(db, username, postID)
	if err != nil {
		return PostView{}, err
	}
	var comments []models.Comment
	if err := db.Where("post_id = ?", post.ID).
		Preload("Author").
		Scopes(newestFirst).
		Find(&comments).Error; err != nil {
		return PostView{}, fmt.Errorf("list comments: %w", err)
	}
	var count int64
	if err := db.Model(&models.Post{}).Scopes(byAuthor(post.AuthorID)).Count(&count).Error; err != nil {
		return PostView{}, fmt.Errorf("count posts: %w", err)
	}
	return PostView{
		Post:      *post,
		Comments:  comments,
		PostCount: count,
		Following: f.graph.isFollowingID(ctx, viewer, post.AuthorID),
	}, nil
}

// Latest returns a page of posts for the JSON API.
func (f *Feed) Latest(ctx context.Context, number int) (Page[models.Post], error) {
	return f.paginatePosts(ctx, number, allPosts)
}

func byAuthor(authorID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID)
	}
}

func postByAuthor(db *gorm.DB, username string, postID uint) (*models.Post, error) {
	var post models.Post
	err := db.Scopes(withPostRelations).
		Where("posts.id = ? AND posts.author_id = (?)", postID,
			db.Model(&models.User{}).Select("id").Where("username = ?", username)).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	return &post, nil
}
