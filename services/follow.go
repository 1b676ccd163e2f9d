package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// FollowGraph maintains directed follower -> author edges. Each pair exists at most once.
type FollowGraph struct {
	db *gorm.DB
}

func NewFollowGraph(db *gorm.DB) *FollowGraph {
	return &FollowGraph{db: db}
}

// Follow creates the edge if it is missing. Following yourself is ignored.
func (g *FollowGraph) Follow(ctx context.Context, follower *models.User, authorUsername string) error {
	if follower == nil {
		return ErrUnauthenticated
	}
	db := g.db.WithContext(ctx)
	author, err := userByUsername(db, authorUsername)
	if err != nil {
		return err
	}
	if author.ID == follower.ID {
		return nil
	}
	// a concurrent insert of the same pair lands on the unique index and is skipped
	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID})
	if res.Error != nil {
		return fmt.Errorf("follow %s: %w", authorUsername, res.Error)
	}
	if res.RowsAffected > 0 {
		utils.FollowMutations.WithLabelValues("follow").Inc()
	}
	return nil
}

// Unfollow deletes the edge; a missing edge is a no-op.
func (g *FollowGraph) Unfollow(ctx context.Context, follower *models.User, authorUsername string) error {
	if follower == nil {
		return ErrUnauthenticated
	}
	db := g.db.WithContext(ctx)
	author, err := userByUsername(db, authorUsername)
	if err != nil {
		return err
	}
	res := db.Where("user_id = ? AND author_id = ?", follower.ID, author.ID).Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("unfollow %s: %w", authorUsername, res.Error)
	}
	if res.RowsAffected > 0 {
		utils.FollowMutations.WithLabelValues("unfollow").Inc()
	}
	return nil
}

// IsFollowing never fails: anonymous viewers, unknown authors and lookup errors read as false.
func (g *FollowGraph) IsFollowing(ctx context.Context, follower *models.User, authorUsername string) bool {
	if follower == nil {
		return false
	}
	var count int64
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Joins("JOIN users ON users.id = follows.author_id").
		Where("follows.user_id = ? AND users.username = ?", follower.ID, authorUsername).
		Count(&count).Error
	if err != nil {
		utils.Sugar.Warnf("is-following lookup failed follower=%d author=%s err=%v", follower.ID, authorUsername, err)
		return false
	}
	return count > 0
}

func (g *FollowGraph) isFollowingID(ctx context.Context, follower *models.User, authorID uint) bool {
	if follower == nil {
		return false
	}
	var count int64
	if err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", follower.ID, authorID).
		Count(&count).Error; err != nil {
		utils.Sugar.Warnf("is-following lookup failed follower=%d author=%d err=%v", follower.ID, authorID, err)
		return false
	}
	return count > 0
}

// FollowedAuthors lists the authors follower follows, by username.
func (g *FollowGraph) FollowedAuthors(ctx context.Context, follower *models.User) ([]models.User, error) {
	if follower == nil {
		return nil, ErrUnauthenticated
	}
	var authors []models.User
	err := g.db.WithContext(ctx).
		Where("id IN (?)", g.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", follower.ID)).
		Order("username").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("list followed authors: %w", err)
	}
	return authors, nil
}
