package services

import (
	"context"
	"fmt"
	"log"
	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowService 维护用户之间的关注关系
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow makes followerID follow the author. The insert relies on the unique
// (user_id, author_id) index, so repeated or concurrent calls leave one edge.
// It reports whether a new edge was created.
func (s *FollowService) Follow(ctx context.Context, followerID uint, authorUsername string) (bool, error) {
	author, err := findUserByUsername(ctx, s.db, authorUsername)
	if err != nil {
		return false, err
	}
	if author.ID == followerID {
		return false, models.ErrCannotFollowSelf
	}

	follow := models.Follow{UserID: followerID, AuthorID: author.ID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
	if result.Error != nil {
		return false, fmt.Errorf("create follow: %w", result.Error)
	}

	created := result.RowsAffected > 0
	if created {
		log.Printf("[FollowService] Follow: follower=%d author=%d", followerID, author.ID)
	}
	return created, nil
}

// Unfollow removes the edge if present. A missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, authorUsername string) error {
	author, err := findUserByUsername(ctx, s.db, authorUsername)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, author.ID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return fmt.Errorf("delete follow: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("[FollowService] Unfollow: follower=%d author=%d", followerID, author.ID)
	}
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID uint, authorUsername string) (bool, error) {
	author, err := findUserByUsername(ctx, s.db, authorUsername)
	if err != nil {
		return false, err
	}
	return s.isFollowingID(ctx, followerID, author.ID)
}

func (s *FollowService) isFollowingID(ctx context.Context, followerID, authorID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Counts returns how many users follow userID and how many authors userID follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	if err = s.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// followedAuthors is a subquery selecting every author followerID follows.
func (s *FollowService) followedAuthors(followerID uint) *gorm.DB {
	return s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", followerID)
}
