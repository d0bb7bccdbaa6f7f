package services

import (
	"context"
	"errors"
	"fmt"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// IndexView is the fragment cache view name of the global feed.
const IndexView = "index"

// FeedService 负责首页、分组、作者和关注流的分页查询, 只读
type FeedService struct {
	db      *gorm.DB
	follows *FollowService
	perPage int
}

func NewFeedService(db *gorm.DB, follows *FollowService, perPage int) *FeedService {
	if perPage <= 0 {
		perPage = 10
	}
	return &FeedService{db: db, follows: follows, perPage: perPage}
}

func (s *FeedService) GlobalFeed(ctx context.Context, page int) (Page[models.Post], error) {
	return paginatePosts(ctx, s.db, func(tx *gorm.DB) *gorm.DB {
		return tx
	}, page, s.perPage)
}

func (s *FeedService) GroupFeed(ctx context.Context, slug string, page int) (*models.Group, Page[models.Post], error) {
	group, err := findGroupBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, Page[models.Post]{}, err
	}

	p, err := paginatePosts(ctx, s.db, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("group_id = ?", group.ID)
	}, page, s.perPage)
	if err != nil {
		return nil, Page[models.Post]{}, fmt.Errorf("group feed %q: %w", slug, err)
	}
	return group, p, nil
}

// AuthorFeed is a profile page: the author's posts plus follow state.
type AuthorFeed struct {
	Author         models.User
	Page           Page[models.Post]
	PostCount      int64
	Following      bool
	FollowerCount  int64
	FollowingCount int64
}

// AuthorFeed lists the author's posts. viewerID 0 means an anonymous viewer,
// who never follows anyone.
func (s *FeedService) AuthorFeed(ctx context.Context, username string, page int, viewerID uint) (*AuthorFeed, error) {
	author, err := findUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}

	p, err := paginatePosts(ctx, s.db, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", author.ID)
	}, page, s.perPage)
	if err != nil {
		return nil, fmt.Errorf("author feed %q: %w", username, err)
	}

	feed := &AuthorFeed{Author: *author, Page: p, PostCount: p.Total}

	if viewerID != 0 {
		if feed.Following, err = s.follows.isFollowingID(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	if feed.FollowerCount, feed.FollowingCount, err = s.follows.Counts(ctx, author.ID); err != nil {
		return nil, err
	}
	return feed, nil
}

// FollowedFeed merges the posts of every author viewerID follows into one
// newest-first stream.
func (s *FeedService) FollowedFeed(ctx context.Context, viewerID uint, page int) (Page[models.Post], error) {
	return paginatePosts(ctx, s.db, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id IN (?)", s.follows.followedAuthors(viewerID))
	}, page, s.perPage)
}

// PostDetail is a single post with its comments, oldest first.
type PostDetail struct {
	Post            models.Post
	Comments        []models.Comment
	AuthorPostCount int64
}

func (s *FeedService) PostDetail(ctx context.Context, postID uint) (*PostDetail, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("Group").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := &PostDetail{Post: post}
	if err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", post.ID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&detail.Comments).Error; err != nil {
		return nil, err
	}
	detail.Post.CommentCount = len(detail.Comments)

	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", post.UserID).
		Count(&detail.AuthorPostCount).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

// Recent returns the newest posts, for feeds and the sitemap.
func (s *FeedService) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Group").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}
