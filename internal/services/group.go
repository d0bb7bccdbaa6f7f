package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"
	"yatube/internal/models"
	"yatube/internal/utils"

	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidSlug reports whether s is a non-empty slug of at most 15 safe characters.
func ValidSlug(s string) bool {
	return len(s) <= models.GroupSlugMaxLen && slugPattern.MatchString(s)
}

type GroupService struct {
	db    *gorm.DB
	cache utils.PageCache
}

func NewGroupService(db *gorm.DB, cache utils.PageCache) *GroupService {
	return &GroupService{db: db, cache: cache}
}

func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*models.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)

	verr := models.NewValidationError()
	if title == "" {
		verr.Add("title", "Обязательное поле.")
	} else if utf8.RuneCountInString(title) > models.GroupTitleMaxLen {
		verr.Add("title", fmt.Sprintf("Не более %d символов.", models.GroupTitleMaxLen))
	}
	if !ValidSlug(slug) {
		verr.Add("slug", "Только латинские буквы, цифры, дефис и подчёркивание, не более 15 символов.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := findGroupBySlug(ctx, s.db, slug); err == nil {
		return nil, models.ErrSlugExists
	} else if !errors.Is(err, models.ErrGroupNotFound) {
		return nil, err
	}

	group := models.Group{Title: title, Slug: slug, Description: description}
	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &group, nil
}

func (s *GroupService) Get(ctx context.Context, slug string) (*models.Group, error) {
	return findGroupBySlug(ctx, s.db, slug)
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.WithContext(ctx).Order("title ASC").Find(&groups).Error
	return groups, err
}

// Delete removes the group. Its posts stay, with no group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	group, err := findGroupBySlug(ctx, s.db, slug)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("group_id = ?", group.ID).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if err != nil {
		return fmt.Errorf("delete group %q: %w", slug, err)
	}

	s.cache.Invalidate(ctx, IndexView)
	log.Printf("[GroupService] Deleted group %s", slug)
	return nil
}

func findGroupBySlug(ctx context.Context, conn *gorm.DB, slug string) (*models.Group, error) {
	var group models.Group
	err := conn.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find group %q: %w", slug, err)
	}
	return &group, nil
}
