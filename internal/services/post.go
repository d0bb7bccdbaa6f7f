package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"yatube/internal/models"
	"yatube/internal/utils"

	"gorm.io/gorm"
)

// PostForm is a submitted post. A nil Image keeps the current image on edit.
type PostForm struct {
	Text    string
	GroupID *uint
	Image   *Upload
}

// PostService 帖子和评论的写操作, 只有作者可以修改自己的帖子
type PostService struct {
	db    *gorm.DB
	media MediaStore
	cache utils.PageCache
}

func NewPostService(db *gorm.DB, media MediaStore, cache utils.PageCache) *PostService {
	return &PostService{db: db, media: media, cache: cache}
}

func (s *PostService) Create(ctx context.Context, authorID uint, form PostForm) (*models.Post, error) {
	if err := s.validate(ctx, &form); err != nil {
		return nil, err
	}

	post := models.Post{
		Text:    form.Text,
		UserID:  authorID,
		GroupID: form.GroupID,
	}
	if form.Image != nil {
		key, err := s.storeImage(ctx, form.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		s.dropImage(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.cache.Invalidate(ctx, IndexView)
	log.Printf("[PostService] Created post %d by user %d", post.ID, authorID)
	return &post, nil
}

// Editable loads a post the editor is allowed to change.
func (s *PostService) Editable(ctx context.Context, editorID, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Group").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.UserID != editorID {
		return &post, models.ErrNotPostOwner
	}
	return &post, nil
}

// Update rewrites text, group and optionally the image. The creation time is kept.
func (s *PostService) Update(ctx context.Context, editorID, postID uint, form PostForm) (*models.Post, error) {
	post, err := s.Editable(ctx, editorID, postID)
	if err != nil {
		return post, err
	}
	if err := s.validate(ctx, &form); err != nil {
		return post, err
	}

	oldImage := post.Image
	if form.Image != nil {
		key, err := s.storeImage(ctx, form.Image)
		if err != nil {
			return post, err
		}
		post.Image = key
	}

	err = s.db.WithContext(ctx).Model(post).Select("Text", "GroupID", "Image").Updates(models.Post{
		Text:    form.Text,
		GroupID: form.GroupID,
		Image:   post.Image,
	}).Error
	if err != nil {
		if post.Image != oldImage {
			s.dropImage(ctx, post.Image)
		}
		return post, fmt.Errorf("update post %d: %w", postID, err)
	}
	if post.Image != oldImage {
		s.dropImage(ctx, oldImage)
	}

	post.Text = form.Text
	post.GroupID = form.GroupID
	post.Group = nil

	s.cache.Invalidate(ctx, IndexView)
	return post, nil
}

// Delete removes a post. Its comments stay, detached from the post.
func (s *PostService) Delete(ctx context.Context, editorID, postID uint) error {
	post, err := s.Editable(ctx, editorID, postID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ?", post.ID).
			Update("post_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}

	s.dropImage(ctx, post.Image)
	s.cache.Invalidate(ctx, IndexView)
	log.Printf("[PostService] Deleted post %d", post.ID)
	return nil
}

func (s *PostService) AddComment(ctx context.Context, authorID, postID uint, text string) (*models.Comment, error) {
	if err := s.db.WithContext(ctx).Select("id").First(&models.Post{}, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPostNotFound
		}
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		verr := models.NewValidationError()
		verr.Add("text", "Обязательное поле.")
		return nil, verr
	}

	comment := models.Comment{Text: text, UserID: authorID, PostID: &postID}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

func (s *PostService) validate(ctx context.Context, form *PostForm) error {
	form.Text = strings.TrimSpace(form.Text)

	verr := models.NewValidationError()
	if form.Text == "" {
		verr.Add("text", "Обязательное поле.")
	}
	if form.GroupID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", *form.GroupID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			verr.Add("group", "Выберите корректный вариант.")
		}
	}
	if form.Image != nil {
		if _, err := CheckImage(form.Image.Data); err != nil {
			verr.Add("image", imageMessage(err))
		}
	}
	return verr.OrNil()
}

func (s *PostService) storeImage(ctx context.Context, upload *Upload) (string, error) {
	data, ext, contentType, err := ProcessImage(upload.Data)
	if err != nil {
		if errors.Is(err, ErrInvalidImageType) || errors.Is(err, ErrImageDimensions) {
			verr := models.NewValidationError()
			verr.Add("image", imageMessage(err))
			return "", verr
		}
		return "", err
	}

	key := NewImageKey(ext)
	if err := s.media.Save(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func imageMessage(err error) string {
	if errors.Is(err, ErrImageDimensions) {
		return fmt.Sprintf("Изображение больше %d мегапикселей.", imageMaxPixels/1_000_000)
	}
	return "Загрузите правильное изображение."
}

func (s *PostService) dropImage(ctx context.Context, key string) {
	dropImage(ctx, s.media, key)
}

// dropImage removes a stored image. Failures are only logged, the database
// row is already gone.
func dropImage(ctx context.Context, media MediaStore, key string) {
	if key == "" {
		return
	}
	if err := media.Delete(ctx, key); err != nil {
		log.Printf("[Media] Failed to delete image %s: %v", key, err)
	}
}
