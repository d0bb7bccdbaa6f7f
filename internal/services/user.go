package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"yatube/internal/models"
	"yatube/internal/utils"

	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const minPasswordLen = 8

type UserService struct {
	db    *gorm.DB
	media MediaStore
	cache utils.PageCache
}

func NewUserService(db *gorm.DB, media MediaStore, cache utils.PageCache) *UserService {
	return &UserService{db: db, media: media, cache: cache}
}

type SignupForm struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Register validates the form and creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, form SignupForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)

	verr := models.NewValidationError()
	switch {
	case form.Username == "":
		verr.Add("username", "Обязательное поле.")
	case len(form.Username) > 150 || !usernamePattern.MatchString(form.Username):
		verr.Add("username", "Только буквы, цифры и символы @/./+/-/_, не более 150 символов.")
	}
	if len(form.Password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("Пароль должен содержать не менее %d символов.", minPasswordLen))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := findUserByUsername(ctx, s.db, form.Username); err == nil {
		verr.Add("username", "Пользователь с таким именем уже существует.")
		return nil, verr
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:  form.Username,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     strings.TrimSpace(form.Email),
		Password:  hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUsernameExists, err)
	}
	return &user, nil
}

// Authenticate checks username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := findUserByUsername(ctx, s.db, strings.TrimSpace(username))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return findUserByUsername(ctx, s.db, username)
}

// Authors lists users with at least one post, by username.
func (s *UserService) Authors(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&models.Post{}).Select("user_id")).
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// Delete removes a user together with their posts, comments and follow edges.
// Comments left by others on the removed posts stay, detached from the post.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	var images []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrUserNotFound
			}
			return err
		}

		if err := tx.Model(&models.Post{}).
			Where("user_id = ? AND image <> ''", id).
			Pluck("image", &images).Error; err != nil {
			return err
		}

		authored := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
		if err := tx.Model(&models.Comment{}).
			Where("post_id IN (?)", authored).
			Update("post_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return err
	}

	// 事务提交后再删除图片
	for _, key := range images {
		dropImage(ctx, s.media, key)
	}
	s.cache.Invalidate(ctx, IndexView)
	log.Printf("[UserService] Deleted user %d", id)
	return nil
}

func findUserByUsername(ctx context.Context, conn *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := conn.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &user, nil
}
