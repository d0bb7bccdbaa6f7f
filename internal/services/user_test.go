package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, SignupForm{
		Username:  "leo",
		Password:  "supersecret",
		FirstName: "Лев",
		LastName:  "Толстой",
		Email:     "leo@example.com",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", user.Password)
	assert.Equal(t, "Лев Толстой", user.FullName())

	got, err := f.users.Authenticate(ctx, "leo", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.users.Authenticate(ctx, "leo", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = f.users.Authenticate(ctx, "nobody", "supersecret")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, SignupForm{Username: "bad name", Password: "short"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "password")

	_, err = f.users.Register(ctx, SignupForm{Username: "leo", Password: "supersecret"})
	require.NoError(t, err)

	_, err = f.users.Register(ctx, SignupForm{Username: "leo", Password: "supersecret"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "auth")

	got, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "auth", got.Username)

	_, err = f.users.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	_, err = f.users.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "auth")
	reader := testutil.CreateUser(t, f.db, "reader")
	posts := testutil.CreatePosts(t, f.db, author, nil, 2)
	readerPost := testutil.CreatePosts(t, f.db, reader, nil, 1)[0]
	withImage, err := f.posts.Create(ctx, author.ID, PostForm{
		Text:  "Пост с картинкой",
		Image: &Upload{Filename: "small.gif", Data: testutil.SmallGIF},
	})
	require.NoError(t, err)
	imagePath := filepath.Join(f.media.Root, filepath.FromSlash(withImage.Image))
	_, err = os.Stat(imagePath)
	require.NoError(t, err)

	foreign, err := f.posts.AddComment(ctx, reader.ID, posts[0].ID, "Чужой комментарий")
	require.NoError(t, err)
	_, err = f.posts.AddComment(ctx, author.ID, readerPost.ID, "Комментарий автора")
	require.NoError(t, err)
	_, err = f.follows.Follow(ctx, reader.ID, "auth")
	require.NoError(t, err)
	_, err = f.follows.Follow(ctx, author.ID, "reader")
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, author.ID))

	var n int64
	f.db.Model(&models.Post{}).Where("user_id = ?", author.ID).Count(&n)
	assert.Equal(t, int64(0), n)
	f.db.Model(&models.Comment{}).Where("user_id = ?", author.ID).Count(&n)
	assert.Equal(t, int64(0), n)
	f.db.Model(&models.Follow{}).Count(&n)
	assert.Equal(t, int64(0), n)

	var stored models.Comment
	require.NoError(t, f.db.First(&stored, foreign.ID).Error)
	assert.Nil(t, stored.PostID)

	f.db.Model(&models.Post{}).Count(&n)
	assert.Equal(t, int64(1), n)

	_, err = os.Stat(imagePath)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, f.users.Delete(ctx, author.ID), models.ErrUserNotFound)
}
