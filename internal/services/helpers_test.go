package services

import (
	"testing"
	"time"
	"yatube/internal/testutil"
	"yatube/internal/utils"

	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	cache   *utils.LocalCache
	media   *LocalMediaStore
	follows *FollowService
	feed    *FeedService
	posts   *PostService
	groups  *GroupService
	users   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.NewDB(t)
	cache := utils.NewLocalCache(100, time.Minute)
	media := NewLocalMediaStore(t.TempDir(), "/media")
	follows := NewFollowService(conn)
	return &fixture{
		db:      conn,
		cache:   cache,
		media:   media,
		follows: follows,
		feed:    NewFeedService(conn, follows, 10),
		posts:   NewPostService(conn, media, cache),
		groups:  NewGroupService(conn, cache),
		users:   NewUserService(conn, media, cache),
	}
}
