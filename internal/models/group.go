package models

import (
	"errors"
	"time"
)

// Group 帖子分组, 通过 slug 访问
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;size:15;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (g Group) String() string {
	return truncate(g.Title, 15)
}

const (
	GroupTitleMaxLen = 200
	GroupSlugMaxLen  = 15
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrSlugExists    = errors.New("group slug already exists")
)
