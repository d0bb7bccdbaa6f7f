package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	PostID    *uint     `gorm:"index" json:"post_id"` // Nullable: the comment outlives its post
	Post      *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"post"`
}

func (c Comment) String() string {
	return truncate(c.Text, 15)
}
