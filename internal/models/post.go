package models

import (
	"time"
)

// AttachmentType is the media kind of an attachment.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "IMAGE"
	AttachmentVideo AttachmentType = "VIDEO"
	AttachmentAudio AttachmentType = "AUDIO"
	AttachmentFile  AttachmentType = "FILE"
)

// Post represents a post authored by a user.
type Post struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	AuthorID    uint         `gorm:"not null;index" json:"authorId"`
	Author      User         `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Content     string       `gorm:"type:text;not null" json:"content"`
	Attachments []Attachment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"attachments"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// Computed at query time, never persisted.
	LikesCount    int64 `gorm:"->;-:migration" json:"likesCount"`
	RepostsCount  int64 `gorm:"->;-:migration" json:"repostsCount"`
	CommentsCount int64 `gorm:"->;-:migration" json:"commentsCount"`
}

// Attachment is a media URL attached to a post.
type Attachment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"postId"`
	URL       string         `gorm:"not null" json:"url"`
	Type      AttachmentType `gorm:"type:varchar(16);not null" json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
}
