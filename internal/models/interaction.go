package models

import "time"

// Like records that a user liked a post. At most one per (user, post).
type Like struct {
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	PostID    uint      `gorm:"primaryKey;index" json:"postId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// Repost records that a user re-shared a post. At most one per (user, post).
type Repost struct {
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	PostID    uint      `gorm:"primaryKey;index" json:"postId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// Interaction is the table-agnostic projection of a Like or Repost row.
type Interaction struct {
	UserID    uint
	PostID    uint
	CreatedAt time.Time
}

// Comment is a short text reply on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Text      string    `gorm:"type:varchar(160);not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
