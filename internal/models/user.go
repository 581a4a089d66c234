// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Gender is the profile gender enum.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User is an account. Password and RefreshTokenHash never leave the service layer.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"`
	Password         string    `gorm:"not null" json:"-"`
	RefreshTokenHash *string   `json:"-"`
	Profile          *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	// Computed by UserRepository.GetProfile.
	FollowersCount int64 `gorm:"->;-:migration" json:"followersCount"`
	FollowingCount int64 `gorm:"->;-:migration" json:"followingCount"`
	PostsCount     int64 `gorm:"->;-:migration" json:"postsCount"`
}

// Profile holds the display attributes of a user. One per user.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Gender    *Gender   `gorm:"type:varchar(16)" json:"gender"`
	Avatar    string    `json:"avatar"`
	City      string    `json:"city"`
	Bio       string    `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName joins first and last name, falling back to the username.
func (u *User) DisplayName() string {
	if u.Profile != nil {
		if name := strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName); name != "" {
			return name
		}
	}
	return u.Username
}

// AvatarURL returns the profile avatar or an empty string.
func (u *User) AvatarURL() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Avatar
}

// Follow is a directed edge: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey" json:"followerId"`
	FolloweeID uint      `gorm:"primaryKey;index" json:"followeeId"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followee   User      `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
