package cache

import (
	"fmt"
	"time"
)

const (
	UserProfileKeyPrefix = "user:%d:profile"
	PostKeyPrefix        = "post:%d"
)

const (
	DefaultProfileTTL = 5 * time.Minute
	PostTTL           = 2 * time.Minute
)

func UserProfileKey(userID uint) string {
	return fmt.Sprintf(UserProfileKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}
