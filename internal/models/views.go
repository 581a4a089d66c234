package models

import "time"

// View models are the only shapes that reach API clients. Each constructor
// copies an explicit allow-list of fields.

// UserSummary is the short form of a user embedded in other views.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

// NewUserSummary maps a user to its summary.
func NewUserSummary(u *User) UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName(),
		Image:    u.AvatarURL(),
	}
}

// UserSummaries maps a slice of users, never returning nil.
func UserSummaries(users []User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, NewUserSummary(&users[i]))
	}
	return out
}

// AuthUser is the user payload returned on signup and signin.
type AuthUser struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

func NewAuthUser(u *User) AuthUser {
	return AuthUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.DisplayName(),
		Image:    u.AvatarURL(),
	}
}

// ProfileView exposes the display attributes of a profile.
type ProfileView struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Gender    *Gender `json:"gender"`
	Avatar    string  `json:"avatar"`
	City      string  `json:"city"`
	Bio       string  `json:"bio"`
}

// UserCounts holds the graph and authorship counters of a user.
type UserCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Posts     int64 `json:"posts"`
}

// UserProfileView is the full profile page payload.
type UserProfileView struct {
	ID         uint        `json:"id"`
	Username   string      `json:"username"`
	CreatedAt  time.Time   `json:"createdAt"`
	Profile    ProfileView `json:"profile"`
	Counts     UserCounts  `json:"counts"`
	IsFollowed bool        `json:"isFollowed"`
}

// NewUserProfileView maps a user loaded with profile and counts.
func NewUserProfileView(u *User) UserProfileView {
	v := UserProfileView{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		Counts: UserCounts{
			Followers: u.FollowersCount,
			Following: u.FollowingCount,
			Posts:     u.PostsCount,
		},
	}
	if p := u.Profile; p != nil {
		v.Profile = ProfileView{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Gender:    p.Gender,
			Avatar:    p.Avatar,
			City:      p.City,
			Bio:       p.Bio,
		}
	}
	return v
}

type AttachmentView struct {
	URL  string         `json:"url"`
	Type AttachmentType `json:"type"`
}

type PostCounts struct {
	Likes    int64 `json:"likes"`
	Reposts  int64 `json:"reposts"`
	Comments int64 `json:"comments"`
}

// PostControls is scoped to the viewing user, never to the post owner.
type PostControls struct {
	IsLiked    bool `json:"isLiked"`
	IsReposted bool `json:"isReposted"`
}

// PostView is a post as shown in a feed or detail page.
type PostView struct {
	ID          uint             `json:"id"`
	Content     string           `json:"content"`
	CreatedAt   time.Time        `json:"createdAt"`
	Author      UserSummary      `json:"author"`
	Attachments []AttachmentView `json:"attachments"`
	Counts      PostCounts       `json:"counts"`
	Controls    PostControls     `json:"controls"`
	RepostedAt  *time.Time       `json:"repostedAt,omitempty"`
	RepostedBy  *UserSummary     `json:"repostedBy,omitempty"`
}

// NewPostView maps a post loaded with author, attachments and counts.
// Controls are left false; callers annotate them per viewer.
func NewPostView(p *Post) PostView {
	attachments := make([]AttachmentView, 0, len(p.Attachments))
	for _, a := range p.Attachments {
		attachments = append(attachments, AttachmentView{URL: a.URL, Type: a.Type})
	}
	return PostView{
		ID:          p.ID,
		Content:     p.Content,
		CreatedAt:   p.CreatedAt,
		Author:      NewUserSummary(&p.Author),
		Attachments: attachments,
		Counts: PostCounts{
			Likes:    p.LikesCount,
			Reposts:  p.RepostsCount,
			Comments: p.CommentsCount,
		},
	}
}

// CommentView is a comment with its author.
type CommentView struct {
	ID        uint        `json:"id"`
	PostID    uint        `json:"postId"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
	Author    UserSummary `json:"author"`
}

func NewCommentView(c *Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Author:    NewUserSummary(&c.User),
	}
}

// CommentViews maps comments in order, never returning nil.
func CommentViews(comments []Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentView(&comments[i]))
	}
	return out
}
