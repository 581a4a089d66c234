package service

import (
	"context"
	"strings"

	"murmur/internal/feed"
	"murmur/internal/gateway"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

const (
	errUserNotFound   = "User not found."
	errFollowSelf     = "You cannot follow yourself."
	errNotFollowing   = "You are not following this user."
	errUsernameExists = "Username already exist."
)

type UserService struct {
	users       repository.UserRepository
	follows     repository.FollowRepository
	posts       repository.PostRepository
	likes       repository.InteractionRepository
	reposts     repository.InteractionRepository
	recommender gateway.RecommendationGateway
	notifier    Notifier
	timeline    timeline
}

// EditProfileInput carries optional changes. Nil fields are left untouched.
type EditProfileInput struct {
	Username  *string `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Gender    *string `json:"gender"`
	City      *string `json:"city"`
	Bio       *string `json:"bio"`
	Avatar    *string `json:"avatar"`
}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	posts repository.PostRepository,
	likes repository.InteractionRepository,
	reposts repository.InteractionRepository,
	recommender gateway.RecommendationGateway,
	notifier Notifier,
) *UserService {
	return &UserService{
		users:       users,
		follows:     follows,
		posts:       posts,
		likes:       likes,
		reposts:     reposts,
		recommender: recommender,
		notifier:    notifier,
		timeline:    timeline{likes: likes, reposts: reposts},
	}
}

// GetProfile returns the profile page of userID as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, viewerID, userID uint) (*models.UserProfileView, error) {
	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := models.NewUserProfileView(user)
	if viewerID != 0 && viewerID != userID {
		if view.IsFollowed, err = s.follows.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return &view, nil
}

// Follow is idempotent. Only a new edge notifies the target.
func (s *UserService) Follow(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return models.NewValidationError(errFollowSelf)
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return err
	}
	created, err := s.follows.Follow(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if created {
		countInteraction("follow", "add")
		notify(ctx, s.notifier, s.users, targetID, userID, notifications.Event{Kind: notifications.KindFollow})
	}
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, userID, targetID uint) error {
	removed, err := s.follows.Unfollow(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError(errNotFollowing)
	}
	countInteraction("follow", "remove")
	return nil
}

func (s *UserService) CheckFollow(ctx context.Context, userID, targetID uint) (bool, error) {
	return s.follows.IsFollowing(ctx, userID, targetID)
}

func (s *UserService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.UserSummaries(users), nil
}

func (s *UserService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.UserSummaries(users), nil
}

// SuggestedFollows keeps the recommender's order and drops the caller and
// anyone already followed.
func (s *UserService) SuggestedFollows(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	ids, err := s.recommender.SuggestedFollows(ctx, userID)
	if err != nil {
		return nil, models.NewUpstreamError(errRecommendationsUnavailable, err)
	}
	followees, err := s.follows.FolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	skip := make(map[uint]struct{}, len(followees)+1)
	skip[userID] = struct{}{}
	for _, id := range followees {
		skip[id] = struct{}{}
	}
	wanted := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		wanted = append(wanted, id)
	}

	users, err := s.users.ListByIDs(ctx, wanted)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]models.UserSummary, 0, len(users))
	for _, id := range wanted {
		if u, ok := byID[id]; ok {
			out = append(out, models.NewUserSummary(u))
		}
	}
	return out, nil
}

// EditProfile applies the given changes to the user and profile in one
// transaction and returns the updated profile.
func (s *UserService) EditProfile(ctx context.Context, userID uint, in EditProfileInput) (*models.UserProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		user.Profile = &models.Profile{UserID: user.ID}
	}
	p := user.Profile

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != user.Username {
			taken, err := s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken != nil && taken.ID != user.ID {
				return nil, models.NewConflictError("username", errUsernameExists)
			}
			user.Username = username
		}
	}
	if in.FirstName != nil {
		p.FirstName = strings.TrimSpace(*in.FirstName)
		if err := validation.ValidateName("firstName", p.FirstName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
		if err := validation.ValidateName("lastName", p.LastName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.Gender != nil {
		if strings.TrimSpace(*in.Gender) == "" {
			p.Gender = nil
		} else {
			g, err := validation.ParseGender(*in.Gender)
			if err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			p.Gender = &g
		}
	}
	if in.City != nil {
		p.City = strings.TrimSpace(*in.City)
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		p.Bio = *in.Bio
	}
	if in.Avatar != nil {
		p.Avatar = strings.TrimSpace(*in.Avatar)
	}

	if err := s.users.UpdateWithProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID, userID)
}

// UserPosts is the profile timeline: authored posts and reposts merged by
// effective time.
func (s *UserService) UserPosts(ctx context.Context, viewerID, userID uint, page feed.Page) ([]models.PostView, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	authored, err := s.posts.ListByAuthors(ctx, []uint{userID}, page.Window())
	if err != nil {
		return nil, err
	}
	reposted, err := s.repostEntries(ctx, owner, page)
	if err != nil {
		return nil, err
	}
	return s.timeline.render(ctx, viewerID, feed.Merge(feed.Authored(authored), reposted), page)
}

// UserReposts lists only the reposts, at repost time.
func (s *UserService) UserReposts(ctx context.Context, viewerID, userID uint, page feed.Page) ([]models.PostView, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	reposted, err := s.repostEntries(ctx, owner, page)
	if err != nil {
		return nil, err
	}
	return s.timeline.render(ctx, viewerID, feed.Merge(reposted), page)
}

// UserLikes lists liked posts, most recently liked first.
func (s *UserService) UserLikes(ctx context.Context, viewerID, userID uint, page feed.Page) ([]models.PostView, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	records, err := s.likes.ListByUser(ctx, userID, page.Window())
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByIDs(ctx, interactionPostIDs(records))
	if err != nil {
		return nil, err
	}
	return s.timeline.render(ctx, viewerID, feed.Ordered(records, posts), page)
}

func (s *UserService) repostEntries(ctx context.Context, owner *models.User, page feed.Page) ([]feed.Entry, error) {
	records, err := s.reposts.ListByUser(ctx, owner.ID, page.Window())
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByIDs(ctx, interactionPostIDs(records))
	if err != nil {
		return nil, err
	}
	return feed.Reposted(records, posts, owner), nil
}

func (s *UserService) requireUser(ctx context.Context, id uint) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError(errUserNotFound)
	}
	return nil
}
