package server

import (
	"context"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

type followRequest struct {
	FollowID uint `json:"followId"`
}

type editProfileRequest struct {
	Username *string `json:"username"`
	Profile  struct {
		FirstName *string `json:"firstName"`
		// Older clients send the lower-case key.
		FirstNameLegacy *string `json:"firstname"`
		LastName        *string `json:"lastName"`
		Gender          *string `json:"gender"`
		City            *string `json:"city"`
		Bio             *string `json:"bio"`
		Avatar          *string `json:"avatar"`
	} `json:"profile"`
}

func (r editProfileRequest) input() service.EditProfileInput {
	first := r.Profile.FirstName
	if first == nil {
		first = r.Profile.FirstNameLegacy
	}
	return service.EditProfileInput{
		Username:  r.Username,
		FirstName: first,
		LastName:  r.Profile.LastName,
		Gender:    r.Profile.Gender,
		City:      r.Profile.City,
		Bio:       r.Profile.Bio,
		Avatar:    r.Profile.Avatar,
	}
}

// GetProfile handles GET /api/user/profile/:id
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.GetProfile(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMyFollowers handles GET /api/user/followers
// @Summary List the caller's followers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserSummary
// @Router /user/followers [get]
func (s *Server) GetMyFollowers(c *fiber.Ctx) error {
	return s.listUsers(c, currentUserID(c), s.userService.Followers)
}

// GetMyFollowing handles GET /api/user/following
// @Summary List users the caller follows
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserSummary
// @Router /user/following [get]
func (s *Server) GetMyFollowing(c *fiber.Ctx) error {
	return s.listUsers(c, currentUserID(c), s.userService.Following)
}

// GetUserFollowers handles GET /api/user/:id/followers
// @Summary List a user's followers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /user/{id}/followers [get]
func (s *Server) GetUserFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.listUsers(c, id, s.userService.Followers)
}

// GetUserFollowing handles GET /api/user/:id/following
// @Summary List users a user follows
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /user/{id}/following [get]
func (s *Server) GetUserFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.listUsers(c, id, s.userService.Following)
}

// GetSuggestedFollows handles GET /api/user/suggestedFollows
// @Summary Recommended users to follow
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserSummary
// @Failure 502 {object} models.ErrorResponse
// @Router /user/suggestedFollows [get]
func (s *Server) GetSuggestedFollows(c *fiber.Ctx) error {
	return s.listUsers(c, currentUserID(c), s.userService.SuggestedFollows)
}

func (s *Server) listUsers(c *fiber.Ctx, userID uint, list func(context.Context, uint) ([]models.UserSummary, error)) error {
	users, err := list(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// Follow handles POST /api/user/follow
// @Summary Follow a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "Target user"
// @Success 200 {object} object{followStatus=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.FollowID == 0 {
		return respondError(c, models.NewValidationError("followId is required"))
	}
	if err := s.userService.Follow(c.UserContext(), currentUserID(c), req.FollowID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"followStatus": true})
}

// Unfollow handles POST /api/user/unfollow
// @Summary Unfollow a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "Target user"
// @Success 200 {object} object{followStatus=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /user/unfollow [post]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.FollowID == 0 {
		return respondError(c, models.NewValidationError("followId is required"))
	}
	if err := s.userService.Unfollow(c.UserContext(), currentUserID(c), req.FollowID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"followStatus": false})
}

// CheckFollow handles GET /api/user/:id/checkFollow
// @Summary Whether the caller follows a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{followStatus=bool}
// @Router /user/{id}/checkFollow [get]
func (s *Server) CheckFollow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	following, err := s.userService.CheckFollow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"followStatus": following})
}

// EditProfile handles POST /api/user/edit
// @Summary Edit the caller's username and profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body editProfileRequest true "Changes"
// @Success 200 {object} models.UserProfileView
// @Failure 400 {object} models.ErrorResponse
// @Router /user/edit [post]
func (s *Server) EditProfile(c *fiber.Ctx) error {
	var req editProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.userService.EditProfile(c.UserContext(), currentUserID(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/user/:id/posts
// @Summary Profile timeline: authored posts and reposts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.PostView
// @Router /user/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	return s.userTimeline(c, s.userService.UserPosts)
}

// GetUserReposts handles GET /api/user/:id/reposts
// @Summary Posts a user reposted
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.PostView
// @Router /user/{id}/reposts [get]
func (s *Server) GetUserReposts(c *fiber.Ctx) error {
	return s.userTimeline(c, s.userService.UserReposts)
}

// GetUserLikes handles GET /api/user/:id/likes
// @Summary Posts a user liked
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.PostView
// @Router /user/{id}/likes [get]
func (s *Server) GetUserLikes(c *fiber.Ctx) error {
	return s.userTimeline(c, s.userService.UserLikes)
}

type timelineFunc func(ctx context.Context, viewerID, userID uint, page feed.Page) ([]models.PostView, error)

func (s *Server) userTimeline(c *fiber.Ctx, list timelineFunc) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	posts, err := list(c.UserContext(), currentUserID(c), id, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
