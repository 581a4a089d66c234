package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetPost handles GET /api/post/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetPostComments handles GET /api/post/:id/comments
// @Summary List comments on a post, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {array} models.CommentView
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/comments [get]
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.postService.GetPostComments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// GetSuggestedPosts handles GET /api/post/suggested
// @Summary Recommended posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.PostView
// @Failure 502 {object} models.ErrorResponse
// @Router /post/suggested [get]
func (s *Server) GetSuggestedPosts(c *fiber.Ctx) error {
	posts, err := s.postService.SuggestedPosts(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetFollowingPosts handles GET /api/post/following
// @Summary Posts by followed users
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.PostView
// @Router /post/following [get]
func (s *Server) GetFollowingPosts(c *fiber.Ctx) error {
	posts, err := s.postService.FollowingPosts(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
