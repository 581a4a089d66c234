package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type toggleFunc func(ctx context.Context, userID, postID uint) error

// toggle runs an add or remove and answers {status: state}.
func (s *Server) toggle(c *fiber.Ctx, fn toggleFunc, state bool) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	if err := fn(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": state})
}

// AddLike handles POST /api/like/add/:postId
// @Summary Like a post
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{status=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /like/add/{postId} [post]
func (s *Server) AddLike(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.AddLike, true)
}

// RemoveLike handles POST /api/like/remove/:postId
// @Summary Remove a like
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{status=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /like/remove/{postId} [post]
func (s *Server) RemoveLike(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.RemoveLike, false)
}

// AddRepost handles POST /api/repost/add/:postId
// @Summary Repost a post
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{status=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /repost/add/{postId} [post]
func (s *Server) AddRepost(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.AddRepost, true)
}

// RemoveRepost handles POST /api/repost/remove/:postId
// @Summary Remove a repost
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{status=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /repost/remove/{postId} [post]
func (s *Server) RemoveRepost(c *fiber.Ctx) error {
	return s.toggle(c, s.interactionService.RemoveRepost, false)
}
