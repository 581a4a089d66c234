package server

import (
	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text string `json:"text"`
}

// AddComment handles POST /api/comment/add/:postId
// @Summary Comment on a post
// @Description The text is screened by the moderation service before it is stored.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /comment/add/{postId} [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.AddComment(c.UserContext(), currentUserID(c), postID, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// RemoveComment handles POST /api/comment/remove/:commentId
// @Summary Delete one of the caller's comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.CommentView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comment/remove/{commentId} [post]
func (s *Server) RemoveComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.RemoveComment(c.UserContext(), currentUserID(c), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}
