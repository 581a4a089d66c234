package server

import (
	"murmur/internal/middleware"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account with a profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Signup(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Signin handles POST /api/auth/signin
// @Summary User signin
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SigninInput true "Signin request"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/signin [post]
func (s *Server) Signin(c *fiber.Ctx) error {
	var req service.SigninInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Signin(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Signout handles POST /api/auth/signout
// @Summary Revoke the refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{status=bool}
// @Router /auth/signout [post]
func (s *Server) Signout(c *fiber.Ctx) error {
	if err := s.authService.Signout(c.UserContext(), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": true})
}

// Refresh handles POST /api/auth/refresh with the refresh token as bearer.
// @Summary Rotate the token pair
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.TokenPair
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalRefreshToken).(string)
	pair, err := s.authService.Refresh(c.UserContext(), currentUserID(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}
