package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinald/bookapi/internal/apperr"
	authmw "github.com/vinald/bookapi/internal/middleware/auth"
	"github.com/vinald/bookapi/internal/service"
)

type AuthHandler struct {
	Auth *service.AuthService
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}

	user, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	// Accepts JSON or an OAuth2-style form where username carries the email.
	var req struct {
		Email    string `json:"email" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.ErrValidation)
	}
	if req.Email == "" || req.Password == "" {
		return httpError(apperr.ErrValidation)
	}

	pair, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return httpError(apperr.ErrInvalidToken)
	}

	pair, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	claims := authmw.CurrentClaims(c)
	if claims == nil {
		return httpError(apperr.ErrInvalidToken)
	}
	if err := h.Auth.Logout(c.Request().Context(), claims); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return httpError(apperr.ErrInvalidToken)
	}
	if err := h.Auth.LogoutAll(c.Request().Context(), user.UUID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out everywhere"})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req struct {
		Token string `json:"token" query:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return httpError(apperr.ErrInvalidToken)
	}
	if err := h.Auth.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return httpError(apperr.ErrValidation)
	}
	if err := h.Auth.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	// Identical response whether or not the account exists.
	return c.JSON(http.StatusOK, messageResponse{Message: "if the account exists, a verification email has been sent"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return httpError(apperr.ErrValidation)
	}
	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	// Identical response whether or not the account exists.
	return c.JSON(http.StatusOK, messageResponse{Message: "if the account exists, a password reset email has been sent"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return httpError(apperr.ErrInvalidToken)
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}
