package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/identity"
	"github.com/reloveshop/storefront/internal/logging"
	"github.com/reloveshop/storefront/internal/store"
)

type AuthHandler struct {
	Auth *identity.Service
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type providerLoginRequest struct {
	AccessToken string `json:"access_token"`
	Remember    bool   `json:"remember"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) signIn(c echo.Context, sess *identity.Session) error {
	c.SetCookie(accessCookie(sess))
	sessionStore(c).Dispatch(store.Login{User: sess.User})
	return c.JSON(http.StatusOK, echo.Map{"user": sess.User})
}

func (h *AuthHandler) Register(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := h.Auth.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	switch {
	case errors.Is(err, identity.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "account already exists")
	case err != nil:
		l.Error("register failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not register")
	}
	l.Info("account registered", "user_id", sess.User.ID)
	return h.signIn(c, sess)
}

func (h *AuthHandler) Login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := h.Auth.SignInWithPassword(c.Request().Context(), req.Email, req.Password, req.Remember)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		l.Error("login failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not sign in")
	}
	l.Info("signed in", "user_id", sess.User.ID, "persist", sess.Persist)
	return h.signIn(c, sess)
}

func (h *AuthHandler) LoginWithProvider(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_login_provider")

	provider, err := identity.ParseProvider(c.Param("provider"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "sign-in provider not supported")
	}

	var req providerLoginRequest
	if err := c.Bind(&req); err != nil || req.AccessToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "access_token is required")
	}
	sess, err := h.Auth.SignInWithProvider(c.Request().Context(), provider, req.AccessToken, req.Remember)
	if errors.Is(err, identity.ErrProviderNotSupported) {
		return echo.NewHTTPError(http.StatusBadRequest, "sign-in provider not supported")
	}
	if err != nil {
		l.Warn("provider sign-in rejected", "provider", provider, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "provider sign-in failed")
	}
	l.Info("signed in", "user_id", sess.User.ID, "provider", provider)
	return h.signIn(c, sess)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	st := sessionStore(c)
	if state := st.State(); state.Auth.User != nil {
		h.Auth.SignOut(c.Request().Context(), state.Auth.User.ID)
	}
	st.Dispatch(store.Logout{})
	c.SetCookie(deleteCookie(accessCookieName))
	return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
}

// RequestPasswordReset never reveals whether the email exists.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_password_reset")

	var req passwordResetRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if err := h.Auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		l.Error("reset request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not request reset")
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the account exists, a reset link has been sent"})
}

func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_password_reset_confirm")

	var req passwordResetConfirmRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}
	err := h.Auth.ConfirmPasswordReset(c.Request().Context(), req.Token, req.Password)
	switch {
	case errors.Is(err, identity.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrResetTokenInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, "reset token invalid or expired")
	case err != nil:
		l.Error("reset confirm failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not reset password")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
