package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/store"
)

// SessionMiddleware attaches the session's state store to the request
// and reconstructs the auth slice from the identity provider on every
// session restoration: a valid access token plus a fresh role lookup
// becomes a Login dispatch, a missing or invalid one a Logout.
func (d *Deps) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := ""
		if ck, err := c.Cookie(sessionCookieName); err == nil && ck.Value != "" {
			id = ck.Value
		}
		if id == "" {
			id = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		st := d.Sessions.Get(id)
		c.Set(ctxStoreKey, st)

		state := st.State()
		ck, err := c.Cookie(accessCookieName)
		if err != nil || ck.Value == "" {
			if state.Auth.Authenticated {
				st.Dispatch(store.Logout{})
			}
			return next(c)
		}

		user, err := d.Auth.UserFromToken(c.Request().Context(), ck.Value)
		if err != nil {
			if state.Auth.Authenticated {
				st.Dispatch(store.Logout{})
			}
			c.SetCookie(deleteCookie(accessCookieName))
			return next(c)
		}

		switch {
		case !state.Auth.Authenticated || state.Auth.User == nil || state.Auth.User.ID != user.ID:
			st.Dispatch(store.Login{User: *user})
		case state.Auth.User.Role != user.Role:
			st.Dispatch(store.SetRole{Role: user.Role})
		}
		return next(c)
	}
}

// RequireAdmin guards the admin screens: anything but an authenticated
// admin identity is sent to the login screen before any admin data is
// touched.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := sessionStore(c).State().Auth
		if !auth.Authenticated || auth.User == nil || auth.User.Role != "admin" {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return next(c)
	}
}
