package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const GuestCookie = "guestToken"

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	c.Set("userID", uint(claims["sub"].(float64)))
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
}

// CheckCookie validates the access cookie and rotates via the refresh
// cookie when the access token expired. A non-empty second return value
// means new cookies must be set.
func (t *TokenService) CheckCookie(c echo.Context) (string, string, string, error) {
	asCookie, err := c.Cookie("accessToken")
	if err == nil {
		tok, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
			return t.JWTSecret, nil
		})
		if err == nil && tok.Valid {
			claims := tok.Claims.(jwt.MapClaims)
			role, _ := claims["role"].(string)
			setUserContext(c, claims)
			return asCookie.Value, "", role, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	newAccess, newRefresh, claims, err := t.RotateToken(rfCookie.Value)
	if err != nil {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token: "+err.Error())
	}

	setUserContext(c, claims)
	role, _ := claims["role"].(string)
	return newAccess, newRefresh, role, nil
}

func (t *TokenService) applyRotated(c echo.Context, newAccess, newRefresh string) {
	if newRefresh == "" {
		return
	}
	c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))
}

// RequireLogin rejects anonymous requests, refreshing the session when
// possible.
func (t *TokenService) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, _, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		t.applyRotated(c, newAccess, newRefresh)
		return next(c)
	}
}

func (t *TokenService) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, role, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		if role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin privileges required")
		}
		t.applyRotated(c, newAccess, newRefresh)
		return next(c)
	}
}

// Identify resolves the acting identity without rejecting anyone: a valid
// session puts userID/role into the context, everyone else proceeds as a
// guest.
func (t *TokenService) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if newAccess, newRefresh, _, err := t.CheckCookie(c); err == nil {
			t.applyRotated(c, newAccess, newRefresh)
		}
		return next(c)
	}
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get("userID").(uint)
	return id, ok && id != 0
}

// EnsureGuestToken returns the browser's opaque cart token, minting and
// setting it on first use.
func EnsureGuestToken(c echo.Context) string {
	if ck, err := c.Cookie(GuestCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	tok := uuid.NewString()
	c.SetCookie(CreateCookie(GuestCookie, tok, "/", time.Now().Add(30*24*time.Hour)))
	return tok
}
