package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/hash"
	"github.com/avelsk/storefront/internal/logging"
	"github.com/avelsk/storefront/internal/models"
	"github.com/avelsk/storefront/internal/mykafka"
	cartsvc "github.com/avelsk/storefront/internal/service/cart"
	"github.com/avelsk/storefront/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Cart     *cartsvc.Service
	Producer *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Email     string `json:"email"      form:"email"`
		Username  string `json:"username"   form:"username"`
		Password  string `json:"password"   form:"password"`
		FirstName string `json:"first_name" form:"first_name"`
		LastName  string `json:"last_name"  form:"last_name"`
		Phone     string `json:"phone"      form:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, username and password are required")
	}

	var existing models.User
	err := h.DB.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "email or username already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: pwHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         "customer",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "email or username already registered")
	}

	publish(c, h.Producer, "user_events", strconv.Itoa(int(user.ID)), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Identifier string `json:"identifier" form:"identifier"`
		Password   string `json:"password"   form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	err := h.DB.Where("email = ? OR username = ?", req.Identifier, req.Identifier).First(&user).Error
	if err != nil || !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	accessToken, err := token.SignAccessToken(user.ID, user.Role, h.Tokens.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}
	refreshToken, err := token.SignRefreshToken(user.ID, user.Role, h.Tokens.RefreshSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}
	if err := token.SaveRefreshToken(h.DB, refreshToken, user.ID, user.Role); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	publish(c, h.Producer, "user_events", strconv.Itoa(int(user.ID)), map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	redirect := ""
	if h.consumePendingPurchase(c, user.ID) {
		redirect = "/checkout"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"is_admin":      user.Role == "admin",
		"redirect":      redirect,
	})
}

// consumePendingPurchase merges a stashed buy-now selection into the user's
// cart and clears the stash. Reports whether checkout should follow.
func (h *AuthHandler) consumePendingPurchase(c echo.Context, userID uint) bool {
	ck, err := c.Cookie(PendingPurchaseCookie)
	if err != nil || ck.Value == "" {
		return false
	}
	c.SetCookie(token.CreateCookie(PendingPurchaseCookie, "", "/", time.Now().Add(-time.Hour)))

	parts := strings.SplitN(ck.Value, ":", 2)
	if len(parts) != 2 {
		return false
	}
	productID, err1 := strconv.Atoi(parts[0])
	quantity, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || productID <= 0 {
		return false
	}

	l := logging.FromContext(c.Request().Context())

	crt, err := h.Cart.GetOrCreate(c.Request().Context(), cartsvc.Owner{UserID: userID})
	if err != nil {
		l.Warn("pending purchase cart lookup failed", "error", err)
		return false
	}
	if _, err := h.Cart.AddItem(c.Request().Context(), crt.ID, uint(productID), quantity); err != nil {
		l.Warn("pending purchase merge failed", "product_id", productID, "error", err)
		return false
	}
	return true
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if refreshCookie, err := c.Cookie("refreshToken"); err == nil {
		if err := h.Tokens.Revoke(refreshCookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	expired := time.Now().Add(-time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
