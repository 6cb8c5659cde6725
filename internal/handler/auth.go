package handler

import (
	"context"  // context for store calls
	"errors"   // errors.Is on repository sentinels
	"net/http" // HTTP status codes
	"strings"  // normalization of credentials
	"time"     // token expirations in responses

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/table-reservation/internal/config"     // token settings
	"github.com/iliyamo/table-reservation/internal/middleware" // staff identity from context
	"github.com/iliyamo/table-reservation/internal/model"      // staff records
	"github.com/iliyamo/table-reservation/internal/repository" // repository sentinels
	"github.com/iliyamo/table-reservation/internal/utils"      // hashing and token issuing
)

// StaffAccounts looks staff members up.
type StaffAccounts interface {
	GetByEmail(ctx context.Context, email string) (model.Staff, error)
	GetByID(ctx context.Context, id uint64) (model.Staff, error)
}

// RefreshTokens stores hashed refresh tokens.
type RefreshTokens interface {
	StoreRefresh(ctx context.Context, staffID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForStaff(ctx context.Context, staffID uint64) error
}

// AuthHandler bundles dependencies for the staff auth endpoints.  There
// is no self registration; accounts come from the bootstrap admin.
type AuthHandler struct {
	Cfg    config.Config
	Staff  StaffAccounts
	Tokens RefreshTokens
}

func NewAuthHandler(cfg config.Config, staff StaffAccounts, tokens RefreshTokens) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Staff: staff, Tokens: tokens}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type staffPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	Staff   staffPart `json:"staff"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Login: verify and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	s, err := h.Staff.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "query failed"})
	}
	if !s.IsActive || !utils.VerifyPassword(s.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(c, ctx, s)
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := withTimeout(c)
	defer cancel()

	staffID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	s, err := h.Staff.GetByID(ctx, staffID)
	if err != nil || !s.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "revoke failed"})
	}
	return h.issue(c, ctx, s)
}

func (h *AuthHandler) issue(c echo.Context, ctx context.Context, s model.Staff) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.ID, s.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, s.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		Staff:   staffPart{ID: s.ID, Email: s.Email, Role: s.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client, only the hash is stored
	})
}

// Logout revokes one refresh token when the body carries it, otherwise
// every refresh token of the staff member named by the bearer token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	var staffID uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			staffID, _ = claims.StaffID()
		}
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "logout failed"})
		}
	case staffID != 0:
		if err := h.Tokens.RevokeAllForStaff(ctx, staffID); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "logout failed"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed in staff member.
func (h *AuthHandler) Me(c echo.Context) error {
	id, _ := middleware.StaffID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"staff_id": id,
		"role":     c.Get(middleware.KeyRole),
	})
}
