package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	User         attendance.User `json:"user"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password required")
		return
	}

	user, err := a.repo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		fail(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := auth.Issue(user.ID, user.Role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		fail(c, err)
		return
	}
	if err := a.repo.SaveRefreshToken(c.Request.Context(), user.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExp.Unix(),
		User:         user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// refresh rotates the refresh token: the presented token is revoked and a new
// pair is issued, so a stolen token stops working after first use.
func (a *API) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token required")
		return
	}

	claims, err := auth.Parse(req.RefreshToken, a.cfg.JWTSigningKey, a.cfg.JWTIssuer)
	if err != nil || claims.Kind != auth.KindRefresh {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	ok, err := a.repo.RefreshTokenValid(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token revoked or expired"})
		return
	}

	user, err := a.repo.GetUser(c.Request.Context(), claims.Subject)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account inactive"})
		return
	}

	pair, err := auth.Issue(user.ID, user.Role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		fail(c, err)
		return
	}
	if err := a.repo.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		fail(c, err)
		return
	}
	if err := a.repo.SaveRefreshToken(c.Request.Context(), user.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExp.Unix(),
		User:         user,
	})
}
