package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// AuthHandler delegates credential handling to the GoTrue identity
// provider. The service never sees password hashes; it only issues
// GoTrue's access tokens onward and validates them in middleware.
type AuthHandler struct {
	Auth gotrue.Client
}

func NewAuthHandler(auth gotrue.Client) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates the auth user. The profile row comes later, when the
// student completes registration with their academic details.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.Auth.Signup(types.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		logrus.WithError(err).Error("signup failed")
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create account. The email may already be in use."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully.",
		"user_id": resp.ID.String(),
		"email":   resp.Email,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	token, err := h.Auth.SignInWithEmailPassword(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful.",
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"expires_in":    token.ExpiresIn,
		"user_id":       token.User.ID.String(),
	})
}

// Logout revokes the caller's session with the identity provider.
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")

	if err := h.Auth.WithToken(token).Logout(); err != nil {
		logrus.WithError(err).Error("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not sign out."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out."})
}
