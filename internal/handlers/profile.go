package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/PrasadPotale/StudentsAid/internal/middleware"
	"github.com/PrasadPotale/StudentsAid/internal/models"
)

type ProfileHandler struct {
	DB *sqlx.DB
}

func NewProfileHandler(db *sqlx.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

type CreateProfileRequest struct {
	FullName           string `json:"full_name" binding:"required"`
	Phone              string `json:"phone" binding:"required"`
	CurrentInstitution string `json:"current_institution" binding:"required"`
	Course             string `json:"course" binding:"required"`
	UpiID              string `json:"upi_id" binding:"required"`
}

// Register completes student registration: one profile row keyed by the
// identity provider's subject, created once and owned by that user.
func (h *ProfileHandler) Register(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	email := c.GetString(middleware.CtxUserEmail)

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var profile models.Profile
	query := `
		INSERT INTO profiles
		  (id, email, full_name, phone, is_student, upi_id, current_institution, course)
		VALUES ($1, $2, $3, $4, true, $5, $6, $7)
		RETURNING *
	`
	err := h.DB.GetContext(c.Request.Context(), &profile, query,
		userID, email, req.FullName, req.Phone, req.UpiID, req.CurrentInstitution, req.Course)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("failed to create profile")
		c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists for this account."})
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// GetMyProfile returns the acting user's profile row.
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	var profile models.Profile
	query := `SELECT * FROM profiles WHERE id = $1`
	if err := h.DB.GetContext(c.Request.Context(), &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found. Complete registration first."})
			return
		}
		logrus.WithField("user_id", userID).WithError(err).Error("failed to get profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, profile)
}
