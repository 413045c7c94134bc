package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/PrasadPotale/StudentsAid/internal/cache"
	"github.com/PrasadPotale/StudentsAid/internal/ledger"
	"github.com/PrasadPotale/StudentsAid/internal/middleware"
	"github.com/PrasadPotale/StudentsAid/internal/models"
)

const openRequestsCacheKey = "requests:open"
const openRequestsCacheTTL = 60 * time.Second

// RequestHandler serves the donation-request ledger over HTTP: creating
// requests, the public browsing list, and applying donations.
type RequestHandler struct {
	Ledger *ledger.Ledger
	Cache  *redis.Client
}

func NewRequestHandler(l *ledger.Ledger, rdb *redis.Client) *RequestHandler {
	return &RequestHandler{Ledger: l, Cache: rdb}
}

type CreateRequestBody struct {
	DonationType string `json:"donation_type" binding:"required"`
	Amount       int64  `json:"amount" binding:"required"`
	Description  string `json:"description"`
}

// Create opens a new donation request for the acting student.
func (h *RequestHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	req, err := h.Ledger.CreateRequest(c.Request.Context(), userID, body.DonationType, body.Amount, body.Description)
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logrus.WithField("student_id", userID).WithError(err).Error("failed to create request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create the request."})
		return
	}

	_ = cache.Delete(c.Request.Context(), h.Cache, openRequestsCacheKey)

	c.JSON(http.StatusCreated, req)
}

// openRequestEntry is a listing plus the contributable flag donors use
// to decide whether the contribute action is available.
type openRequestEntry struct {
	models.RequestListing
	Contributable bool `json:"contributable"`
}

// ListOpen returns open requests newest-first, each with its owner and
// documents, cached briefly to keep the browse page off the database.
func (h *RequestHandler) ListOpen(c *gin.Context) {
	ctx := c.Request.Context()

	var cached []openRequestEntry
	if found, err := cache.Get(ctx, h.Cache, openRequestsCacheKey, &cached); err == nil && found {
		c.JSON(http.StatusOK, gin.H{"requests": cached, "cached": true})
		return
	}

	listings, err := h.Ledger.OpenRequests(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list open requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch donation requests."})
		return
	}

	entries := make([]openRequestEntry, len(listings))
	for i, l := range listings {
		entries[i] = openRequestEntry{
			RequestListing: l,
			Contributable:  ledger.HasVerified(l.Documents),
		}
	}

	_ = cache.Set(ctx, h.Cache, openRequestsCacheKey, entries, openRequestsCacheTTL)

	c.JSON(http.StatusOK, gin.H{"requests": entries, "cached": false})
}

// MyRequests lists the acting student's own requests, newest-first.
func (h *RequestHandler) MyRequests(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	requests, err := h.Ledger.RequestsByStudent(c.Request.Context(), userID)
	if err != nil {
		logrus.WithField("student_id", userID).WithError(err).Error("failed to list requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch requests."})
		return
	}

	c.JSON(http.StatusOK, requests)
}

type DonateBody struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Donate applies a donation from the acting user to a request. The
// ledger rejects amounts the remaining balance no longer covers, which
// includes losing a race with a concurrent donor.
func (h *RequestHandler) Donate(c *gin.Context) {
	donorID := c.GetString(middleware.CtxUserID)
	requestID := c.Param("id")

	var body DonateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	donation, err := h.Ledger.ApplyDonation(c.Request.Context(), requestID, donorID, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation request not found."})
		case errors.Is(err, ledger.ErrNotContributable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "This request cannot accept donations until a document is verified."})
		default:
			logrus.WithFields(logrus.Fields{
				"request_id": requestID,
				"donor_id":   donorID,
			}).WithError(err).Error("failed to apply donation")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not process the donation."})
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"request_id":  requestID,
		"donor_id":    donorID,
		"amount":      donation.Amount,
	}).Info("Donation applied")

	_ = cache.Delete(c.Request.Context(), h.Cache, openRequestsCacheKey)

	c.JSON(http.StatusCreated, donation)
}

// MyDonations lists the acting donor's donations, newest-first.
func (h *RequestHandler) MyDonations(c *gin.Context) {
	donorID := c.GetString(middleware.CtxUserID)

	donations, err := h.Ledger.DonationsByDonor(c.Request.Context(), donorID)
	if err != nil {
		logrus.WithField("donor_id", donorID).WithError(err).Error("failed to list donations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch donations."})
		return
	}

	c.JSON(http.StatusOK, donations)
}
