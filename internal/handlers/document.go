package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/PrasadPotale/StudentsAid/internal/middleware"
	"github.com/PrasadPotale/StudentsAid/internal/models"
	"github.com/PrasadPotale/StudentsAid/internal/storage"
)

type DocumentHandler struct {
	DB   *sqlx.DB
	Docs *storage.Documents
}

func NewDocumentHandler(db *sqlx.DB, docs *storage.Documents) *DocumentHandler {
	return &DocumentHandler{DB: db, Docs: docs}
}

// Upload stores a verification document: the blob goes into the
// documents bucket under <user>/<type>-<uuid><ext>, the metadata row
// into the documents table, unverified.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	docType := c.PostForm("document_type")
	if !models.ValidDocumentType(docType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown document type."})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	defer file.Close()

	ext := filepath.Ext(fileHeader.Filename)
	objectPath := userID + "/" + docType + "-" + uuid.NewString() + ext
	contentType := fileHeader.Header.Get("Content-Type")

	if err := h.Docs.Upload(objectPath, contentType, file); err != nil {
		logrus.WithField("path", objectPath).WithError(err).Error("storage upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store the document."})
		return
	}

	var doc models.Document
	query := `
		INSERT INTO documents (id, profile_id, document_type, file_path)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`
	err = h.DB.GetContext(c.Request.Context(), &doc, query,
		uuid.NewString(), userID, docType, objectPath)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("failed to insert document row")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// MyDocuments lists the acting user's documents.
func (h *DocumentHandler) MyDocuments(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	var docs []models.Document
	query := `SELECT * FROM documents WHERE profile_id = $1 ORDER BY created_at DESC`
	if err := h.DB.SelectContext(c.Request.Context(), &docs, query, userID); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("failed to list documents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch documents."})
		return
	}

	c.JSON(http.StatusOK, docs)
}

// Preview returns a short-lived signed URL for the document blob.
// Donors preview documents from the request listing, so any
// authenticated user may call this.
func (h *DocumentHandler) Preview(c *gin.Context) {
	docID := c.Param("id")

	var doc models.Document
	query := `SELECT * FROM documents WHERE id = $1`
	if err := h.DB.GetContext(c.Request.Context(), &doc, query, docID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found."})
			return
		}
		logrus.WithField("document_id", docID).WithError(err).Error("failed to get document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	url, err := h.Docs.SignedURL(c.Request.Context(), doc.ID, doc.FilePath)
	if err != nil {
		logrus.WithField("document_id", docID).WithError(err).Error("failed to sign preview url")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create preview link."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": storage.SignedURLExpiry,
	})
}

// ListAll returns every document joined with its owner's profile,
// newest-first, for the admin verification queue.
func (h *DocumentHandler) ListAll(c *gin.Context) {
	var docs []models.DocumentListing
	query := `
		SELECT d.*, p.full_name, p.email, p.current_institution AS owner_institution
		FROM documents d
		JOIN profiles p ON p.id = d.profile_id
		ORDER BY d.created_at DESC
	`
	if err := h.DB.SelectContext(c.Request.Context(), &docs, query); err != nil {
		logrus.WithError(err).Error("failed to list documents for verification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch documents."})
		return
	}

	c.JSON(http.StatusOK, docs)
}

type VerifyRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// Verify flips the verified flag on a document. It does not touch the
// ledger: completed requests stay completed even if a document is later
// rejected.
func (h *DocumentHandler) Verify(c *gin.Context) {
	docID := c.Param("id")

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var doc models.Document
	query := `UPDATE documents SET verified = $1 WHERE id = $2 RETURNING *`
	err := h.DB.GetContext(c.Request.Context(), &doc, query, *req.Verified, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found."})
			return
		}
		logrus.WithField("document_id", docID).WithError(err).Error("failed to update document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update document status."})
		return
	}

	logrus.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"profile_id":  doc.ProfileID,
		"verified":    doc.Verified,
	}).Info("Document verification updated")

	c.JSON(http.StatusOK, doc)
}
