package models

import "time"

// We use 'db' tags for sqlx to automatically map
// the database column names (snake_case) to our Go fields (CamelCase).

// Document types a student can upload for verification.
const (
	DocAdmissionBill       = "admission_bill"
	DocTwelfthMarksheet    = "twelfth_marksheet"
	DocGraduationMarksheet = "graduation_marksheet"
	DocOther               = "other"
)

// Donation request funding types.
const (
	RequestFood     = "food"
	RequestBooks    = "books"
	RequestRoomRent = "room_rent"
	RequestMedical  = "medical"
)

// Donation request lifecycle states. StatusApproved is reserved for a
// future manual admin action; no operation currently produces it.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusApproved   = "approved"
	StatusCompleted  = "completed"
)

// ValidDocumentType reports whether t is one of the upload enums.
func ValidDocumentType(t string) bool {
	switch t {
	case DocAdmissionBill, DocTwelfthMarksheet, DocGraduationMarksheet, DocOther:
		return true
	}
	return false
}

// ValidRequestType reports whether t is one of the funding enums.
func ValidRequestType(t string) bool {
	switch t {
	case RequestFood, RequestBooks, RequestRoomRent, RequestMedical:
		return true
	}
	return false
}

// StatusForRemaining returns the status a request carries after a
// donation leaves it with the given remaining amount.
func StatusForRemaining(remaining int64) string {
	if remaining == 0 {
		return StatusCompleted
	}
	return StatusInProgress
}

// Profile represents a registered user. The ID is the identity
// provider's subject (a UUID), so profile and auth user are one-to-one.
type Profile struct {
	ID                 string    `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	FullName           string    `db:"full_name" json:"full_name"`
	Phone              string    `db:"phone" json:"phone"`
	IsStudent          bool      `db:"is_student" json:"is_student"`
	IsAdmin            bool      `db:"is_admin" json:"is_admin"`
	UpiID              string    `db:"upi_id" json:"upi_id"`
	CurrentInstitution string    `db:"current_institution" json:"current_institution"`
	Course             string    `db:"course" json:"course"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Document is the metadata row for an uploaded verification document.
// The binary itself lives in object storage under FilePath.
type Document struct {
	ID           string    `db:"id" json:"id"`
	ProfileID    string    `db:"profile_id" json:"profile_id"`
	DocumentType string    `db:"document_type" json:"document_type"`
	FilePath     string    `db:"file_path" json:"file_path"`
	Verified     bool      `db:"verified" json:"verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DonationRequest is the ledger row for one student's funding request.
// Amount is fixed at creation; RemainingAmount only ever decreases.
type DonationRequest struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	DonationType    string    `db:"donation_type" json:"donation_type"`
	Amount          int64     `db:"amount" json:"amount"`
	RemainingAmount int64     `db:"remaining_amount" json:"remaining_amount"`
	Status          string    `db:"status" json:"status"`
	Description     string    `db:"description" json:"description"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Donation is an append-only record of one contribution. Rows are never
// mutated or deleted; the sum of a request's donations always equals
// amount minus remaining_amount.
type Donation struct {
	ID        string    `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	DonorID   string    `db:"donor_id" json:"donor_id"`
	Amount    int64     `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RequestOwner is the slice of the owner's profile shown to donors
// alongside an open request.
type RequestOwner struct {
	FullName           string `db:"full_name" json:"full_name"`
	CurrentInstitution string `db:"current_institution" json:"current_institution"`
	UpiID              string `db:"upi_id" json:"upi_id"`
}

// RequestListing is a request joined with its owner and the owner's
// documents, as rendered on the public browsing list.
type RequestListing struct {
	DonationRequest
	Owner     RequestOwner `json:"profile"`
	Documents []Document   `json:"documents"`
}

// DocumentListing is a document joined with its owner's profile, as
// rendered on the admin verification queue.
type DocumentListing struct {
	Document
	OwnerName        string `db:"full_name" json:"full_name"`
	OwnerEmail       string `db:"email" json:"email"`
	OwnerInstitution string `db:"owner_institution" json:"owner_institution"`
}
