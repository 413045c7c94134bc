// Package ledger implements the donation-request ledger: the lifecycle
// and balance accounting of student funding requests. All row access
// goes through the Store interface; the production store runs on
// PostgreSQL and serializes balance debits with a conditional update so
// that concurrent donations can never overdraw a request.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/PrasadPotale/StudentsAid/internal/models"
)

// Store is the row access the ledger needs. ApplyDonation must insert
// the donation and debit the request's remaining amount atomically,
// returning ErrInvalidAmount when the remaining amount is insufficient
// at the moment of the debit.
type Store interface {
	InsertRequest(ctx context.Context, req *models.DonationRequest) error
	RequestByID(ctx context.Context, id string) (*models.DonationRequest, error)
	OpenRequests(ctx context.Context) ([]models.RequestListing, error)
	RequestsByStudent(ctx context.Context, studentID string) ([]models.DonationRequest, error)
	DonationsByDonor(ctx context.Context, donorID string) ([]models.Donation, error)
	HasVerifiedDocument(ctx context.Context, profileID string) (bool, error)
	ApplyDonation(ctx context.Context, d *models.Donation) error
}

// Ledger exposes the donation-request operations on top of a Store.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// CreateRequest opens a new donation request for a student. The target
// amount is fixed at creation and the remaining amount starts equal to
// it.
func (l *Ledger) CreateRequest(ctx context.Context, studentID, donationType string, amount int64, description string) (*models.DonationRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.ValidRequestType(donationType) {
		return nil, fmt.Errorf("%w: unknown donation type %q", ErrValidation, donationType)
	}

	req := &models.DonationRequest{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		DonationType:    donationType,
		Amount:          amount,
		RemainingAmount: amount,
		Status:          models.StatusOpen,
		Description:     description,
	}
	if err := l.store.InsertRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// OpenRequests lists open requests newest-first, each joined with the
// owner's profile and documents. Requests that have received a partial
// donation move to in_progress and drop off this list.
func (l *Ledger) OpenRequests(ctx context.Context) ([]models.RequestListing, error) {
	return l.store.OpenRequests(ctx)
}

// RequestsByStudent lists a student's own requests newest-first.
func (l *Ledger) RequestsByStudent(ctx context.Context, studentID string) ([]models.DonationRequest, error) {
	return l.store.RequestsByStudent(ctx, studentID)
}

// DonationsByDonor lists a donor's own donations newest-first.
func (l *Ledger) DonationsByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	return l.store.DonationsByDonor(ctx, donorID)
}

// IsContributable reports whether a request may accept donations: at
// least one of the owner's documents must be verified. Document type is
// not checked against the request's funding type.
func (l *Ledger) IsContributable(ctx context.Context, req *models.DonationRequest) (bool, error) {
	return l.store.HasVerifiedDocument(ctx, req.StudentID)
}

// HasVerified reports whether any document in the slice is verified.
// Used when the documents are already in hand from a listing join.
func HasVerified(docs []models.Document) bool {
	for _, d := range docs {
		if d.Verified {
			return true
		}
	}
	return false
}

// ApplyDonation records a donation against a request. The donation row
// is appended and the request's remaining amount debited in a single
// atomic step; when two donors race for the last slice of a request,
// exactly one debit lands and the other is rejected with
// ErrInvalidAmount. A full debit moves the request to completed, a
// partial one to in_progress.
func (l *Ledger) ApplyDonation(ctx context.Context, requestID, donorID string, amount int64) (*models.Donation, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	req, err := l.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	ok, err := l.store.HasVerifiedDocument(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotContributable
	}

	if amount > req.RemainingAmount {
		return nil, fmt.Errorf("%w: %d exceeds remaining %d", ErrInvalidAmount, amount, req.RemainingAmount)
	}

	d := &models.Donation{
		ID:        uuid.NewString(),
		RequestID: requestID,
		DonorID:   donorID,
		Amount:    amount,
	}
	// The store re-checks the remaining amount under the debit; the read
	// above only produces a friendlier error message.
	if err := l.store.ApplyDonation(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
