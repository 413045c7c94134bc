package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/PrasadPotale/StudentsAid/internal/models"
)

// SQLStore is the production Store over Supabase PostgreSQL.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) InsertRequest(ctx context.Context, req *models.DonationRequest) error {
	query := `
		INSERT INTO donation_requests
		  (id, student_id, donation_type, amount, remaining_amount, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return s.db.GetContext(ctx, &req.CreatedAt, query,
		req.ID, req.StudentID, req.DonationType,
		req.Amount, req.RemainingAmount, req.Status, req.Description,
	)
}

func (s *SQLStore) RequestByID(ctx context.Context, id string) (*models.DonationRequest, error) {
	var req models.DonationRequest
	query := `SELECT * FROM donation_requests WHERE id = $1`
	if err := s.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// OpenRequests returns open requests newest-first, with the owner's
// profile slice and documents attached to each.
func (s *SQLStore) OpenRequests(ctx context.Context) ([]models.RequestListing, error) {
	var requests []models.DonationRequest
	query := `SELECT * FROM donation_requests WHERE status = 'open' ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []models.RequestListing{}, nil
	}

	ownerIDs := make([]string, 0, len(requests))
	for _, r := range requests {
		ownerIDs = append(ownerIDs, r.StudentID)
	}

	ownerQuery, args, err := sqlx.In(
		`SELECT id, full_name, current_institution, upi_id FROM profiles WHERE id IN (?)`, ownerIDs)
	if err != nil {
		return nil, err
	}
	var owners []struct {
		ID string `db:"id"`
		models.RequestOwner
	}
	if err := s.db.SelectContext(ctx, &owners, s.db.Rebind(ownerQuery), args...); err != nil {
		return nil, err
	}
	ownerByID := make(map[string]models.RequestOwner, len(owners))
	for _, o := range owners {
		ownerByID[o.ID] = o.RequestOwner
	}

	docQuery, args, err := sqlx.In(
		`SELECT * FROM documents WHERE profile_id IN (?) ORDER BY created_at`, ownerIDs)
	if err != nil {
		return nil, err
	}
	var docs []models.Document
	if err := s.db.SelectContext(ctx, &docs, s.db.Rebind(docQuery), args...); err != nil {
		return nil, err
	}
	docsByOwner := make(map[string][]models.Document)
	for _, d := range docs {
		docsByOwner[d.ProfileID] = append(docsByOwner[d.ProfileID], d)
	}

	listings := make([]models.RequestListing, len(requests))
	for i, r := range requests {
		listings[i] = models.RequestListing{
			DonationRequest: r,
			Owner:           ownerByID[r.StudentID],
			Documents:       docsByOwner[r.StudentID],
		}
	}
	return listings, nil
}

func (s *SQLStore) RequestsByStudent(ctx context.Context, studentID string) ([]models.DonationRequest, error) {
	var requests []models.DonationRequest
	query := `SELECT * FROM donation_requests WHERE student_id = $1 ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &requests, query, studentID); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *SQLStore) DonationsByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	var donations []models.Donation
	query := `SELECT * FROM donations WHERE donor_id = $1 ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &donations, query, donorID); err != nil {
		return nil, err
	}
	return donations, nil
}

func (s *SQLStore) HasVerifiedDocument(ctx context.Context, profileID string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM documents WHERE profile_id = $1 AND verified)`
	if err := s.db.GetContext(ctx, &ok, query, profileID); err != nil {
		return false, err
	}
	return ok, nil
}

// ApplyDonation debits the request and appends the donation row in one
// transaction. The debit is conditional on the remaining amount still
// covering the donation, so a concurrent donation that got there first
// makes this one fail cleanly instead of overdrawing the request.
func (s *SQLStore) ApplyDonation(ctx context.Context, d *models.Donation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	debit := `
		UPDATE donation_requests
		SET remaining_amount = remaining_amount - $1,
		    status = CASE WHEN remaining_amount = $1 THEN 'completed' ELSE 'in_progress' END
		WHERE id = $2 AND remaining_amount >= $1
	`
	res, err := tx.ExecContext(ctx, debit, d.Amount, d.RequestID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: remaining amount no longer covers %d", ErrInvalidAmount, d.Amount)
	}

	insert := `
		INSERT INTO donations (id, request_id, donor_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := tx.GetContext(ctx, &d.CreatedAt, insert, d.ID, d.RequestID, d.DonorID, d.Amount); err != nil {
		return err
	}

	return tx.Commit()
}
