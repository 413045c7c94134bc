package db

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id uuid PRIMARY KEY,
		email text NOT NULL,
		full_name text NOT NULL,
		phone text NOT NULL DEFAULT '',
		is_student boolean NOT NULL DEFAULT false,
		is_admin boolean NOT NULL DEFAULT false,
		upi_id text NOT NULL DEFAULT '',
		current_institution text NOT NULL DEFAULT '',
		course text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id uuid PRIMARY KEY,
		profile_id uuid NOT NULL REFERENCES profiles (id),
		document_type text NOT NULL,
		file_path text NOT NULL,
		verified boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS donation_requests (
		id uuid PRIMARY KEY,
		student_id uuid NOT NULL REFERENCES profiles (id),
		donation_type text NOT NULL,
		amount bigint NOT NULL CHECK (amount > 0),
		remaining_amount bigint NOT NULL,
		status text NOT NULL DEFAULT 'open',
		description text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now(),
		CHECK (remaining_amount >= 0 AND remaining_amount <= amount)
	)`,

	`CREATE TABLE IF NOT EXISTS donations (
		id uuid PRIMARY KEY,
		request_id uuid NOT NULL REFERENCES donation_requests (id),
		donor_id uuid NOT NULL,
		amount bigint NOT NULL CHECK (amount > 0),
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_profile ON documents (profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_status ON donation_requests (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_student ON donation_requests (student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_donor ON donations (donor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_request ON donations (request_id)`,
}

// Migrate creates the schema. The checks on donation_requests back up
// the ledger invariants at the store boundary: the target amount is
// positive and the remaining amount stays within [0, amount].
func Migrate(dsn string) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			logrus.Fatalf("migration failed: %v", err)
		}
	}
	logrus.Info("Migration completed.")
}
