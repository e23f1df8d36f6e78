// Package postgres provides Postgres-backed persistence for athlete
// credentials and delivery records.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/activityrelay/internal/tokens"
)

// Repository reads and writes the two relay tables. Table names come from
// configuration, so identifiers are sanitised before being spliced into SQL.
type Repository struct {
	pool          *pgxpool.Pool
	usersTable    string
	messagesTable string
}

// NewRepository constructs a Repository over the given tables.
func NewRepository(pool *pgxpool.Pool, usersTable, messagesTable string) *Repository {
	return &Repository{
		pool:          pool,
		usersTable:    pgx.Identifier{usersTable}.Sanitize(),
		messagesTable: pgx.Identifier{messagesTable}.Sanitize(),
	}
}

// GetCredential returns the stored credential for an athlete, or (nil, nil)
// when no row exists.
func (r *Repository) GetCredential(ctx context.Context, athleteID int64) (*tokens.Credential, error) {
	query := fmt.Sprintf(
		`SELECT athlete_id, access_token, refresh_token, expires_at FROM %s WHERE athlete_id=$1`,
		r.usersTable,
	)

	var cred tokens.Credential
	row := r.pool.QueryRow(ctx, query, athleteID)
	if err := row.Scan(&cred.AthleteID, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// PutCredential writes the credential, replacing any existing row for the
// athlete. There is no optimistic concurrency control; last write wins.
func (r *Repository) PutCredential(ctx context.Context, cred tokens.Credential) error {
	stmt := fmt.Sprintf(
		`INSERT INTO %s (athlete_id, access_token, refresh_token, expires_at)
         VALUES ($1,$2,$3,$4)
         ON CONFLICT (athlete_id) DO UPDATE
         SET access_token=EXCLUDED.access_token, refresh_token=EXCLUDED.refresh_token, expires_at=EXCLUDED.expires_at`,
		r.usersTable,
	)

	_, err := r.pool.Exec(ctx, stmt, cred.AthleteID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt)
	return err
}

// GetDelivery returns the chat message id recorded for an activity, or an
// empty string when the activity has not been posted.
func (r *Repository) GetDelivery(ctx context.Context, activityID int64) (string, error) {
	query := fmt.Sprintf(`SELECT message_id FROM %s WHERE activity_id=$1`, r.messagesTable)

	var messageID string
	row := r.pool.QueryRow(ctx, query, activityID)
	if err := row.Scan(&messageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return messageID, nil
}

// PutDelivery records the message id for an activity, keeping at most one row
// per activity.
func (r *Repository) PutDelivery(ctx context.Context, activityID int64, messageID string) error {
	stmt := fmt.Sprintf(
		`INSERT INTO %s (activity_id, message_id, posted_at)
         VALUES ($1,$2,now())
         ON CONFLICT (activity_id) DO UPDATE
         SET message_id=EXCLUDED.message_id, posted_at=now()`,
		r.messagesTable,
	)

	_, err := r.pool.Exec(ctx, stmt, activityID, messageID)
	return err
}
