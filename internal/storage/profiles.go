package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/githubledger/ledgerflow/internal/common"
	"github.com/githubledger/ledgerflow/internal/profile"
)

// SaveProfile stores a profile as its canonical serialized document,
// replacing any previous profile for the same user. Profiles are replaced
// whole, never mutated in place, so a transformation run always sees a
// consistent snapshot.
func (s *SQLiteStorage) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if p == nil {
		return ErrNilProfile
	}

	document, err := profile.Serialize(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO profiles (user_id, document, user_confirmed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			user_confirmed = excluded.user_confirmed,
			updated_at = excluded.updated_at`,
		p.UserID,
		string(document),
		boolToInt(p.Metadata.UserConfirmed),
		p.CreatedAt.Format(time.RFC3339Nano),
		time.Now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", p.UserID, err)
	}
	return nil
}

// GetProfile loads and deserializes the profile for one user.
func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM profiles WHERE user_id = ?`, userID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, common.ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}

	return profile.Deserialize([]byte(document))
}

// ConfirmProfile marks a user's profile as confirmed, allowing unattended
// import. The stored document is replaced with the confirmed snapshot.
func (s *SQLiteStorage) ConfirmProfile(ctx context.Context, userID string) error {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	p.Metadata.UserConfirmed = true
	return s.SaveProfile(ctx, p)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
