// Package service defines the interfaces between the CLI, the
// transformation engine, and the storage layer.
package service

import (
	"context"

	"github.com/githubledger/ledgerflow/internal/model"
	"github.com/githubledger/ledgerflow/internal/profile"
)

// Storage defines the persistence contract for records and profiles.
type Storage interface {
	// Records are append-only; the only delete path is undo import.
	SaveRecords(ctx context.Context, records []*model.Record) error
	GetRecordByID(ctx context.Context, id string) (*model.Record, error)
	ListRecordsBySourceFile(ctx context.Context, sourceFile string) ([]*model.Record, error)
	CountRecords(ctx context.Context) (int, error)
	DeleteRecordsBySourceFile(ctx context.Context, sourceFile string) (int64, error)

	// Profiles are replaced whole, never mutated in place.
	SaveProfile(ctx context.Context, p *profile.Profile) error
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)
	ConfirmProfile(ctx context.Context, userID string) error

	Migrate(ctx context.Context) error
	Close() error
}
