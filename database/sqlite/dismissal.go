package sqlite

import (
	"context"

	"github.com/amora-app/amora-server/database/model"
)

// LoadDismissals returns all persisted notification dismissal records.
func (s *SqliteRepo) LoadDismissals(ctx context.Context) ([]model.Dismissal, error) {
	dismissals := []model.Dismissal{}
	err := s.dbReadHandle.SelectContext(ctx, &dismissals,
		"SELECT * FROM dismissals")
	return dismissals, err
}

// SaveDismissal upserts a single dismissal record.
func (s *SqliteRepo) SaveDismissal(ctx context.Context, d model.Dismissal) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO dismissals (id, version, kind, status, snoozeuntil, updated)
		VALUES (:id, :version, :kind, :status, :snoozeuntil, :updated)`, d)
	return err
}
