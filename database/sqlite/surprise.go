package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

func (s *SqliteRepo) ListSurprises(ctx context.Context) ([]model.Surprise, error) {
	surprises := []model.Surprise{}
	err := s.dbReadHandle.SelectContext(ctx, &surprises,
		"SELECT * FROM surprises ORDER BY created, id")
	return surprises, err
}

func (s *SqliteRepo) GetSurprise(ctx context.Context, id string) (*model.Surprise, error) {
	var sp model.Surprise
	err := s.dbReadHandle.GetContext(ctx, &sp,
		"SELECT * FROM surprises WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *SqliteRepo) InsertSurprise(ctx context.Context, sp *model.Surprise) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO surprises (id, title, details, unlocktype, unlockat,
			dependson, keyhash, unlocked, unlockedat, created)
		VALUES (:id, :title, :details, :unlocktype, :unlockat,
			:dependson, :keyhash, :unlocked, :unlockedat, :created)`, sp)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableSurprises, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateSurprise(ctx context.Context, sp *model.Surprise) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE surprises SET title = :title, details = :details,
			unlocktype = :unlocktype, unlockat = :unlockat,
			dependson = :dependson, keyhash = :keyhash,
			unlocked = :unlocked, unlockedat = :unlockedat
		WHERE id = :id`, sp)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableSurprises, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteSurprise(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM surprises WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableSurprises, changefeed.OpDelete)
	return nil
}

// MarkUnlocked flips the surprise to unlocked at the given time.
func (s *SqliteRepo) MarkUnlocked(ctx context.Context, id string, at time.Time) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"UPDATE surprises SET unlocked = 1, unlockedat = ? WHERE id=?", at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableSurprises, changefeed.OpUpdate)
	return nil
}
