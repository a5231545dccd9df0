package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

func (s *SqliteRepo) ListGoals(ctx context.Context) ([]model.Goal, error) {
	goals := []model.Goal{}
	err := s.dbReadHandle.SelectContext(ctx, &goals,
		"SELECT * FROM goals ORDER BY created, id")
	return goals, err
}

func (s *SqliteRepo) GetGoal(ctx context.Context, id string) (*model.Goal, error) {
	var g model.Goal
	err := s.dbReadHandle.GetContext(ctx, &g,
		"SELECT * FROM goals WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *SqliteRepo) InsertGoal(ctx context.Context, g *model.Goal) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO goals (id, title, details, progress, deadline,
			completed, completedat, created)
		VALUES (:id, :title, :details, :progress, :deadline,
			:completed, :completedat, :created)`, g)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableGoals, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateGoal(ctx context.Context, g *model.Goal) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE goals SET title = :title, details = :details,
			progress = :progress, deadline = :deadline,
			completed = :completed, completedat = :completedat
		WHERE id = :id`, g)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableGoals, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM goals WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableGoals, changefeed.OpDelete)
	return nil
}

func (s *SqliteRepo) ListDreams(ctx context.Context) ([]model.Dream, error) {
	dreams := []model.Dream{}
	err := s.dbReadHandle.SelectContext(ctx, &dreams,
		"SELECT * FROM dreams ORDER BY created, id")
	return dreams, err
}

func (s *SqliteRepo) GetDream(ctx context.Context, id string) (*model.Dream, error) {
	var d model.Dream
	err := s.dbReadHandle.GetContext(ctx, &d,
		"SELECT * FROM dreams WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SqliteRepo) InsertDream(ctx context.Context, d *model.Dream) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO dreams (id, title, details, achieved, achievedat, created)
		VALUES (:id, :title, :details, :achieved, :achievedat, :created)`, d)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableDreams, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateDream(ctx context.Context, d *model.Dream) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE dreams SET title = :title, details = :details,
			achieved = :achieved, achievedat = :achievedat
		WHERE id = :id`, d)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableDreams, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteDream(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM dreams WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableDreams, changefeed.OpDelete)
	return nil
}
