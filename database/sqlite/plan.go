package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

// ListPlans returns all plans ordered by date.
func (s *SqliteRepo) ListPlans(ctx context.Context) ([]model.Plan, error) {
	plans := []model.Plan{}
	err := s.dbReadHandle.SelectContext(ctx, &plans,
		"SELECT * FROM plans ORDER BY date, id")
	return plans, err
}

func (s *SqliteRepo) GetPlan(ctx context.Context, id string) (*model.Plan, error) {
	var p model.Plan
	err := s.dbReadHandle.GetContext(ctx, &p,
		"SELECT * FROM plans WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SqliteRepo) InsertPlan(ctx context.Context, p *model.Plan) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO plans (id, title, details, location, date, created)
		VALUES (:id, :title, :details, :location, :date, :created)`, p)
	if err != nil {
		return err
	}
	s.publish(changefeed.TablePlans, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdatePlan(ctx context.Context, p *model.Plan) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE plans SET title = :title, details = :details,
			location = :location, date = :date
		WHERE id = :id`, p)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePlans, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeletePlan(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM plans WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePlans, changefeed.OpDelete)
	return nil
}

// ListPlaces returns all places, scheduled visits first.
func (s *SqliteRepo) ListPlaces(ctx context.Context) ([]model.Place, error) {
	places := []model.Place{}
	err := s.dbReadHandle.SelectContext(ctx, &places,
		"SELECT * FROM places ORDER BY visitat, id")
	return places, err
}

func (s *SqliteRepo) GetPlace(ctx context.Context, id string) (*model.Place, error) {
	var p model.Place
	err := s.dbReadHandle.GetContext(ctx, &p,
		"SELECT * FROM places WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SqliteRepo) InsertPlace(ctx context.Context, p *model.Place) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO places (id, name, details, visited, visitat, created)
		VALUES (:id, :name, :details, :visited, :visitat, :created)`, p)
	if err != nil {
		return err
	}
	s.publish(changefeed.TablePlaces, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdatePlace(ctx context.Context, p *model.Place) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE places SET name = :name, details = :details,
			visited = :visited, visitat = :visitat
		WHERE id = :id`, p)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePlaces, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeletePlace(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM places WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePlaces, changefeed.OpDelete)
	return nil
}

// ListMemories returns the timeline, newest happening first.
func (s *SqliteRepo) ListMemories(ctx context.Context) ([]model.Memory, error) {
	memories := []model.Memory{}
	err := s.dbReadHandle.SelectContext(ctx, &memories,
		"SELECT * FROM memories ORDER BY happenedat DESC, id")
	return memories, err
}

func (s *SqliteRepo) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	var m model.Memory
	err := s.dbReadHandle.GetContext(ctx, &m,
		"SELECT * FROM memories WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SqliteRepo) InsertMemory(ctx context.Context, m *model.Memory) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO memories (id, title, details, photourl, placeid, happenedat, created)
		VALUES (:id, :title, :details, :photourl, :placeid, :happenedat, :created)`, m)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableMemories, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateMemory(ctx context.Context, m *model.Memory) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE memories SET title = :title, details = :details,
			photourl = :photourl, placeid = :placeid, happenedat = :happenedat
		WHERE id = :id`, m)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableMemories, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM memories WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableMemories, changefeed.OpDelete)
	return nil
}
