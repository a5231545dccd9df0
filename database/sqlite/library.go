package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

func (s *SqliteRepo) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	recipes := []model.Recipe{}
	err := s.dbReadHandle.SelectContext(ctx, &recipes,
		"SELECT * FROM recipes ORDER BY created, id")
	return recipes, err
}

func (s *SqliteRepo) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var r model.Recipe
	err := s.dbReadHandle.GetContext(ctx, &r,
		"SELECT * FROM recipes WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SqliteRepo) InsertRecipe(ctx context.Context, r *model.Recipe) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO recipes (id, title, meal, notes, tried, created)
		VALUES (:id, :title, :meal, :notes, :tried, :created)`, r)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableRecipes, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateRecipe(ctx context.Context, r *model.Recipe) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE recipes SET title = :title, meal = :meal,
			notes = :notes, tried = :tried
		WHERE id = :id`, r)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableRecipes, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM recipes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableRecipes, changefeed.OpDelete)
	return nil
}

func (s *SqliteRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	movies := []model.Movie{}
	err := s.dbReadHandle.SelectContext(ctx, &movies,
		"SELECT * FROM movies ORDER BY created, id")
	return movies, err
}

func (s *SqliteRepo) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	var m model.Movie
	err := s.dbReadHandle.GetContext(ctx, &m,
		"SELECT * FROM movies WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SqliteRepo) InsertMovie(ctx context.Context, m *model.Movie) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO movies (id, title, kind, notes, watched, created)
		VALUES (:id, :title, :kind, :notes, :watched, :created)`, m)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableMovies, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateMovie(ctx context.Context, m *model.Movie) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE movies SET title = :title, kind = :kind,
			notes = :notes, watched = :watched
		WHERE id = :id`, m)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableMovies, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteMovie(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableMovies, changefeed.OpDelete)
	return nil
}
