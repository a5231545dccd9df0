package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

func (s *SqliteRepo) ListPets(ctx context.Context) ([]model.Pet, error) {
	pets := []model.Pet{}
	err := s.dbReadHandle.SelectContext(ctx, &pets,
		"SELECT * FROM pets ORDER BY created, id")
	return pets, err
}

func (s *SqliteRepo) GetPet(ctx context.Context, id string) (*model.Pet, error) {
	var p model.Pet
	err := s.dbReadHandle.GetContext(ctx, &p,
		"SELECT * FROM pets WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SqliteRepo) InsertPet(ctx context.Context, p *model.Pet) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO pets (id, name, species, photourl, born, created)
		VALUES (:id, :name, :species, :photourl, :born, :created)`, p)
	if err != nil {
		return err
	}
	s.publish(changefeed.TablePets, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdatePet(ctx context.Context, p *model.Pet) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE pets SET name = :name, species = :species,
			photourl = :photourl, born = :born
		WHERE id = :id`, p)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePets, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeletePet(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM pets WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePets, changefeed.OpDelete)
	return nil
}

// ListPetTasks returns all care tasks ordered by due date.
func (s *SqliteRepo) ListPetTasks(ctx context.Context) ([]model.PetTask, error) {
	tasks := []model.PetTask{}
	err := s.dbReadHandle.SelectContext(ctx, &tasks,
		"SELECT * FROM pet_tasks ORDER BY due, id")
	return tasks, err
}

func (s *SqliteRepo) GetPetTask(ctx context.Context, id string) (*model.PetTask, error) {
	var t model.PetTask
	err := s.dbReadHandle.GetContext(ctx, &t,
		"SELECT * FROM pet_tasks WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SqliteRepo) InsertPetTask(ctx context.Context, t *model.PetTask) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO pet_tasks (id, petid, title, notes, due, done, created)
		VALUES (:id, :petid, :title, :notes, :due, :done, :created)`, t)
	if err != nil {
		return err
	}
	s.publish(changefeed.TablePetTasks, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdatePetTask(ctx context.Context, t *model.PetTask) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE pet_tasks SET petid = :petid, title = :title, notes = :notes,
			due = :due, done = :done
		WHERE id = :id`, t)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePetTasks, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeletePetTask(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM pet_tasks WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TablePetTasks, changefeed.OpDelete)
	return nil
}

// ListHealthRecords returns all health entries ordered by due date.
func (s *SqliteRepo) ListHealthRecords(ctx context.Context) ([]model.HealthRecord, error) {
	records := []model.HealthRecord{}
	err := s.dbReadHandle.SelectContext(ctx, &records,
		"SELECT * FROM health_records ORDER BY due, id")
	return records, err
}

func (s *SqliteRepo) GetHealthRecord(ctx context.Context, id string) (*model.HealthRecord, error) {
	var r model.HealthRecord
	err := s.dbReadHandle.GetContext(ctx, &r,
		"SELECT * FROM health_records WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SqliteRepo) InsertHealthRecord(ctx context.Context, r *model.HealthRecord) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO health_records (id, petid, title, kind, notes, due, created)
		VALUES (:id, :petid, :title, :kind, :notes, :due, :created)`, r)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableHealthRecords, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateHealthRecord(ctx context.Context, r *model.HealthRecord) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE health_records SET petid = :petid, title = :title,
			kind = :kind, notes = :notes, due = :due
		WHERE id = :id`, r)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableHealthRecords, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteHealthRecord(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM health_records WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableHealthRecords, changefeed.OpDelete)
	return nil
}
