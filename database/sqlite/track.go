package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

// ListTracks returns the playlist in insertion order.
func (s *SqliteRepo) ListTracks(ctx context.Context) ([]model.Track, error) {
	tracks := []model.Track{}
	err := s.dbReadHandle.SelectContext(ctx, &tracks,
		"SELECT * FROM tracks ORDER BY created, id")
	return tracks, err
}

func (s *SqliteRepo) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	var t model.Track
	err := s.dbReadHandle.GetContext(ctx, &t,
		"SELECT * FROM tracks WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SqliteRepo) InsertTrack(ctx context.Context, t *model.Track) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO tracks (id, title, artist, duration, coverurl, dedication,
			audiourl, favorite, playcount, created)
		VALUES (:id, :title, :artist, :duration, :coverurl, :dedication,
			:audiourl, :favorite, :playcount, :created)`, t)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableTracks, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateTrack(ctx context.Context, t *model.Track) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE tracks SET title = :title, artist = :artist,
			duration = :duration, coverurl = :coverurl,
			dedication = :dedication, audiourl = :audiourl,
			favorite = :favorite, playcount = :playcount
		WHERE id = :id`, t)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableTracks, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteTrack(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM tracks WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableTracks, changefeed.OpDelete)
	return nil
}

// IncrementPlayCount records one full natural playback completion.
func (s *SqliteRepo) IncrementPlayCount(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"UPDATE tracks SET playcount = playcount + 1 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableTracks, changefeed.OpUpdate)
	return nil
}
