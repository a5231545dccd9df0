package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

// ListMessages returns all messages, newest first.
func (s *SqliteRepo) ListMessages(ctx context.Context) ([]model.Message, error) {
	messages := []model.Message{}
	err := s.dbReadHandle.SelectContext(ctx, &messages,
		"SELECT * FROM messages ORDER BY created DESC, id")
	return messages, err
}

func (s *SqliteRepo) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.dbReadHandle.GetContext(ctx, &m,
		"SELECT * FROM messages WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SqliteRepo) InsertMessage(ctx context.Context, m *model.Message) error {
	_, err := s.dbWriteHandle.NamedExecContext(ctx,
		`INSERT INTO messages (id, sender, title, body, read, created)
		VALUES (:id, :sender, :title, :body, :read, :created)`, m)
	if err != nil {
		return err
	}
	s.publish(changefeed.TableMessages, changefeed.OpInsert)
	return nil
}

func (s *SqliteRepo) UpdateMessage(ctx context.Context, m *model.Message) error {
	res, err := s.dbWriteHandle.NamedExecContext(ctx,
		`UPDATE messages SET sender = :sender, title = :title,
			body = :body, read = :read
		WHERE id = :id`, m)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableMessages, changefeed.OpUpdate)
	return nil
}

func (s *SqliteRepo) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.dbWriteHandle.ExecContext(ctx,
		"DELETE FROM messages WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	s.publish(changefeed.TableMessages, changefeed.OpDelete)
	return nil
}
