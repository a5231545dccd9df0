package sqlite

import (
	"context"
	"log"
	"time"

	"github.com/amora-app/amora-server/database/model"
)

// in-memory player session state, synced to disk by a background job

// GetPlayerState returns the last known player session snapshot.
func (s *SqliteRepo) GetPlayerState(ctx context.Context) (*model.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerState == nil {
		return nil, model.ErrNotFound
	}
	state := *s.playerState
	return &state, nil
}

// UpdatePlayerState stores the player session snapshot in memory. It is
// written to the database by the background sync job.
func (s *SqliteRepo) UpdatePlayerState(state model.PlayerState) {
	state.Timestamp = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playerState = &state
}

// loadPlayerStateFromDB loads the playerstate row into memory.
func (s *SqliteRepo) loadPlayerStateFromDB() {
	var state model.PlayerState
	err := s.dbReadHandle.Get(&state,
		"SELECT trackid, position, volume, shuffle, repeat, timestamp FROM playerstate WHERE id=1")
	if err != nil {
		// no row yet, nothing to resume
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerState = &state
	s.playerStateSyncTime = time.Now()
}

// writePlayerStateToDB writes the in-memory snapshot to the database if
// it changed since the last sync.
func (s *SqliteRepo) writePlayerStateToDB() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerState == nil || !s.playerState.Timestamp.After(s.playerStateSyncTime) {
		return nil
	}

	_, err := s.dbWriteHandle.NamedExec(
		`INSERT OR REPLACE INTO playerstate (id, trackid, position, volume, shuffle, repeat, timestamp)
		VALUES (1, :trackid, :position, :volume, :shuffle, :repeat, :timestamp)`,
		s.playerState)
	if err != nil {
		return err
	}
	s.playerStateSyncTime = time.Now()
	return nil
}

// StartBackgroundJobs starts the periodic sync of in-memory state to
// the database. The job stops when ctx is cancelled.
func (s *SqliteRepo) StartBackgroundJobs(ctx context.Context) {
	go s.playerStateBackgroundJob(ctx, 10*time.Second)
}

func (s *SqliteRepo) playerStateBackgroundJob(ctx context.Context, syncInterval time.Duration) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// final flush on shutdown
			if err := s.writePlayerStateToDB(); err != nil {
				log.Printf("Error writing player state to db: %s\n", err)
			}
			return
		case <-ticker.C:
			if err := s.writePlayerStateToDB(); err != nil {
				log.Printf("Error writing player state to db: %s\n", err)
			}
		}
	}
}
