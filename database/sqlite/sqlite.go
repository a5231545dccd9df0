package sqlite

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database/model"
)

// Options holds sqlite configuration.
type Options struct {
	Filename string
	Feed     *changefeed.Feed
}

type SqliteRepo struct {
	// Read db handle
	dbReadHandle *sqlx.DB
	// Handle specifically for writes
	dbWriteHandle *sqlx.DB
	// change feed to publish write events on, may be nil
	feed *changefeed.Feed
	// in-memory player session state, written to the database by a background job
	playerState *model.PlayerState
	// last time the player state was synced to the database
	playerStateSyncTime time.Time
	// mutex to protect access to in-memory state
	mu sync.Mutex
}

// New initializes a sqlite database and creates schema if necessary.
func New(o *Options) (*SqliteRepo, error) {
	if o == nil || o.Filename == "" {
		return nil, model.ErrNoConfiguration
	}

	dbHandle, err := sqlx.Connect("sqlite3", o.Filename)
	if err != nil {
		return nil, err
	}
	dbHandle.SetMaxOpenConns(max(4, runtime.NumCPU()))

	writeDB, err := sqlx.Connect("sqlite3", o.Filename)
	if err != nil {
		return nil, err
	}
	// sqlite needs to have a single writer
	writeDB.SetMaxOpenConns(1)

	if err := dbInitSchema(writeDB); err != nil {
		return nil, err
	}

	s := &SqliteRepo{
		dbReadHandle:  dbHandle,
		dbWriteHandle: writeDB,
		feed:          o.Feed,
	}
	s.loadPlayerStateFromDB()

	return s, nil
}

// publish announces a table change on the feed, if one is attached.
func (s *SqliteRepo) publish(table changefeed.Table, op changefeed.Op) {
	if s.feed != nil {
		s.feed.Publish(changefeed.Event{Table: table, Op: op})
	}
}

func dbInitSchema(d *sqlx.DB) error {
	tx, err := d.Beginx()
	if err != nil {
		return err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
artist TEXT NOT NULL,
duration INTEGER NOT NULL,
coverurl TEXT NOT NULL DEFAULT '',
dedication TEXT NOT NULL DEFAULT '',
audiourl TEXT NOT NULL DEFAULT '',
favorite BOOLEAN NOT NULL DEFAULT 0,
playcount INTEGER NOT NULL DEFAULT 0,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS pets (
id TEXT NOT NULL PRIMARY KEY,
name TEXT NOT NULL,
species TEXT NOT NULL,
photourl TEXT NOT NULL DEFAULT '',
born DATETIME,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS pet_tasks (
id TEXT NOT NULL PRIMARY KEY,
petid TEXT NOT NULL,
title TEXT NOT NULL,
notes TEXT NOT NULL DEFAULT '',
due DATETIME,
done BOOLEAN NOT NULL DEFAULT 0,
created DATETIME);`,

		`CREATE INDEX IF NOT EXISTS pet_tasks_due_idx ON pet_tasks (due);`,

		`CREATE TABLE IF NOT EXISTS health_records (
id TEXT NOT NULL PRIMARY KEY,
petid TEXT NOT NULL,
title TEXT NOT NULL,
kind TEXT NOT NULL,
notes TEXT NOT NULL DEFAULT '',
due DATETIME,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS plans (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
details TEXT NOT NULL DEFAULT '',
location TEXT NOT NULL DEFAULT '',
date DATETIME,
created DATETIME);`,

		`CREATE INDEX IF NOT EXISTS plans_date_idx ON plans (date);`,

		`CREATE TABLE IF NOT EXISTS surprises (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
details TEXT NOT NULL DEFAULT '',
unlocktype TEXT NOT NULL,
unlockat DATETIME,
dependson TEXT NOT NULL DEFAULT '',
keyhash TEXT NOT NULL DEFAULT '',
unlocked BOOLEAN NOT NULL DEFAULT 0,
unlockedat DATETIME,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS messages (
id TEXT NOT NULL PRIMARY KEY,
sender TEXT NOT NULL,
title TEXT NOT NULL,
body TEXT NOT NULL,
read BOOLEAN NOT NULL DEFAULT 0,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS places (
id TEXT NOT NULL PRIMARY KEY,
name TEXT NOT NULL,
details TEXT NOT NULL DEFAULT '',
visited BOOLEAN NOT NULL DEFAULT 0,
visitat DATETIME,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS recipes (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
meal TEXT NOT NULL,
notes TEXT NOT NULL DEFAULT '',
tried BOOLEAN NOT NULL DEFAULT 0,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS movies (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
kind TEXT NOT NULL,
notes TEXT NOT NULL DEFAULT '',
watched BOOLEAN NOT NULL DEFAULT 0,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS goals (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
details TEXT NOT NULL DEFAULT '',
progress INTEGER NOT NULL DEFAULT 0,
deadline DATETIME,
completed BOOLEAN NOT NULL DEFAULT 0,
completedat DATETIME,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS dreams (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
details TEXT NOT NULL DEFAULT '',
achieved BOOLEAN NOT NULL DEFAULT 0,
achievedat DATETIME,
created DATETIME);`,

		`CREATE TABLE IF NOT EXISTS memories (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
details TEXT NOT NULL DEFAULT '',
photourl TEXT NOT NULL DEFAULT '',
placeid TEXT NOT NULL DEFAULT '',
happenedat DATETIME,
created DATETIME);`,

		`CREATE INDEX IF NOT EXISTS memories_happenedat_idx ON memories (happenedat);`,

		`CREATE TABLE IF NOT EXISTS dismissals (
id TEXT NOT NULL PRIMARY KEY,
version INTEGER NOT NULL,
kind TEXT NOT NULL,
status TEXT NOT NULL,
snoozeuntil DATETIME,
updated DATETIME);`,

		// single row table, the player session is shared
		`CREATE TABLE IF NOT EXISTS playerstate (
id INTEGER PRIMARY KEY CHECK (id = 1),
trackid TEXT NOT NULL DEFAULT '',
position REAL NOT NULL DEFAULT 0,
volume REAL NOT NULL DEFAULT 1,
shuffle BOOLEAN NOT NULL DEFAULT 0,
repeat BOOLEAN NOT NULL DEFAULT 0,
timestamp DATETIME);`,
	}

	for _, query := range schema {
		if _, err = tx.Exec(query); err != nil {
			log.Printf("dbInitSchema error: %s\n", err)
			return tx.Rollback()
		}
	}

	return tx.Commit()
}
