// Package progresstore keeps a history of the pathway level each
// member was observed at, one snapshot per collection run. The
// platform only exposes current state, so regressions can only be
// caught by comparing against the previous run.
package progresstore

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"clubreport-backend/lib/progresstore/db"
	"clubreport-backend/lib/timezone"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type LevelSnapshot struct {
	Member  string
	Pathway string
	Level   int
}

type PushRequest struct {
	Time   time.Time
	Levels []LevelSnapshot
}

// Push records the levels observed during one run. Snapshots already
// recorded for the same members on the same day are replaced, so
// re-running the collector doesn't pile up duplicates.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	startOfToday := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day(), 0, 0, 0, 0, timezone.Location).Unix()
	startOfTommorow := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day()+1, 0, 0, 0, 0, timezone.Location).Unix()

	members := make([]string, len(req.Levels))
	for i, v := range req.Levels {
		members[i] = v.Member
	}
	err = txqry.DeleteLevelSnapshotsIn(ctx, db.DeleteLevelSnapshotsInParams{
		After:   startOfToday,
		Before:  startOfTommorow,
		Members: members,
	})
	if err != nil {
		return err
	}

	for _, snapshot := range req.Levels {
		err := txqry.CreateLevelSnapshot(ctx, db.CreateLevelSnapshotParams{
			Member:  snapshot.Member,
			Pathway: snapshot.Pathway,
			Level:   int64(snapshot.Level),
			Time:    req.Time.Unix(),
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

type Key struct {
	Member  string
	Pathway string
}

// LatestLevels returns the most recent observed level per member and
// pathway. Call it before Push to compare against the previous run.
func (s Store) LatestLevels(ctx context.Context) (map[Key]int, error) {
	rows, err := s.qry.GetLatestLevels(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[Key]int, len(rows))
	for _, r := range rows {
		latest[Key{Member: r.Member, Pathway: r.Pathway}] = int(r.Level)
	}
	return latest, nil
}
