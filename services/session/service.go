// Package session persists the authenticated platform session
// between runs. Interactive logins are slow and the platform throttles
// them, so a session is reused for as long as it can be trusted.
package session

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"clubreport-backend/services/session/db"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// how long the platform is observed to honor a session's cookies
const TTL = time.Hour * 8

var ErrNoSession = errors.New("no stored session")

type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// Token is the credential material captured at login time.
type Token struct {
	Cookies   []Cookie `json:"cookies"`
	UserAgent string   `json:"user_agent"`
	UserID    string   `json:"user_id"`
	ClubID    string   `json:"club_id"`
}

type Session struct {
	Token    Token
	IssuedAt time.Time
}

// IsValid reports whether the session is still within its lifetime at
// the given instant. A session exactly TTL old is already expired.
func IsValid(s Session, now time.Time) bool {
	return now.Before(s.IssuedAt.Add(TTL))
}

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

// Load returns the stored session or ErrNoSession. A record that no
// longer decodes is treated as absent rather than failing the run.
func (s Store) Load(ctx context.Context) (Session, error) {
	row, err := s.qry.GetSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}

	var token Token
	err = json.Unmarshal([]byte(row.Token), &token)
	if err != nil {
		slog.WarnContext(ctx, "stored session does not decode, discarding it", "err", err)
		return Session{}, ErrNoSession
	}

	return Session{
		Token:    token,
		IssuedAt: time.Unix(row.IssuedAt, 0),
	}, nil
}

func (s Store) Save(ctx context.Context, sess Session) error {
	token, err := json.Marshal(sess.Token)
	if err != nil {
		return err
	}
	return s.qry.UpsertSession(ctx, db.UpsertSessionParams{
		Token:    string(token),
		IssuedAt: sess.IssuedAt.Unix(),
	})
}

func (s Store) Invalidate(ctx context.Context) error {
	return s.qry.DeleteSession(ctx)
}
