// Package auth decides when a stored session can be reused and when a
// fresh interactive login is needed, and makes sure concurrent callers
// never trigger more than one login at a time.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"clubreport-backend/lib/scrapers/basecamp"
	"clubreport-backend/lib/scrapers/basecamp/login"
	"clubreport-backend/lib/timezone"
	"clubreport-backend/services/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/auth")

type Kind int

const (
	KindInvalidCredentials Kind = iota
	KindInsufficientPrivilege
	KindPlatformUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindInsufficientPrivilege:
		return "insufficient privilege"
	case KindPlatformUnavailable:
		return "platform unavailable"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("authentication failed (%s): %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Authenticator performs the interactive login flow.
type Authenticator interface {
	Login(ctx context.Context, creds login.Credentials) (login.Result, error)
}

type Manager struct {
	store         session.Store
	authenticator Authenticator
	creds         login.Credentials

	// guards the load-check-login sequence so parallel callers share
	// one login instead of racing the platform
	mu    sync.Mutex
	clock func() time.Time
}

func NewManager(store session.Store, authenticator Authenticator, creds login.Credentials) *Manager {
	return &Manager{
		store:         store,
		authenticator: authenticator,
		creds:         creds,
		clock:         timezone.Now,
	}
}

// GetSession returns a session that was valid at the time of the
// call, logging in first if the stored one is missing or expired.
func (m *Manager) GetSession(ctx context.Context) (session.Session, error) {
	ctx, span := tracer.Start(ctx, "manager:GetSession")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()

	sess, err := m.store.Load(ctx)
	if err == nil && session.IsValid(sess, now) {
		span.SetStatus(codes.Ok, "REUSED STORED SESSION")
		return sess, nil
	}
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load stored session")
		return session.Session{}, err
	}
	if err == nil {
		slog.InfoContext(ctx, "stored session expired",
			"issued_at", sess.IssuedAt, "ttl", session.TTL)
	}

	result, err := m.authenticator.Login(ctx, m.creds)
	if err != nil {
		authErr := classify(err)
		span.RecordError(authErr)
		span.SetStatus(codes.Error, "login failed")
		return session.Session{}, authErr
	}

	sess = session.Session{
		Token:    tokenFromLogin(result),
		IssuedAt: now,
	}
	err = m.store.Save(ctx, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist session")
		return session.Session{}, err
	}

	slog.InfoContext(ctx, "established new session", "club_id", sess.Token.ClubID)
	return sess, nil
}

func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Invalidate(ctx)
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, login.ErrInvalidCredentials):
		return &Error{Kind: KindInvalidCredentials, Err: err}
	case errors.Is(err, login.ErrNoOfficerAccess):
		return &Error{Kind: KindInsufficientPrivilege, Err: err}
	default:
		return &Error{Kind: KindPlatformUnavailable, Err: err}
	}
}

func tokenFromLogin(result login.Result) session.Token {
	token := session.Token{
		UserAgent: result.UserAgent,
		UserID:    result.UserID,
		ClubID:    result.ClubID,
	}
	for _, cookie := range result.Cookies {
		token.Cookies = append(token.Cookies, session.Cookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: cookie.Domain,
			Path:   cookie.Path,
		})
	}
	return token
}

// Session implements basecamp.SessionSource on top of GetSession.
func (m *Manager) Session(ctx context.Context) (basecamp.Session, error) {
	sess, err := m.GetSession(ctx)
	if err != nil {
		return basecamp.Session{}, err
	}

	clientSession := basecamp.Session{
		UserAgent: sess.Token.UserAgent,
		UserID:    sess.Token.UserID,
		ClubID:    sess.Token.ClubID,
	}
	for _, cookie := range sess.Token.Cookies {
		clientSession.Cookies = append(clientSession.Cookies, &http.Cookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: cookie.Domain,
			Path:   cookie.Path,
		})
	}
	return clientSession, nil
}

func (m *Manager) InvalidateSession(ctx context.Context) error {
	return m.Invalidate(ctx)
}

var _ basecamp.SessionSource = (*Manager)(nil)
