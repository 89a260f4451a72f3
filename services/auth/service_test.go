package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"clubreport-backend/lib/scrapers/basecamp/login"
	"clubreport-backend/lib/testutil"
	"clubreport-backend/services/session"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeAuthenticator struct {
	mu     sync.Mutex
	logins int
	result login.Result
	err    error
}

func (f *fakeAuthenticator) Login(ctx context.Context, creds login.Credentials) (login.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.err != nil {
		return login.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeAuthenticator) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func setupManager(t *testing.T, authenticator *fakeAuthenticator) (*Manager, session.Store) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/auth",
		DbSchema: session.Schema,
	})
	t.Cleanup(cleanup)

	store := session.NewStore(result.DB)
	manager := NewManager(store, authenticator, login.Credentials{
		Email:    "officer@example.org",
		Password: "hunter2",
		ClubName: "Example Club",
	})
	return manager, store
}

func TestGetSessionReusesValidSession(t *testing.T) {
	authenticator := &fakeAuthenticator{}
	manager, store := setupManager(t, authenticator)
	ctx := context.Background()

	stored := session.Session{
		Token:    session.Token{UserID: "u-1", ClubID: "club-1"},
		IssuedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, stored))

	sess, err := manager.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", sess.Token.UserID)
	require.Equal(t, 0, authenticator.loginCount())
}

func TestGetSessionLogsInWhenExpired(t *testing.T) {
	authenticator := &fakeAuthenticator{
		result: login.Result{
			Cookies:   []*http.Cookie{{Name: "sid", Value: "new"}},
			UserAgent: "ua",
			UserID:    "u-2",
			ClubID:    "club-2",
		},
	}
	manager, store := setupManager(t, authenticator)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session.Session{
		Token:    session.Token{UserID: "u-old"},
		IssuedAt: time.Now().Add(-time.Hour * 9),
	}))

	sess, err := manager.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-2", sess.Token.UserID)
	require.Equal(t, 1, authenticator.loginCount())

	// and the fresh session was persisted
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-2", loaded.Token.UserID)
}

func TestGetSessionSurfacesCredentialErrors(t *testing.T) {
	authenticator := &fakeAuthenticator{err: login.ErrInvalidCredentials}
	manager, _ := setupManager(t, authenticator)

	_, err := manager.GetSession(context.Background())

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, KindInvalidCredentials, authErr.Kind)
	require.ErrorIs(t, err, login.ErrInvalidCredentials)
	require.Equal(t, 1, authenticator.loginCount())
}

func TestGetSessionClassifiesUnknownErrorsAsUnavailable(t *testing.T) {
	authenticator := &fakeAuthenticator{err: context.DeadlineExceeded}
	manager, _ := setupManager(t, authenticator)

	_, err := manager.GetSession(context.Background())

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, KindPlatformUnavailable, authErr.Kind)
}

func TestConcurrentGetSessionLogsInOnce(t *testing.T) {
	authenticator := &fakeAuthenticator{
		result: login.Result{UserID: "u-3", ClubID: "club-3"},
	}
	manager, _ := setupManager(t, authenticator)

	var group errgroup.Group
	for i := 0; i < 8; i++ {
		group.Go(func() error {
			_, err := manager.GetSession(context.Background())
			return err
		})
	}
	require.NoError(t, group.Wait())
	require.Equal(t, 1, authenticator.loginCount())
}

func TestInvalidateDropsStoredSession(t *testing.T) {
	authenticator := &fakeAuthenticator{}
	manager, store := setupManager(t, authenticator)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session.Session{
		Token:    session.Token{UserID: "u-1"},
		IssuedAt: time.Now(),
	}))
	require.NoError(t, manager.Invalidate(ctx))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
}
