// Package login drives a real browser through the platform's Azure
// B2C login flow. The data endpoints only honor cookies minted by the
// interactive flow, a plain http client never gets past it.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"clubreport-backend/lib/scrapers/basecamp"

	"github.com/antzucaro/matchr"
	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/basecamp/login")

var (
	ErrInvalidCredentials  = errors.New("the platform rejected the credentials")
	ErrNoOfficerAccess     = errors.New("the account has no officer access to the requested club")
	ErrPlatformUnavailable = errors.New("the platform is unreachable or the login flow has changed")
)

// clubs are matched by name, not id, so tolerate small differences in
// spacing and punctuation but nothing that could hit another club
const minClubSimilarity = 0.85

type Credentials struct {
	Email    string
	Password string
	ClubName string
}

type Options struct {
	LoginUrl     string
	DashboardUrl string
	// base url for the data api, used to resolve the club id
	BaseUrl  string
	Headless bool
}

// Result carries everything a data session needs.
type Result struct {
	Cookies   []*http.Cookie
	UserAgent string
	UserID    string
	ClubID    string
}

type Authenticator struct {
	opts Options
}

func NewAuthenticator(opts Options) *Authenticator {
	return &Authenticator{opts: opts}
}

// Login performs the full interactive flow and resolves the club id
// the account is an officer of.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (Result, error) {
	ctx, span := tracer.Start(ctx, "authenticator:Login")
	defer span.End()

	result, err := a.loginBrowser(ctx, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "browser login failed")
		return Result{}, err
	}

	clubID, err := a.resolveClub(ctx, result, creds.ClubName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "club resolution failed")
		return Result{}, err
	}
	result.ClubID = clubID

	slog.InfoContext(ctx, "logged into platform",
		"user_id", result.UserID, "club_id", clubID)
	return result, nil
}

func (a *Authenticator) loginBrowser(ctx context.Context, creds Credentials) (Result, error) {
	pw, err := playwright.Run()
	if err != nil {
		return Result{}, fmt.Errorf("%w: start playwright: %s", ErrPlatformUnavailable, err)
	}
	defer pw.Stop()

	browser, err := pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(a.opts.Headless),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: launch browser: %s", ErrPlatformUnavailable, err)
	}
	defer browser.Close()

	browserCtx, err := browser.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("%w: new browser context: %s", ErrPlatformUnavailable, err)
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		return Result{}, fmt.Errorf("%w: new page: %s", ErrPlatformUnavailable, err)
	}

	_, err = page.Goto(a.opts.LoginUrl, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: open login page: %s", ErrPlatformUnavailable, err)
	}

	err = page.Locator("input[id=signInName]").Fill(creds.Email)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fill email: %s", ErrPlatformUnavailable, err)
	}
	err = page.Locator("input[id=password]").Fill(creds.Password)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fill password: %s", ErrPlatformUnavailable, err)
	}
	err = page.Locator(`button:has-text("Log in")`).Click()
	if err != nil {
		return Result{}, fmt.Errorf("%w: submit login: %s", ErrPlatformUnavailable, err)
	}

	err = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(30000),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: wait for login: %s", ErrPlatformUnavailable, err)
	}

	// on bad credentials the flow stays on the login form and shows an
	// inline error instead of navigating away
	visible, err := page.Locator(".error.pageLevel, .error.itemLevel").First().IsVisible()
	if err == nil && visible {
		return Result{}, ErrInvalidCredentials
	}

	_, err = page.Goto(a.opts.DashboardUrl, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: open dashboard: %s", ErrPlatformUnavailable, err)
	}

	rawAgent, err := page.Evaluate("() => navigator.userAgent")
	if err != nil {
		return Result{}, fmt.Errorf("%w: read user agent: %s", ErrPlatformUnavailable, err)
	}
	userAgent, _ := rawAgent.(string)

	cookies, err := browserCtx.Cookies()
	if err != nil {
		return Result{}, fmt.Errorf("%w: read cookies: %s", ErrPlatformUnavailable, err)
	}

	result := Result{UserAgent: userAgent}
	for _, cookie := range cookies {
		result.Cookies = append(result.Cookies, &http.Cookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: cookie.Domain,
			Path:   cookie.Path,
		})
		if strings.Contains(cookie.Name, "CEContactId") {
			result.UserID = cookie.Value
		}
	}
	if result.UserID == "" {
		return Result{}, fmt.Errorf("%w: no contact id cookie after login", ErrInvalidCredentials)
	}
	return result, nil
}

// resolveClub looks the club up in the account's profile. Only clubs
// the account holds an officer role in appear there.
func (a *Authenticator) resolveClub(ctx context.Context, result Result, clubName string) (string, error) {
	client := basecamp.NewClient(
		basecamp.ClientOptions{BaseUrl: a.opts.BaseUrl},
		staticSession{session: basecamp.Session{
			Cookies:   result.Cookies,
			UserAgent: result.UserAgent,
		}},
	)

	profile, err := client.Profile(ctx, result.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: fetch profile: %s", ErrPlatformUnavailable, err)
	}

	bestID := ""
	bestSimilarity := 0.0
	for _, club := range profile.Clubs {
		similarity := matchr.JaroWinkler(
			strings.ToLower(club.Name), strings.ToLower(clubName), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestID = club.Uuid
		}
	}
	if bestSimilarity < minClubSimilarity {
		slog.WarnContext(ctx, "no club matched",
			"requested", clubName, "best_similarity", bestSimilarity)
		return "", ErrNoOfficerAccess
	}
	return bestID, nil
}

// staticSession serves the freshly minted login cookies. A rejection
// here means the login itself went wrong, nothing to refresh.
type staticSession struct {
	session basecamp.Session
}

func (s staticSession) Session(ctx context.Context) (basecamp.Session, error) {
	return s.session, nil
}

func (s staticSession) InvalidateSession(ctx context.Context) error {
	return errors.New("session was just created, refusing to refresh it")
}

var _ basecamp.SessionSource = staticSession{}

// keep playwright's browsers installed before first use
func EnsureBrowsers() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"firefox"},
		Verbose:  false,
	})
}
