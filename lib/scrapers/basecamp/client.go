package basecamp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clubreport-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/basecamp")

// Resource names one of the platform's data endpoints. The exact
// paths are an external contract, callers only ever see the name.
type Resource string

const (
	ResourceOverview       Resource = "overview"
	ResourceProgress       Resource = "progress"
	ResourceProgressDetail Resource = "progress_detail"
	ResourceProfile        Resource = "profile"
)

var endpoints = map[Resource]string{
	ResourceOverview:       "/api/bcm/member/overview/?club={club}&page={page}",
	ResourceProgress:       "/api/bcm/progress/?club={club}&page={page}",
	ResourceProgressDetail: "/api/bcm/progress/{course}/detail?user={user}",
	ResourceProfile:        "/api/ti/profile/{user}/about/",
}

type ErrorKind int

const (
	// timeouts, connection resets, 5xx. retried internally before
	// being surfaced.
	KindTransient ErrorKind = iota
	// the platform rejected the session even though it looked valid
	// locally. surfaced only after one refresh-and-retry cycle failed.
	KindUnauthorized
	// any other 4xx, never retried.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindUnauthorized:
		return "unauthorized"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

type RequestError struct {
	Kind       ErrorKind
	Resource   Resource
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s request failed (%s)", e.Resource, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Session is the client's view of an authenticated platform session.
type Session struct {
	Cookies   []*http.Cookie
	UserAgent string
	UserID    string
	ClubID    string
}

// SessionSource owns the session lifecycle. The client never creates
// or stores sessions itself, it only asks for a current one and
// reports back when the platform stopped accepting it.
type SessionSource interface {
	Session(ctx context.Context) (Session, error)
	InvalidateSession(ctx context.Context) error
}

type Client struct {
	http     *resty.Client
	sessions SessionSource
	limiter  *rate.Limiter

	maxAttempts    int
	backoffInitial time.Duration
}

type ClientOptions struct {
	BaseUrl string
	// attempts per request on transient failures, default 3
	MaxAttempts int
	// first backoff interval, default 500ms
	BackoffInitial time.Duration
	// shared request cap across all goroutines, default 4/s
	RequestsPerSecond float64
}

func NewClient(opts ClientOptions, sessions SessionSource) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = 500 * time.Millisecond
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 4
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("accept", "application/json, text/plain, */*")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetHeader("x-requested-with", "XMLHttpRequest")
	client.SetHeader("referer", strings.TrimSuffix(opts.BaseUrl, "/")+"/dashboard/")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/basecamp/http")

	return &Client{
		http:           client,
		sessions:       sessions,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		maxAttempts:    opts.MaxAttempts,
		backoffInitial: opts.BackoffInitial,
	}
}

func expandEndpoint(resource Resource, params map[string]string) (string, error) {
	template, ok := endpoints[resource]
	if !ok {
		return "", fmt.Errorf("unknown resource: %s", resource)
	}
	link := template
	for key, value := range params {
		link = strings.ReplaceAll(link, "{"+key+"}", value)
	}
	if strings.Contains(link, "{") {
		return "", fmt.Errorf("missing params for resource %s: %s", resource, link)
	}
	return link, nil
}

// Fetch requests a single resource payload. Transient failures are
// retried with backoff, an unauthorized response triggers exactly one
// session refresh before failing the request for good.
func (c *Client) Fetch(ctx context.Context, resource Resource, params map[string]string) (json.RawMessage, error) {
	link, err := expandEndpoint(resource, params)
	if err != nil {
		return nil, err
	}
	return c.fetchLink(ctx, resource, link)
}

func (c *Client) fetchLink(ctx context.Context, resource Resource, link string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "client:fetchLink")
	defer span.End()

	body, err := c.fetchWithSession(ctx, resource, link)

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Kind == KindUnauthorized {
		span.AddEvent("session rejected by platform, refreshing once")

		err = c.sessions.InvalidateSession(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to invalidate session")
			return nil, err
		}
		body, err = c.fetchWithSession(ctx, resource, link)
		if errors.As(err, &reqErr) && reqErr.Kind == KindUnauthorized {
			span.SetStatus(codes.Error, "fresh session rejected as well")
			return nil, err
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	return body, nil
}

func (c *Client) fetchWithSession(ctx context.Context, resource Resource, link string) (json.RawMessage, error) {
	sess, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = c.backoffInitial
	exponential.MaxElapsedTime = 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(exponential, uint64(c.maxAttempts-1)),
		ctx,
	)

	return backoff.RetryWithData(func() (json.RawMessage, error) {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		res, err := c.http.R().
			SetContext(ctx).
			SetCookies(sess.Cookies).
			SetHeader("user-agent", sess.UserAgent).
			Get(link)
		if err != nil {
			return nil, &RequestError{Kind: KindTransient, Resource: resource, Err: err}
		}

		status := res.StatusCode()
		switch {
		case status == http.StatusOK:
			return res.Body(), nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, backoff.Permanent(error(&RequestError{
				Kind:       KindUnauthorized,
				Resource:   resource,
				StatusCode: status,
			}))
		case status >= 500:
			return nil, &RequestError{
				Kind:       KindTransient,
				Resource:   resource,
				StatusCode: status,
			}
		default:
			return nil, backoff.Permanent(error(&RequestError{
				Kind:       KindRejected,
				Resource:   resource,
				StatusCode: status,
			}))
		}
	}, policy)
}

type paginatedPage struct {
	Next    string            `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// the platform shouldn't ever report more pages than this, bail out
// if it does rather than looping forever
const maxPages = 20

// FetchPaginated follows the payload's `next` links and returns the
// concatenated result records of every page.
func (c *Client) FetchPaginated(ctx context.Context, resource Resource, params map[string]string) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPaginated")
	defer span.End()

	withPage := make(map[string]string, len(params)+1)
	for k, v := range params {
		withPage[k] = v
	}
	withPage["page"] = "1"

	link, err := expandEndpoint(resource, withPage)
	if err != nil {
		return nil, err
	}

	var results []json.RawMessage
	for page := 1; page <= maxPages; page++ {
		body, err := c.fetchLink(ctx, resource, link)
		if err != nil {
			return nil, err
		}

		var decoded paginatedPage
		err = json.Unmarshal(body, &decoded)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode page")
			return nil, fmt.Errorf("decode %s page %d: %w", resource, page, err)
		}
		results = append(results, decoded.Results...)

		if decoded.Next == "" || len(decoded.Results) == 0 {
			break
		}
		link = decoded.Next
	}

	return results, nil
}
