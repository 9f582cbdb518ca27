package core

import (
	"context"
	"ctfd-cli/lib/restyutil"
	"ctfd-cli/lib/telemetry"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/ctfd/core")

const (
	LoginPath = "login"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = time.Second * 30
)

// Client is a session with a single CTFd instance. Requests are made one at
// a time, the cookie jar carries the session between them.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	jar            http.CookieJar
	alertLineIndex int
}

type ClientOptions struct {
	BaseUrl string
	// Cookies seeds the jar, this is how a persisted session is restored.
	Cookies map[string]string

	UserAgent string
	Timeout   time.Duration
	// AlertLineIndex selects the line of an alert holding the error
	// message, 0 means DefaultAlertLineIndex.
	AlertLineIndex   int
	CloudflareBypass bool
	// Recorder, if set, records every exchange of the session.
	Recorder *restyutil.HarRecorder
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseUrl, err)
	}
	if (baseUrl.Scheme != "http" && baseUrl.Scheme != "https") || baseUrl.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: expected an absolute http(s) address", opts.BaseUrl)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if len(opts.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(opts.Cookies))
		for name, value := range opts.Cookies {
			cookies = append(cookies, &http.Cookie{
				Name:  name,
				Value: value,
				Path:  "/",
			})
		}
		jar.SetCookies(baseUrl, cookies)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	alertLineIndex := opts.AlertLineIndex
	if alertLineIndex <= 0 {
		alertLineIndex = DefaultAlertLineIndex
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseUrl.String(), "/"))
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/ctfd/http")
	restyutil.InstrumentClient(client, opts.Recorder)

	slog.DebugContext(ctx, "created ctfd client", "base_url", baseUrl.String(), "cookies", len(opts.Cookies))

	return &Client{
		BaseUrl:        baseUrl,
		Http:           client,
		jar:            jar,
		alertLineIndex: alertLineIndex,
	}, nil
}

func endpoint(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}

// Get fetches a page of the instance with the session's cookies.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "client:Get")
	defer span.End()
	span.SetAttributes(attribute.String("ctfd.path", path))

	req := c.Http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(endpoint(path))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, &TransportError{Method: http.MethodGet, Path: path, Err: err}
	}
	return res, nil
}

// Post submits a form to a page of the instance. The page is fetched first
// to obtain a fresh nonce, if it has none the form is not submitted.
func (c *Client) Post(ctx context.Context, path string, form url.Values) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "client:Post")
	defer span.End()
	span.SetAttributes(attribute.String("ctfd.path", path))

	res, err := c.Get(ctx, path, nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch form (1)")
		return nil, err
	}
	nonce, err := ExtractCsrfToken(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find nonce")
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	data := url.Values{}
	for k, v := range form {
		data[k] = append([]string(nil), v...)
	}
	data.Set("nonce", nonce)

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormDataFromValues(data).
		Post(endpoint(path))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit form (2)")
		return nil, &TransportError{Method: http.MethodPost, Path: path, Err: err}
	}
	return res, nil
}

// DetectRequestError reports whether a finished request failed. CTFd
// answers most failed logins with 200 and an alert in the page, so the body
// is checked as well as the status code.
func (c *Client) DetectRequestError(res *resty.Response) error {
	if res.StatusCode() != http.StatusOK {
		message, _ := ExtractErrorMessage(res.Body(), c.alertLineIndex)
		return &ApplicationError{StatusCode: res.StatusCode(), Message: message}
	}
	message, err := ExtractErrorMessage(res.Body(), c.alertLineIndex)
	if err != nil {
		return err
	}
	if message != "" {
		return &ApplicationError{StatusCode: res.StatusCode(), Message: message}
	}
	return nil
}

// IsLoginPage reports whether res ended on the login page, which is where
// CTFd redirects requests that need a session the client does not have.
func IsLoginPage(res *resty.Response) bool {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return false
	}
	path := strings.TrimRight(res.RawResponse.Request.URL.Path, "/")
	return strings.HasSuffix(path, "/"+LoginPath)
}

// Login authenticates the session with a username and password.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Post(ctx, LoginPath, url.Values{
		"name":     {username},
		"password": {password},
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}
	err = c.DetectRequestError(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login rejected")
		return err
	}

	slog.DebugContext(ctx, "logged in", "base_url", c.BaseUrl.String(), "user", username)
	return nil
}

// Cookies returns the cookies the jar would send to the base address.
func (c *Client) Cookies() map[string]string {
	out := map[string]string{}
	for _, cookie := range c.jar.Cookies(c.BaseUrl) {
		out[cookie.Name] = cookie.Value
	}
	return out
}
