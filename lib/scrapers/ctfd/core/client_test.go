package core

import (
	"context"
	"ctfd-cli/lib/restyutil"
	"ctfd-cli/lib/telemetry"
	"ctfd-cli/lib/testutil"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, baseUrl string, opts ClientOptions) *Client {
	opts.BaseUrl = baseUrl
	client, err := NewClient(context.Background(), opts)
	require.NoError(t, err)
	return client
}

func TestNewClientInvalidBaseUrl(t *testing.T) {
	for _, baseUrl := range []string{"", "host:8000/", "ftp://host", "/login", "http://"} {
		_, err := NewClient(context.Background(), ClientOptions{BaseUrl: baseUrl})
		require.Error(t, err, baseUrl)
	}
}

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/ctfd/core")
	defer cleanup()

	server := testutil.NewCtfdServer(t, testutil.CtfdParams{
		Username: "admin",
		Password: "password",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	t.Run("correct credentials", func(t *testing.T) {
		client := newTestClient(t, server.URL, ClientOptions{})
		err := client.Login(ctx, "admin", "password")
		require.NoError(t, err)
		require.True(t, server.IsAuthenticated(client.Cookies()[testutil.SessionCookie]))
	})

	t.Run("wrong password", func(t *testing.T) {
		client := newTestClient(t, server.URL, ClientOptions{})
		err := client.Login(ctx, "admin", "wrong")

		var appErr *ApplicationError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, http.StatusOK, appErr.StatusCode)
		require.Equal(t, testutil.IncorrectCredentialsMessage, appErr.Message)
		require.False(t, server.IsAuthenticated(client.Cookies()[testutil.SessionCookie]))
	})

	t.Run("base url with trailing slash", func(t *testing.T) {
		client := newTestClient(t, server.URL+"/", ClientOptions{})
		err := client.Login(ctx, "admin", "password")
		require.NoError(t, err)
	})
}

func TestPostWithoutNonce(t *testing.T) {
	server := testutil.NewCtfdServer(t, testutil.CtfdParams{
		Username:  "admin",
		Password:  "password",
		OmitNonce: true,
	})
	client := newTestClient(t, server.URL, ClientOptions{})

	_, err := client.Post(context.Background(), LoginPath, url.Values{
		"name":     {"admin"},
		"password": {"password"},
	})
	require.ErrorIs(t, err, ErrMissingNonce)
	require.Equal(t, 0, server.Posts())

	err = client.Login(context.Background(), "admin", "password")
	require.ErrorIs(t, err, ErrMissingNonce)
	require.Equal(t, 0, server.Posts())
}

func TestPostInjectsNonce(t *testing.T) {
	var getQuery, postCookie string
	var received url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			getQuery = r.URL.RawQuery
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "anon", Path: "/"})
			w.Write([]byte(`<form><input type="hidden" name="nonce" value="fresh-nonce"></form>`))
			return
		}
		if cookie, err := r.Cookie("session"); err == nil {
			postCookie = cookie.Value
		}
		r.ParseForm()
		received = r.PostForm
		w.Write([]byte(`<p>saved</p>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{})
	form := url.Values{"theme": {"dark"}, "nonce": {"stale"}}
	res, err := client.Post(context.Background(), "settings", form)
	require.NoError(t, err)
	require.NoError(t, client.DetectRequestError(res))

	require.Empty(t, getQuery)
	require.Equal(t, "anon", postCookie)
	diff := cmp.Diff(url.Values{"theme": {"dark"}, "nonce": {"fresh-nonce"}}, received)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "stale", form.Get("nonce"))
}

func TestGetQueryParams(t *testing.T) {
	var path, page string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		page = r.URL.Query().Get("page")
		w.Write([]byte(`<h1>Users</h1>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{})
	res, err := client.Get(context.Background(), "admin/users", url.Values{"page": {"2"}})
	require.NoError(t, err)
	require.Equal(t, "<h1>Users</h1>", res.String())
	require.Equal(t, "/admin/users", path)
	require.Equal(t, "2", page)
}

func TestDetectRequestError(t *testing.T) {
	alert := "<div role=\"alert\">\n<span>Error:</span>\nPermission denied\n</div>"

	testCases := []struct {
		name    string
		status  int
		body    string
		failed  bool
		message string
	}{
		{name: "ok", status: http.StatusOK, body: "<h1>Challenges</h1>"},
		{name: "ok with alert", status: http.StatusOK, body: alert, failed: true, message: "Permission denied"},
		{name: "ok with short alert", status: http.StatusOK, body: `<div role="alert">Saved</div>`},
		{name: "server error", status: http.StatusInternalServerError, body: "<h1>Challenges</h1>", failed: true},
		{name: "forbidden with alert", status: http.StatusForbidden, body: alert, failed: true, message: "Permission denied"},
		{name: "not found empty", status: http.StatusNotFound, body: "", failed: true},
		{name: "created", status: http.StatusCreated, body: "", failed: true},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				w.Write([]byte(test.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, ClientOptions{})
			res, err := client.Get(context.Background(), "page", nil)
			require.NoError(t, err)

			err = client.DetectRequestError(res)
			if !test.failed {
				require.NoError(t, err)
				return
			}
			var appErr *ApplicationError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, test.status, appErr.StatusCode)
			require.Equal(t, test.message, appErr.Message)
		})
	}
}

func TestDetectRequestErrorConfiguredLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<div role=\"alert\">Error\nPermission denied</div>"))
	}))
	defer server.Close()

	defaultClient := newTestClient(t, server.URL, ClientOptions{})
	res, err := defaultClient.Get(context.Background(), "", nil)
	require.NoError(t, err)
	require.NoError(t, defaultClient.DetectRequestError(res))

	client := newTestClient(t, server.URL, ClientOptions{AlertLineIndex: 1})
	res, err = client.Get(context.Background(), "", nil)
	require.NoError(t, err)
	require.EqualError(t, client.DetectRequestError(res), "Permission denied")
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseUrl := server.URL
	server.Close()

	client := newTestClient(t, baseUrl, ClientOptions{Timeout: time.Second * 2})
	_, err := client.Post(context.Background(), LoginPath, url.Values{})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.MethodGet, transportErr.Method)
	require.Equal(t, LoginPath, transportErr.Path)
	require.False(t, errors.Is(err, ErrMissingNonce))
}

func TestSessionExpired(t *testing.T) {
	server := testutil.NewCtfdServer(t, testutil.CtfdParams{Username: "admin", Password: "password"})

	client := newTestClient(t, server.URL, ClientOptions{
		Cookies: map[string]string{testutil.SessionCookie: "stale"},
	})
	res, err := client.Get(context.Background(), "challenges", nil)
	require.NoError(t, err)
	require.True(t, IsLoginPage(res))

	err = client.Login(context.Background(), "admin", "password")
	require.NoError(t, err)
	res, err = client.Get(context.Background(), "challenges", nil)
	require.NoError(t, err)
	require.False(t, IsLoginPage(res))
}

func TestCookiesSeeded(t *testing.T) {
	seed := map[string]string{"session": "abc", "theme": "dark"}
	client := newTestClient(t, "http://127.0.0.1:8000", ClientOptions{Cookies: seed})

	diff := cmp.Diff(seed, client.Cookies())
	if diff != "" {
		t.Fatal(diff)
	}

	empty := newTestClient(t, "http://127.0.0.1:8000", ClientOptions{})
	require.Empty(t, empty.Cookies())
}

func TestRecorder(t *testing.T) {
	server := testutil.NewCtfdServer(t, testutil.CtfdParams{Username: "admin", Password: "hunter2"})
	recorder := restyutil.NewHarRecorder("test")

	client := newTestClient(t, server.URL, ClientOptions{Recorder: recorder})
	require.NoError(t, client.Login(context.Background(), "admin", "hunter2"))

	entries := recorder.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, http.MethodGet, entries[0].Request.Method)
	require.Equal(t, http.MethodPost, entries[1].Request.Method)
	require.NotContains(t, entries[1].Request.Body.Content, "hunter2")
	require.Contains(t, entries[1].Request.Body.Content, "name=admin")
}
