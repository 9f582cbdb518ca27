package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	random "github.com/mazen160/go-random"
)

const SessionCookie = "session"

type CtfdParams struct {
	Username string
	Password string
	// OmitNonce renders forms without their nonce input.
	OmitNonce bool
}

// CtfdServer imitates the parts of a CTFd instance this client talks to: a
// login form guarded by a nonce, a page behind the login and the admin
// statistics page.
type CtfdServer struct {
	*httptest.Server

	params CtfdParams

	mutex         sync.Mutex
	nonce         string
	authenticated map[string]bool
	posts         int
}

func NewCtfdServer(t testing.TB, params CtfdParams) *CtfdServer {
	s := &CtfdServer{
		params:        params,
		authenticated: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/challenges", s.requireSession(func(w http.ResponseWriter, r *http.Request) {
		writeHtml(w, http.StatusOK, challengesPage)
	}))
	mux.HandleFunc("/admin/statistics", s.requireSession(func(w http.ResponseWriter, r *http.Request) {
		writeHtml(w, http.StatusOK, StatisticsPage)
	}))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Posts returns the amount of form submissions the server has received.
func (s *CtfdServer) Posts() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.posts
}

// IsAuthenticated reports whether a session cookie value belongs to a
// logged in session.
func (s *CtfdServer) IsAuthenticated(session string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.authenticated[session]
}

func mustRandom(n int) string {
	value, err := random.String(n)
	if err != nil {
		panic(err)
	}
	return value
}

func writeHtml(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (s *CtfdServer) session(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return cookie.Value
	}
	value := mustRandom(24)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: value, Path: "/", HttpOnly: true})
	return value
}

func (s *CtfdServer) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || !s.IsAuthenticated(cookie.Value) {
			http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *CtfdServer) renderLogin(w http.ResponseWriter, alert string) {
	s.mutex.Lock()
	s.nonce = mustRandom(64)
	nonce := s.nonce
	s.mutex.Unlock()

	nonceInput := `<input id="nonce" name="nonce" type="hidden" value="` + nonce + `">`
	if s.params.OmitNonce {
		nonceInput = ""
	}
	page := strings.NewReplacer(
		"{{alert}}", alert,
		"{{nonce}}", nonceInput,
	).Replace(loginPage)
	writeHtml(w, http.StatusOK, page)
}

func (s *CtfdServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)

	switch r.Method {
	case http.MethodGet:
		s.renderLogin(w, "")
	case http.MethodPost:
		err := r.ParseForm()
		if err != nil {
			writeHtml(w, http.StatusBadRequest, "bad form")
			return
		}

		s.mutex.Lock()
		s.posts++
		validNonce := s.nonce != "" && r.PostForm.Get("nonce") == s.nonce
		s.nonce = ""
		s.mutex.Unlock()

		if !validNonce {
			writeHtml(w, http.StatusForbidden, forbiddenPage)
			return
		}
		if r.PostForm.Get("name") != s.params.Username ||
			r.PostForm.Get("password") != s.params.Password {
			s.renderLogin(w, IncorrectCredentialsAlert)
			return
		}

		s.mutex.Lock()
		delete(s.authenticated, session)
		authed := mustRandom(24)
		s.authenticated[authed] = true
		s.mutex.Unlock()

		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: authed, Path: "/", HttpOnly: true})
		http.Redirect(w, r, "/challenges", http.StatusFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
