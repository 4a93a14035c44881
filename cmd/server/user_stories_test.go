package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Test_UserStories tests the user stories of the application.
// These are end-to-end tests and won't check the nitty-gritty details or edge cases.
func Test_UserStories(t *testing.T) {
	t.Run("as a recruiter, I want to", testEnv(func(t *testing.T) {
		api := newFakeIdentityAPI(t)

		runAppForTest(t)

		c := newClient(t)

		t.Run("view the sign up form", func(t *testing.T) {
			body, _ := c.mustGetBody(t, "/auth/login?mode=signup", http.StatusOK)

			// Symbolic check for the form. I'm not checking the HTML too much,
			// because I don't want every change to the front-end break these tests.
			symbol := `name="confirmPassword"`
			if !strings.Contains(body, symbol) {
				t.Errorf("did not find\n%s\nin body\n%s", symbol, body)
			}
		})

		t.Run("create an account and land on my dashboard", func(t *testing.T) {
			form := url.Values{
				"mode":            {"signup"},
				"name":            {"Rec Ruiter"},
				"email":           {"recruiter@example.com"},
				"password":        {"letMeIn1"},
				"confirmPassword": {"letMeIn1"},
				"role":            {"recruiter"},
			}

			body, path := c.mustPostForm(t, "/auth/login", form, http.StatusOK)

			if path != "/dashboard/recruiter" {
				t.Errorf("expected to end up on recruiter dashboard, got %s", path)
			}

			if !strings.Contains(body, "Account created successfully!") {
				t.Errorf("expected account created toast in body\n%s", body)
			}
		})

		t.Run("be sent back to my dashboard from the landing page", func(t *testing.T) {
			_, path := c.mustGetBody(t, "/", http.StatusOK)
			if path != "/dashboard/recruiter" {
				t.Errorf("expected redirect to recruiter dashboard, got %s", path)
			}
		})

		t.Run("sign out again", func(t *testing.T) {
			body, path := c.mustPostForm(t, "/auth/logout", url.Values{}, http.StatusOK)

			if path != "/" {
				t.Errorf("expected to end up on landing page, got %s", path)
			}

			if !strings.Contains(body, "Signed out") {
				t.Errorf("expected signed out toast in body\n%s", body)
			}
		})

		t.Run("sign in with the account I created", func(t *testing.T) {
			form := url.Values{
				"mode":     {"signin"},
				"email":    {"recruiter@example.com"},
				"password": {"letMeIn1"},
			}

			body, path := c.mustPostForm(t, "/auth/login", form, http.StatusOK)

			if path != "/dashboard/recruiter" {
				t.Errorf("expected to end up on recruiter dashboard, got %s", path)
			}

			if !strings.Contains(body, "Welcome back!") {
				t.Errorf("expected welcome back toast in body\n%s", body)
			}
		})

		if got := api.signUps(); got != 1 {
			t.Errorf("expected 1 sign up at the identity API, got %d", got)
		}
	}))

	t.Run("as a student, I want to", testEnv(func(t *testing.T) {
		newFakeIdentityAPI(t)

		runAppForTest(t)

		c := newClient(t)

		t.Run("see my mistake when I mistype my password twice", func(t *testing.T) {
			form := url.Values{
				"mode":            {"signup"},
				"name":            {"Stu Dent"},
				"email":           {"student@example.com"},
				"password":        {"letMeIn1"},
				"confirmPassword": {"letMeIn2"},
				"role":            {"student"},
			}

			body, _ := c.mustPostForm(t, "/auth/login", form, http.StatusOK)

			if !strings.Contains(body, "Passwords don&#39;t match") {
				t.Errorf("expected password mismatch message in body\n%s", body)
			}
		})

		t.Run("create an account and land on my dashboard", func(t *testing.T) {
			form := url.Values{
				"mode":            {"signup"},
				"name":            {"Stu Dent"},
				"email":           {"student@example.com"},
				"password":        {"letMeIn1"},
				"confirmPassword": {"letMeIn1"},
				"role":            {"student"},
			}

			_, path := c.mustPostForm(t, "/auth/login", form, http.StatusOK)

			if path != "/dashboard/student" {
				t.Errorf("expected to end up on student dashboard, got %s", path)
			}
		})

		t.Run("view my interview history", func(t *testing.T) {
			_, path := c.mustGetBody(t, "/history", http.StatusOK)
			if path != "/history" {
				t.Errorf("expected to stay on history page, got %s", path)
			}
		})
	}))

	t.Run("as an unauthenticated visitor, I want to", testEnv(func(t *testing.T) {
		newFakeIdentityAPI(t)

		runAppForTest(t)

		c := newClient(t)

		t.Run("be told when my credentials are wrong", func(t *testing.T) {
			form := url.Values{
				"mode":     {"signin"},
				"email":    {"nobody@example.com"},
				"password": {"wrongPassword"},
			}

			body, _ := c.mustPostForm(t, "/auth/login", form, http.StatusOK)

			if !strings.Contains(body, "Invalid email or password") {
				t.Errorf("expected invalid credentials toast in body\n%s", body)
			}
		})

		t.Run("be sent to the login page when I open a dashboard", func(t *testing.T) {
			_, path := c.mustGetBody(t, "/dashboard/student", http.StatusOK)
			if path != "/auth/login" {
				t.Errorf("expected redirect to login page, got %s", path)
			}
		})
	}))
}

// runAppForTest runs the app while the test is running.
// This function returns after the app is confirmed to be up and stops
// the app when the test is cleaned up.
func runAppForTest(t *testing.T) *safeBuffer {
	t.Helper()

	// This helper function does two things:
	// 1. Run the app in a goroutine.
	// 2. Wait for the app to be up and running.

	// Both these tasks are done concurrently and share the same context.
	// When this context is cancelled, both tasks will stop.

	buf := newBuffer()

	// we will stop the server after a timeout or when the test is cleaned up.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(func() {
		// stop both tasks if it's still in progress.
		cancel()

		if t.Failed() {
			t.Logf("app output:\n%s", buf.String())
		}
	})

	// Task 1: Run the app.
	go func() {
		code := run(ctx, buf)
		if code != 0 {
			t.Errorf("run exited with code %d", code)
		}

		// stop the other task
		cancel()
	}()

	// Task 2: Wait for the app to be available.
	err := waitForStatusOK(ctx, publicURL)
	if err != nil {
		t.Fatalf("error waiting for status ok: %v", err)
	}

	return buf
}

type client struct {
	http *http.Client
}

func newClient(t *testing.T) *client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &client{
		http: &http.Client{
			Timeout: httpClientTimeout,
			Jar:     jar,
		},
	}
}

// mustGetBody gets the url and returns the body and the path the
// client ended up on after any redirects.
func (c *client) mustGetBody(t *testing.T, url string, wantStatus int) (string, string) {
	t.Helper()

	res, err := c.http.Get(baseURL + url)
	if err != nil {
		t.Fatalf("unexpected error during get request: %v", err)
	}

	defer func() {
		err := res.Body.Close()
		if err != nil {
			t.Fatalf("unexpected error closing response body: %v", err)
		}
	}()

	if res.StatusCode != wantStatus {
		t.Fatalf("unexpected status code: %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("unexpected error reading response body: %v", err)
	}

	return string(data), res.Request.URL.Path
}

// mustPostForm posts the form with a fresh anti-forgery token and
// returns the body and the path the client ended up on after any
// redirects.
func (c *client) mustPostForm(t *testing.T, url string, form url.Values, wantStatus int) (string, string) {
	t.Helper()

	form.Set("csrf_token", c.csrfToken(t))

	res, err := c.http.PostForm(baseURL+url, form)
	if err != nil {
		t.Fatalf("unexpected error during post request: %v", err)
	}

	defer func() {
		err := res.Body.Close()
		if err != nil {
			t.Fatalf("unexpected error closing response body: %v", err)
		}
	}()

	if res.StatusCode != wantStatus {
		t.Fatalf("unexpected status code: %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("unexpected error reading response body: %v", err)
	}

	return string(data), res.Request.URL.Path
}

var csrfTokenPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// csrfToken gets a page and extracts the anti-forgery token from it.
// The login page has the token when signed out, when signed in the
// client is redirected to a dashboard which carries the logout form.
func (c *client) csrfToken(t *testing.T) string {
	t.Helper()

	body, _ := c.mustGetBody(t, "/auth/login", http.StatusOK)

	m := csrfTokenPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no csrf token found in body\n%s", body)
	}

	// The template engine entity-escapes the attribute value (for
	// example "+" becomes "&#43;"), a browser decodes it before
	// submitting the form, so the test has to do the same.
	return html.UnescapeString(m[1])
}

// fakeIdentityAPI fakes the parts of the hosted identity API the app
// talks to. It registers itself as IDENTITY_API_URL for the test.
type fakeIdentityAPI struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
	tokens   map[string]string // access token -> email
	signUpN  int
}

type fakeAccount struct {
	id       string
	password string
	name     string
	role     string
}

func newFakeIdentityAPI(t *testing.T) *fakeIdentityAPI {
	t.Helper()

	f := &fakeIdentityAPI{
		accounts: make(map[string]*fakeAccount),
		tokens:   make(map[string]string),
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	envForTest(t, "IDENTITY_API_URL", srv.URL)

	return f
}

func (f *fakeIdentityAPI) signUps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signUpN
}

func (f *fakeIdentityAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/signup":
		var in struct {
			Email    string            `json:"email"`
			Password string            `json:"password"`
			Data     map[string]string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		acc := &fakeAccount{
			id:       uuid.NewString(),
			password: in.Password,
			name:     in.Data["name"],
			role:     in.Data["role"],
		}
		f.accounts[in.Email] = acc
		f.signUpN++

		f.writeSession(w, in.Email, acc)
	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/token":
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		acc, ok := f.accounts[in.Email]
		if !ok || acc.password != in.Password {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
			return
		}

		f.writeSession(w, in.Email, acc)
	case r.Method == http.MethodGet && r.URL.Path == "/auth/v1/user":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		email, ok := f.tokens[token]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.userJSON(email, f.accounts[email]))
	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeIdentityAPI) writeSession(w http.ResponseWriter, email string, acc *fakeAccount) {
	token := uuid.NewString()
	f.tokens[token] = email

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"user":         f.userJSON(email, acc),
	})
}

func (f *fakeIdentityAPI) userJSON(email string, acc *fakeAccount) map[string]any {
	return map[string]any{
		"id":    acc.id,
		"email": email,
		"user_metadata": map[string]any{
			"name": acc.name,
			"role": acc.role,
		},
	}
}
