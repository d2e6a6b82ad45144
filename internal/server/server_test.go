package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	config "github.com/nabhajit/bhujal/configs"
	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/borewell"
	"github.com/nabhajit/bhujal/internal/db"
	"github.com/nabhajit/bhujal/internal/handlers"
	"github.com/nabhajit/bhujal/internal/metrics"
	"github.com/nabhajit/bhujal/internal/models"
	"github.com/nabhajit/bhujal/internal/notifier"
	"github.com/nabhajit/bhujal/internal/repository"
	"github.com/nabhajit/bhujal/internal/server"
	"github.com/nabhajit/bhujal/internal/session"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	return setupTestRouterWith(t, notifier.Multi{})
}

func setupTestRouterWith(t *testing.T, notify notifier.Notifier) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	testDB := db.NewTestDB(t)
	customers := repository.NewCustomerRepository(testDB)
	borewells := repository.NewBorewellRepository(testDB)

	authService := auth.NewService(customers, auth.NewBcryptHasher(bcrypt.MinCost), log)
	borewellService := borewell.NewService(customers, borewells, log)
	manager := session.NewManager(
		session.NewGormStore(testDB, session.DefaultTTL),
		session.CookieOptions{Name: "bhujal_session", Secret: "test-secret-key", Secure: true},
	)
	m := metrics.New()

	cfg := &config.Config{
		PublicPaths:    "/,/home/,/login/,/signup/",
		ProtectedPaths: "/main/",
		MetricsEnabled: true,
	}
	h := handlers.New(authService, borewellService, manager, notify, m, log)
	return server.New(cfg, h, manager, m, log), testDB
}

type request struct {
	method string
	path   string
	form   url.Values
	cookie string
	accept string
}

func perform(r *gin.Engine, req request) *httptest.ResponseRecorder {
	var body *strings.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	} else {
		body = strings.NewReader("")
	}

	httpReq := httptest.NewRequest(req.method, req.path, body)
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.cookie != "" {
		httpReq.Header.Set("Cookie", req.cookie)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) string {
	return strings.Split(w.Header().Get("Set-Cookie"), ";")[0]
}

func signupForm(email, phone string) url.Values {
	return url.Values{
		"name":             {"Asha Rao"},
		"email":            {email},
		"phone":            {phone},
		"address":          {"12 Lake Road, Mysuru"},
		"password":         {"s3cret-pass"},
		"confirm-password": {"s3cret-pass"},
	}
}

// signup registers a customer and returns the session cookie and dashboard path.
func signup(t *testing.T, r *gin.Engine, email, phone string) (string, string) {
	t.Helper()
	w := perform(r, request{method: http.MethodPost, path: "/signup/", form: signupForm(email, phone)})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	return sessionCookie(w), w.Header().Get("Location")
}

func countCustomers(t *testing.T, testDB *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(&models.Customer{}).Count(&n).Error)
	return n
}

func TestSignup(t *testing.T) {
	t.Run("creates customer and session", func(t *testing.T) {
		r, testDB := setupTestRouter(t)

		cookie, location := signup(t, r, "Asha@Example.com", "+919876543210")
		assert.Equal(t, "/main/1", location)
		assert.NotEmpty(t, cookie)

		var stored models.Customer
		require.NoError(t, testDB.First(&stored).Error)
		assert.Equal(t, "asha@example.com", stored.Email)
		assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)

		w := perform(r, request{method: http.MethodGet, path: location, cookie: cookie})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Asha Rao")
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		r, testDB := setupTestRouter(t)
		signup(t, r, "asha@example.com", "+919876543210")

		w := perform(r, request{method: http.MethodPost, path: "/signup/", form: signupForm("asha@example.com", "+919800000000")})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "email is already registered")
		assert.Empty(t, w.Header().Get("Set-Cookie"))
		assert.EqualValues(t, 1, countCustomers(t, testDB))
	})

	t.Run("duplicate phone is a conflict for API callers", func(t *testing.T) {
		r, _ := setupTestRouter(t)
		signup(t, r, "asha@example.com", "+919876543210")

		w := perform(r, request{
			method: http.MethodPost,
			path:   "/signup/",
			form:   signupForm("ravi@example.com", "+919876543210"),
			accept: "application/json",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"phone number is already registered"}`, w.Body.String())
	})

	t.Run("password mismatch re-renders the form", func(t *testing.T) {
		r, testDB := setupTestRouter(t)
		form := signupForm("asha@example.com", "+919876543210")
		form.Set("confirm-password", "something-else")

		w := perform(r, request{method: http.MethodPost, path: "/signup/", form: form})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "passwords do not match")
		assert.NotContains(t, w.Body.String(), `class="error"`)
		assert.Contains(t, w.Body.String(), `action="/signup/"`)
		assert.Empty(t, w.Header().Get("Set-Cookie"))
		assert.Zero(t, countCustomers(t, testDB))

		w = perform(r, request{method: http.MethodPost, path: "/signup/", form: form, accept: "application/json"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"passwords do not match"}`, w.Body.String())
	})

	t.Run("invalid phone is rejected", func(t *testing.T) {
		r, testDB := setupTestRouter(t)

		w := perform(r, request{method: http.MethodPost, path: "/signup/", form: signupForm("asha@example.com", "98765")})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, countCustomers(t, testDB))
	})
}

func TestLogin(t *testing.T) {
	r, _ := setupTestRouter(t)
	signup(t, r, "asha@example.com", "+919876543210")

	t.Run("correct credentials start a session", func(t *testing.T) {
		w := perform(r, request{method: http.MethodPost, path: "/login/", form: url.Values{
			"email":    {"ASHA@example.com"},
			"password": {"s3cret-pass"},
		}})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/main/1", w.Header().Get("Location"))

		w = perform(r, request{method: http.MethodGet, path: "/main/1", cookie: sessionCookie(w)})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password does not", func(t *testing.T) {
		w := perform(r, request{method: http.MethodPost, path: "/login/", form: url.Values{
			"email":    {"asha@example.com"},
			"password": {"wrong"},
		}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login/", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})

	t.Run("unknown email goes to signup", func(t *testing.T) {
		w := perform(r, request{method: http.MethodPost, path: "/login/", form: url.Values{
			"email":    {"nobody@example.com"},
			"password": {"s3cret-pass"},
		}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/signup/", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})
}

func TestMainPageRequiresSession(t *testing.T) {
	r, _ := setupTestRouter(t)
	signup(t, r, "asha@example.com", "+919876543210")

	w := perform(r, request{method: http.MethodGet, path: "/main/1"})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))

	w = perform(r, request{method: http.MethodGet, path: "/main/1", accept: "application/json"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMainPageRedirectsToOwnDashboard(t *testing.T) {
	r, _ := setupTestRouter(t)
	signup(t, r, "asha@example.com", "+919876543210")
	cookie, location := signup(t, r, "ravi@example.com", "+919800000000")
	require.Equal(t, "/main/2", location)

	w := perform(r, request{method: http.MethodGet, path: "/main/1", cookie: cookie})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/main/2", w.Header().Get("Location"))

	w = perform(r, request{method: http.MethodGet, path: "/main/not-a-number", cookie: cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoutInvalidatesOldCookie(t *testing.T) {
	r, _ := setupTestRouter(t)
	cookie, location := signup(t, r, "asha@example.com", "+919876543210")

	w := perform(r, request{method: http.MethodGet, path: "/logout/", cookie: cookie})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))

	// The pre-logout cookie still carries a valid signature but no live session.
	w = perform(r, request{method: http.MethodGet, path: location, cookie: cookie})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))
}

func registerForm(cid string) url.Values {
	return url.Values{
		"cid":               {cid},
		"latitude":          {"12.2958"},
		"longitude":         {"76.6394"},
		"well-type":         {"dug-well"},
		"dug-well":          {"shallow"},
		"wall-type":         {"stone"},
		"drilled-well":      {"ignored"},
		"supply-system":     {"ignored"},
		"exact-depth":       {""},
		"motor-operated":    {"on"},
		"authorities-aware": {""},
		"description":       {"Near the temple"},
	}
}

func TestRegisterBorewell(t *testing.T) {
	t.Run("returns confirmation and normalizes fields", func(t *testing.T) {
		r, testDB := setupTestRouter(t)
		signup(t, r, "asha@example.com", "+919876543210")

		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: registerForm("1")})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"borewell":{
			"latitude":"12.2958",
			"longitude":"76.6394",
			"name":"Asha Rao",
			"phone_number":"+919876543210"
		}}`, w.Body.String())

		var stored models.Borewell
		require.NoError(t, testDB.First(&stored).Error)
		assert.Equal(t, "shallow", stored.DepthType)
		assert.Equal(t, "stone", stored.WallType)
		assert.Empty(t, stored.SupplySystem)
		assert.Zero(t, stored.ExactDepth)
		assert.True(t, stored.MotorOperated)
		assert.False(t, stored.AuthoritiesAware)
		require.NotNil(t, stored.CustomerID)
		assert.EqualValues(t, 1, *stored.CustomerID)
	})

	t.Run("exact depth round-trips", func(t *testing.T) {
		r, testDB := setupTestRouter(t)
		signup(t, r, "asha@example.com", "+919876543210")

		form := registerForm("1")
		form.Set("well-type", "drilled-well")
		form.Set("exact-depth", "42")
		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: form})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var stored models.Borewell
		require.NoError(t, testDB.First(&stored).Error)
		assert.Equal(t, 42, stored.ExactDepth)
		assert.Equal(t, "ignored", stored.SupplySystem)
		assert.Empty(t, stored.WallType)
	})

	t.Run("falls back to the session customer", func(t *testing.T) {
		r, _ := setupTestRouter(t)
		cookie, _ := signup(t, r, "asha@example.com", "+919876543210")

		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: registerForm(""), cookie: cookie})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	cases := []struct {
		name   string
		form   func() url.Values
		status int
		body   string
	}{
		{
			name:   "unknown customer",
			form:   func() url.Values { return registerForm("99") },
			status: http.StatusNotFound,
			body:   `{"error":"customer not found"}`,
		},
		{
			name:   "no cid and no session",
			form:   func() url.Values { return registerForm("") },
			status: http.StatusUnauthorized,
			body:   `{"error":"unauthorized"}`,
		},
		{
			name: "negative depth",
			form: func() url.Values {
				f := registerForm("1")
				f.Set("exact-depth", "-3")
				return f
			},
			status: http.StatusBadRequest,
			body:   `{"error":"exact-depth cannot be negative"}`,
		},
		{
			name: "non-numeric depth",
			form: func() url.Values {
				f := registerForm("1")
				f.Set("exact-depth", "deep")
				return f
			},
			status: http.StatusBadRequest,
			body:   `{"error":"exact-depth must be a whole number"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, testDB := setupTestRouter(t)
			signup(t, r, "asha@example.com", "+919876543210")

			w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: tc.form()})
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())

			var n int64
			require.NoError(t, testDB.Model(&models.Borewell{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

type countingNotifier struct {
	customers atomic.Int32
	borewells atomic.Int32
}

func (n *countingNotifier) CustomerRegistered(context.Context, models.Customer) error {
	n.customers.Add(1)
	return nil
}

func (n *countingNotifier) BorewellRegistered(context.Context, models.Customer, models.Borewell) error {
	n.borewells.Add(1)
	return nil
}

func countBorewells(t *testing.T, testDB *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(&models.Borewell{}).Count(&n).Error)
	return n
}

func TestRegisterBorewellOwnership(t *testing.T) {
	t.Run("signed-in customer cannot register for another", func(t *testing.T) {
		notify := &countingNotifier{}
		r, testDB := setupTestRouterWith(t, notify)
		signup(t, r, "asha@example.com", "+919876543210")
		intruder, _ := signup(t, r, "ravi@example.com", "+919800000000")

		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: registerForm("1"), cookie: intruder})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)
		assert.Zero(t, countBorewells(t, testDB))
		assert.Never(t, func() bool { return notify.borewells.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
	})

	t.Run("signed-in customer registering for themselves is notified", func(t *testing.T) {
		notify := &countingNotifier{}
		r, _ := setupTestRouterWith(t, notify)
		cookie, _ := signup(t, r, "asha@example.com", "+919876543210")

		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: registerForm("1"), cookie: cookie})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Eventually(t, func() bool { return notify.borewells.Load() == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("anonymous registration is stored without notifying", func(t *testing.T) {
		notify := &countingNotifier{}
		r, testDB := setupTestRouterWith(t, notify)
		signup(t, r, "asha@example.com", "+919876543210")

		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: registerForm("1")})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, 1, countBorewells(t, testDB))
		assert.Never(t, func() bool { return notify.borewells.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
	})
}

func TestMainPageListsOwnBorewellsNewestFirst(t *testing.T) {
	r, _ := setupTestRouter(t)
	cookie, location := signup(t, r, "asha@example.com", "+919876543210")
	other, _ := signup(t, r, "ravi@example.com", "+919800000000")

	for _, reg := range []struct {
		latitude, cookie string
	}{
		{"11.1111", cookie},
		{"33.3333", other},
		{"22.2222", cookie},
	} {
		form := registerForm("")
		form.Set("latitude", reg.latitude)
		w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: form, cookie: reg.cookie})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := perform(r, request{method: http.MethodGet, path: location, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.NotContains(t, body, "33.3333")
	newer, older := strings.Index(body, "22.2222"), strings.Index(body, "11.1111")
	require.NotEqual(t, -1, newer)
	require.NotEqual(t, -1, older)
	assert.Less(t, newer, older)
}

func TestWrongMethodIsRejected(t *testing.T) {
	r, _ := setupTestRouter(t)

	for _, req := range []request{
		{method: http.MethodGet, path: "/borewellRegister/"},
		{method: http.MethodPost, path: "/api/get_borewell_owners/"},
		{method: http.MethodDelete, path: "/api/get_borewells/"},
	} {
		w := perform(r, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, req.method+" "+req.path)
		assert.JSONEq(t, `{"error":"Invalid request method"}`, w.Body.String())
	}
}

func TestBorewellQueries(t *testing.T) {
	r, _ := setupTestRouter(t)
	signup(t, r, "asha@example.com", "+919876543210")
	w := perform(r, request{method: http.MethodPost, path: "/borewellRegister/", form: registerForm("1")})
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(r, request{method: http.MethodGet, path: "/api/get_borewells/"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"borewells":[{
		"latitude":"12.2958",
		"longitude":"76.6394",
		"customer_name":"Asha Rao",
		"customer_phone_number":"+919876543210"
	}]}`, w.Body.String())

	w = perform(r, request{method: http.MethodGet, path: "/api/get_borewell_owners/"})
	require.Equal(t, http.StatusOK, w.Code)
	var owners []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owners))
	require.Len(t, owners, 1)
	assert.Equal(t, "asha@example.com", owners[0]["email"])
	assert.Equal(t, "12 Lake Road, Mysuru", owners[0]["address"])
}

func TestAmbientEndpoints(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := perform(r, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = perform(r, request{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bhujal_http_request_duration_seconds")

	w = perform(r, request{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bhujal")
}
