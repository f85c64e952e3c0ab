package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipebox/backend/internal/auth"
	"github.com/recipebox/backend/internal/db/memdb"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/ratelimit"
	"github.com/recipebox/backend/internal/service"
	"github.com/recipebox/backend/internal/upload"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPublicURL = "http://cdn.test/upload"

type blobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *blobStore) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *blobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *blobStore) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.objects))
	for k := range b.objects {
		out = append(out, k)
	}
	return out
}

type testServer struct {
	router *gin.Engine
	store  *memdb.Store
	blobs  *blobStore
	auth   *service.AuthService
}

type serverOption func(*RouterDeps)

func withLimiter(l *ratelimit.Limiter) serverOption {
	return func(d *RouterDeps) { d.Limiter = l }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memdb.New()
	blobs := &blobStore{objects: map[string][]byte{}}
	log := logging.Discard()

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	images := upload.NewReconciler(testPublicURL)
	authService := service.NewAuthService(store, auth.NewBcryptHasher(bcrypt.MinCost), tokens, log)

	deps := RouterDeps{
		Auth:       authService,
		Categories: service.NewCategoryService(store, images, log),
		Recipes:    service.NewRecipeService(store, store, store, images, log),
		Uploads:    upload.NewCollector(blobs, 1<<20),
		Images:     images,
		Cookie: CookieConfig{
			Name:     "refreshToken",
			MaxAge:   7 * 24 * 3600,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
		AllowedOrigins: []string{"http://localhost:3000"},
		Log:            log,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testServer{
		router: NewRouter(deps),
		store:  store,
		blobs:  blobs,
		auth:   authService,
	}
}

type envelope struct {
	Success          bool            `json:"success"`
	Data             json.RawMessage `json:"data"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ValidationErrors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"validationErrors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

type request struct {
	method, path string
	body         io.Reader
	contentType  string
	token        string
	cookies      []*http.Cookie
}

func (s *testServer) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	return s.do(request{method: method, path: path, body: reader, contentType: "application/json", token: token})
}

// login registers (when needed) and logs in, returning the access token
// and the refresh cookie.
func (s *testServer) login(t *testing.T, email, password string, role model.Role) (string, *http.Cookie) {
	t.Helper()
	if role == model.RoleAdmin {
		require.NoError(t, s.auth.EnsureAdmin(context.Background(), email, password, "Admin"))
	} else {
		w := s.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "Cook", "email": email, "password": password,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res model.AuthResponse
	decodeData(t, w, &res)
	return res.Token, refreshCookie(w)
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	return nil
}

type filePart struct {
	field, filename, contentType, body string
}

// multipartBody builds a multipart form with plain values and files.
func multipartBody(t *testing.T, values map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func png(field string) filePart {
	return filePart{field: field, filename: field + ".png", contentType: "image/png", body: "\x89PNG fake"}
}
