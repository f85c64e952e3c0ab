package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/recipebox/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_JSON(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Cook", "email": "Jo.Cook@Example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user model.PublicUser
	decodeData(t, w, &user)
	assert.Equal(t, "jocook@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Other", "email": "jocook@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email is already registered", decode(t, w).Error)
}

func TestRegister_AdminRoleNeedsAdminCaller(t *testing.T) {
	s := newTestServer(t)
	adminBody := map[string]string{
		"name": "Boss", "email": "boss@example.com", "password": "password123", "role": "ADMIN",
	}

	w := s.doJSON(http.MethodPost, "/api/v1/auth/register", "", adminBody)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, "Only an admin can register an admin", decode(t, w).Error)

	body, ct := multipartBody(t, adminBody, png("avatar"))
	w = s.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: body, contentType: ct})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, s.blobs.keys())

	w = s.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "boss@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	userToken, _ := s.login(t, "cook@example.com", "password123", model.RoleUser)
	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", userToken, adminBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", "garbage", adminBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	adminToken, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", adminToken, adminBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.PublicUser
	decodeData(t, w, &created)
	assert.Equal(t, model.RoleAdmin, created.Role)

	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Helper", "email": "helper@example.com", "password": "password123", "role": "USER",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "nope", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation Error", env.Error)
	fields := map[string]string{}
	for _, f := range env.ValidationErrors {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "name is required", fields["name"])
	assert.Equal(t, "Please provide a valid email", fields["email"])
	assert.Equal(t, "password must be at least 8 characters long", fields["password"])
}

func TestRegister_MultipartWithAvatar(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{
		"name": "Cook", "email": "cook@example.com", "password": "password123",
	}, png("avatar"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: body, contentType: ct})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user model.PublicUser
	decodeData(t, w, &user)
	require.NotNil(t, user.Avatar)
	assert.True(t, strings.HasPrefix(user.Avatar.URL, testPublicURL+"/avatars/"), user.Avatar.URL)
	assert.Len(t, s.blobs.keys(), 1)
}

func TestRegister_RejectedAvatarIsNotKept(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "cook@example.com", "password123", model.RoleUser)

	body, ct := multipartBody(t, map[string]string{
		"name": "Cook", "email": "cook@example.com", "password": "password123",
	}, png("avatar"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: body, contentType: ct})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, s.blobs.keys())
}

func TestLogin_SetsCookieAndReturnsToken(t *testing.T) {
	s := newTestServer(t)
	token, cookie := s.login(t, "cook@example.com", "password123", model.RoleUser)

	assert.NotEmpty(t, token)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 7*24*3600, cookie.MaxAge)
}

func TestLogin_UniformFailure(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "cook@example.com", "password123", model.RoleUser)

	wrongPassword := s.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "cook@example.com", "password": "wrong-password",
	})
	unknown := s.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, decode(t, wrongPassword).Error, decode(t, unknown).Error)
	assert.Equal(t, "Invalid credentials", decode(t, unknown).Error)
	assert.Nil(t, refreshCookie(wrongPassword))
}

func TestRefresh_RotatesToken(t *testing.T) {
	s := newTestServer(t)
	_, cookie := s.login(t, "cook@example.com", "password123", model.RoleUser)

	w := s.do(request{method: http.MethodPost, path: "/api/v1/auth/refresh-token", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res model.AuthResponse
	decodeData(t, w, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "cook@example.com", res.User.Email)

	rotated := refreshCookie(w)
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// The replaced token is no longer accepted.
	w = s.do(request{method: http.MethodPost, path: "/api/v1/auth/refresh-token", cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", decode(t, w).Error)
}

func TestRefresh_FromBody(t *testing.T) {
	s := newTestServer(t)
	_, cookie := s.login(t, "cook@example.com", "password123", model.RoleUser)

	w := s.doJSON(http.MethodPost, "/api/v1/auth/refresh-token", "", map[string]string{"refreshToken": cookie.Value})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRefresh_Missing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(request{method: http.MethodPost, path: "/api/v1/auth/refresh-token"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Refresh token required", decode(t, w).Error)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	s := newTestServer(t)
	token, cookie := s.login(t, "cook@example.com", "password123", model.RoleUser)

	w := s.do(request{method: http.MethodPost, path: "/api/v1/auth/logout"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", decode(t, w).Error)

	w = s.do(request{method: http.MethodPost, path: "/api/v1/auth/logout", token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Logged out successfully", decode(t, w).Message)
	cleared := refreshCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w = s.do(request{method: http.MethodPost, path: "/api/v1/auth/refresh-token", cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "cook@example.com", "password123", model.RoleUser)

	w := s.do(request{method: http.MethodGet, path: "/api/v1/auth/me", token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me model.PublicUser
	decodeData(t, w, &me)
	assert.Equal(t, "cook@example.com", me.Email)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/auth/me", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w).Error)
}
