package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/config"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/service"
	"github.com/recipebox/backend/internal/upload"
	"github.com/recipebox/backend/internal/validation"
)

// CookieConfig describes the http-only cookie the refresh token travels in.
type CookieConfig struct {
	Name     string
	MaxAge   int
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieConfig(cfg config.AuthConfig) CookieConfig {
	return CookieConfig{
		Name:     cfg.CookieName,
		MaxAge:   int(cfg.CookieMaxAge / time.Second),
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: parseSameSite(cfg.CookieSameSite),
	}
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type AuthHandler struct {
	svc      *service.AuthService
	validate *validation.Validator
	uploads  *upload.Collector
	images   *upload.Reconciler
	cookie   CookieConfig
	log      logging.Logger
}

func NewAuthHandler(svc *service.AuthService, validate *validation.Validator, uploads *upload.Collector, images *upload.Reconciler, cookie CookieConfig, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		validate: validate,
		uploads:  uploads,
		images:   images,
		cookie:   cookie,
		log:      log,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Accepts JSON, or multipart form data with an optional avatar image. Only an authenticated ADMIN may register another ADMIN.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param request body model.RegisterRequest true "Name, email, password and optional role"
// @Success 201 {object} model.Response{data=model.PublicUser}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	multipartBody := isMultipart(c)

	var req model.RegisterRequest
	var err error
	if multipartBody {
		err = c.ShouldBindWith(&req, binding.FormMultipart)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		writeError(c, h.log, apperror.BadRequest("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(c, h.log, err)
		return
	}
	if req.Role == model.RoleAdmin {
		if caller := GetAuthUser(c); caller == nil || caller.Role != model.RoleAdmin {
			writeError(c, h.log, apperror.Forbidden("Only an admin can register an admin"))
			return
		}
	}

	batch := upload.Batch{}
	if multipartBody {
		form, err := c.MultipartForm()
		if err != nil {
			writeError(c, h.log, apperror.BadRequest("Invalid multipart form"))
			return
		}
		if batch, err = h.uploads.Collect(ctx, form, upload.FolderAvatars); err != nil {
			writeError(c, h.log, err)
			return
		}
	}

	avatar, err := h.images.Image(batch, upload.FieldAvatar, upload.ModeUpdate, "")
	if err != nil {
		h.uploads.Discard(ctx, batch)
		writeError(c, h.log, err)
		return
	}

	user, err := h.svc.Register(ctx, req, avatar)
	if err != nil {
		h.uploads.Discard(ctx, batch)
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusCreated, user)
}

// Login godoc
// @Summary Login
// @Description Returns an access token and sets the refresh token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.Response{data=model.AuthResponse}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, apperror.BadRequest("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(c, h.log, err)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	writeData(c, http.StatusOK, model.AuthResponse{User: result.User, Token: result.AccessToken})
}

// Refresh godoc
// @Summary Refresh the session
// @Description Reads the refresh token from the cookie, or from the JSON body. The presented token is replaced by a new one.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} model.Response{data=model.AuthResponse}
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(h.cookie.Name)
	if refreshToken == "" && c.Request.ContentLength != 0 {
		var req model.RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			refreshToken = strings.TrimSpace(req.RefreshToken)
		}
	}
	if refreshToken == "" {
		writeError(c, h.log, apperror.Unauthorized("Refresh token required"))
		return
	}

	result, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	writeData(c, http.StatusOK, model.AuthResponse{User: result.User, Token: result.AccessToken})
}

// Logout godoc
// @Summary Logout
// @Description Revokes the stored refresh token and clears the cookie.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Response
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, h.log, apperror.Unauthorized("Authentication required"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
		writeError(c, h.log, err)
		return
	}
	h.clearRefreshCookie(c)
	writeMessage(c, "Logged out successfully")
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Response{data=model.PublicUser}
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, h.log, apperror.Unauthorized("Authentication required"))
		return
	}

	me, err := h.svc.Me(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, me)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, token, h.cookie.MaxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEMultipartPOSTForm
}
