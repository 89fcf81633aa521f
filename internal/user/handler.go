package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/calliq/insights-backend/internal/auth"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const stateCookieName = "oauth_state"

type Handler struct {
	store  *Store
	jwt    *auth.JWTService
	google Provider
	logger *slog.Logger
}

func NewHandler(store *Store, jwtService *auth.JWTService, google Provider, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		jwt:    jwtService,
		google: google,
		logger: logger.With("handler", "user"),
	}
}

// RegisterAuthRoutes mounts the public session endpoints.
func (h *Handler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
	g.GET("/google", h.GoogleLogin)
	g.GET("/google/callback", h.GoogleCallback)
}

// RegisterMeRoutes mounts endpoints that require an authenticated session.
func (h *Handler) RegisterMeRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
}

// RegisterRoutes mounts user management, org-scoped for admins.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Router       /auth/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return shared.BadRequest("missing_credentials", "email and password are required")
	}

	u, err := h.store.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return shared.Unauthorized("invalid_credentials", "invalid email or password")
	}
	if !u.Active {
		return shared.Forbidden("account_disabled", "account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return shared.Unauthorized("invalid_credentials", "invalid email or password")
	}

	return h.issueSession(c, u)
}

// GoogleLogin godoc
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      302  "Redirect to Google"
// @Router       /auth/google [get]
func (h *Handler) GoogleLogin(c echo.Context) error {
	if h.google == nil {
		return shared.NotFound("provider_disabled", "google sign-in is not configured")
	}

	state := newState()
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

// GoogleCallback godoc
// @Summary      Complete Google sign-in
// @Tags         auth
// @Produce      json
// @Success      200  {object}  LoginResponse
// @Failure      401  {object}  shared.APIError
// @Router       /auth/google/callback [get]
func (h *Handler) GoogleCallback(c echo.Context) error {
	if h.google == nil {
		return shared.NotFound("provider_disabled", "google sign-in is not configured")
	}

	cookie, err := c.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return shared.Unauthorized("invalid_state", "oauth state mismatch")
	}

	pu, err := h.google.Exchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		h.logger.Error("google exchange failed", "error", err)
		return shared.Unauthorized("exchange_failed", "sign-in failed")
	}

	u, err := h.store.LinkProvider(c.Request().Context(), h.google.Name(), pu.Sub, strings.ToLower(pu.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Forbidden("no_account", "no account exists for this email")
		}
		h.logger.Error("provider link failed", "error", err)
		return shared.InternalError("login_failed", "sign-in failed")
	}
	if !u.Active {
		return shared.Forbidden("account_disabled", "account is disabled")
	}

	return h.issueSession(c, u)
}

func (h *Handler) issueSession(c echo.Context, u *User) error {
	token, err := h.jwt.Sign(u.ID, u.Email, u.Name, u.OrganizationID, u.Role)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err, "user_id", u.ID)
		return shared.InternalError("token_failed", "failed to create session")
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: u})
}

// Me godoc
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  User
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *Handler) Me(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	u, err := h.store.GetByID(c.Request().Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to get user", "error", err, "user_id", claims.UserID)
		return shared.NotFound("user_not_found", "user not found")
	}
	return c.JSON(http.StatusOK, u)
}

type CreateUserRequest struct {
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Name           string      `json:"name"`
	Role           shared.Role `json:"role"`
	OrganizationID string      `json:"organization_id"`
}

// Create godoc
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User"
// @Success      201  {object}  User
// @Failure      400  {object}  shared.APIError
// @Failure      409  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /users [post]
func (h *Handler) Create(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return shared.BadRequest("missing_fields", "email and password are required")
	}
	if len(req.Password) < 8 {
		return shared.BadRequest("weak_password", "password must be at least 8 characters")
	}

	orgID := claims.OrganizationID
	if claims.IsMasterAdmin() && req.OrganizationID != "" {
		orgID = req.OrganizationID
	}

	role := req.Role
	if role == "" {
		role = shared.RoleUser
	}
	if role == shared.RoleMasterAdmin && !claims.IsMasterAdmin() {
		return shared.Forbidden("role_escalation", "cannot grant master admin role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return shared.InternalError("hash_failed", "failed to create user")
	}

	u := &User{
		Email:          req.Email,
		PasswordHash:   string(hash),
		Name:           req.Name,
		Role:           role,
		OrganizationID: orgID,
		Active:         true,
	}
	if err := h.store.Create(c.Request().Context(), u); err != nil {
		h.logger.Error("failed to create user", "error", err, "email", req.Email)
		return shared.Conflict("user_exists", "a user with this email already exists")
	}
	return c.JSON(http.StatusCreated, u)
}

// List godoc
// @Summary      List users in the acting organization
// @Tags         users
// @Produce      json
// @Success      200  {array}  User
// @Security     BearerAuth
// @Router       /users [get]
func (h *Handler) List(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	limit, offset := shared.Pagination(c)
	users, err := h.store.ListByOrganization(c.Request().Context(), orgID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list users", "error", err, "org_id", orgID)
		return shared.InternalError("list_failed", "failed to list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) Get(c echo.Context) error {
	u, err := h.loadScoped(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

type UpdateUserRequest struct {
	Name   *string      `json:"name"`
	Role   *shared.Role `json:"role"`
	Active *bool        `json:"active"`
}

func (h *Handler) Update(c echo.Context) error {
	u, err := h.loadScoped(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}

	claims := auth.GetClaims(c)
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		if *req.Role == shared.RoleMasterAdmin && (claims == nil || !claims.IsMasterAdmin()) {
			return shared.Forbidden("role_escalation", "cannot grant master admin role")
		}
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}

	if err := h.store.Update(c.Request().Context(), u); err != nil {
		h.logger.Error("failed to update user", "error", err, "user_id", u.ID)
		return shared.InternalError("update_failed", "failed to update user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Delete(c echo.Context) error {
	u, err := h.loadScoped(c)
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), u.ID); err != nil {
		h.logger.Error("failed to delete user", "error", err, "user_id", u.ID)
		return shared.InternalError("delete_failed", "failed to delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

// loadScoped fetches the target user and enforces tenant isolation: non
// master admins can only touch users in their own organization.
func (h *Handler) loadScoped(c echo.Context) (*User, error) {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return nil, err
	}

	u, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, shared.NotFound("user_not_found", "user not found")
	}

	claims := auth.GetClaims(c)
	if u.OrganizationID != orgID && (claims == nil || !claims.IsMasterAdmin()) {
		return nil, shared.NotFound("user_not_found", "user not found")
	}
	return u, nil
}

func newState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
