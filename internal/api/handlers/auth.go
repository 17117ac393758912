// Package handlers provides HTTP handlers for the facturier API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/facturier/facturier/internal/api/middleware"
	"github.com/facturier/facturier/internal/auth"
	"github.com/facturier/facturier/internal/observability"
	"github.com/facturier/facturier/internal/storage"
)

// Identity is the slice of the hosted identity client the auth handler uses.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AuthHandler handles signup, signin, and profile requests.
type AuthHandler struct {
	logger   *observability.Logger
	identity Identity
	profiles *storage.ProfileRepository
}

// NewAuthHandler creates a new auth handler. identity may be nil when the
// hosted identity service is not configured; token endpoints then return 503.
func NewAuthHandler(logger *observability.Logger, identity Identity, profiles *storage.ProfileRepository) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		identity: identity,
		profiles: profiles,
	}
}

// SignUpRequestDTO is the signup request payload.
type SignUpRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// CredentialsDTO is the signin request payload.
type CredentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequestDTO is the token refresh request payload.
type RefreshRequestDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// UserDTO identifies a user in auth responses.
type UserDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// SessionDTO carries tokens back to the client.
type SessionDTO struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *UserDTO `json:"user,omitempty"`
}

// ProfileDTO is the merged user + profile view returned by Me.
type ProfileDTO struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	CompanyName string   `json:"company_name"`
	Address     []string `json:"address"`
	Phone       string   `json:"phone"`
}

// UpdateProfileRequestDTO carries a partial profile update. Only fields
// present in the request body are applied.
type UpdateProfileRequestDTO struct {
	FullName    *string   `json:"full_name"`
	CompanyName *string   `json:"company_name"`
	Address     *[]string `json:"address"`
	Phone       *string   `json:"phone"`
}

// SignUp handles POST /api/v1/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.identity == nil {
		writeError(w, http.StatusServiceUnavailable, "identity service not configured")
		return
	}

	var req SignUpRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	session, err := h.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Signup failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The identity service owns credentials; the display name lives in our
	// profile table so Me and the rendered documents can use it.
	if req.FullName != "" {
		if userID, perr := uuid.Parse(session.User.ID); perr == nil {
			profile := &storage.Profile{UserID: userID, FullName: req.FullName}
			if perr := h.profiles.Upsert(ctx, profile); perr != nil {
				h.logger.Warn().Err(perr).Str("user_id", session.User.ID).Msg("Profile seed failed")
			}
		}
	}

	h.logger.Info().Str("user_id", session.User.ID).Msg("User signed up")

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully. Please check your email for verification.",
		"user":    UserDTO{ID: session.User.ID, Email: session.User.Email},
	})
}

// SignIn handles POST /api/v1/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.identity == nil {
		writeError(w, http.StatusServiceUnavailable, "identity service not configured")
		return
	}

	var req CredentialsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Signin failed")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user := &UserDTO{ID: session.User.ID, Email: session.User.Email}
	if userID, perr := uuid.Parse(session.User.ID); perr == nil {
		if profile, perr := h.profiles.Get(ctx, userID); perr == nil {
			user.FullName = profile.FullName
		}
	}

	writeJSON(w, http.StatusOK, SessionDTO{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         user,
	})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.identity == nil {
		writeError(w, http.StatusServiceUnavailable, "identity service not configured")
		return
	}

	var req RefreshRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	session, err := h.identity.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	writeJSON(w, http.StatusOK, SessionDTO{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

// SignOut handles POST /api/v1/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if h.identity != nil && user.Token != "" {
		if err := h.identity.SignOut(ctx, user.Token); err != nil {
			h.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Signout failed")
			writeError(w, http.StatusBadRequest, "sign out failed")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully signed out"})
}

// Me handles GET /api/v1/auth/me. The profile is merged flat into the
// response so the client renders one settings form from it.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	resp := ProfileDTO{
		ID:      user.ID.String(),
		Email:   user.Email,
		Address: []string{},
	}

	profile, err := h.profiles.Get(ctx, user.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Profile lookup failed")
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	if err == nil {
		resp.FullName = profile.FullName
		resp.CompanyName = profile.CompanyName
		resp.Phone = profile.Phone
		if len(profile.Address) > 0 {
			resp.Address = profile.Address
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateProfile handles PUT /api/v1/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profiles.Get(ctx, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		profile = &storage.Profile{UserID: user.ID}
	} else if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Profile lookup failed")
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.CompanyName != nil {
		profile.CompanyName = *req.CompanyName
	}
	if req.Address != nil {
		profile.Address = storage.AddressLines(*req.Address)
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}

	if err := h.profiles.Upsert(ctx, profile); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Profile update failed")
		writeError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}
