package handlers

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/contactbox/apiserver/internal/auth"
	"github.com/contactbox/apiserver/internal/mailer"
	"github.com/contactbox/apiserver/internal/services"
	"github.com/contactbox/apiserver/internal/storage"
	"github.com/contactbox/apiserver/internal/store"
	"github.com/contactbox/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxAvatarMemory = 8 << 20
	maxAvatarBytes  = 8 << 20
	formFieldAvatar = "file"
)

// EmailDispatcher enqueues confirmation email tasks.
type EmailDispatcher interface {
	Enqueue(ctx context.Context, task mailer.Task)
}

// AuthHandler provides signup, login, token refresh, email confirmation,
// and avatar endpoints.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenManager
	dispatcher  EmailDispatcher
	avatars     storage.ObjectStorage
	baseURL     string
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	userService *services.UserService,
	tokens *auth.TokenManager,
	dispatcher EmailDispatcher,
	avatars storage.ObjectStorage,
	baseURL string,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		dispatcher:  dispatcher,
		avatars:     avatars,
		baseURL:     baseURL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Get("/refresh_token", handler.RefreshToken)
	r.Get("/confirmed_email/{token}", handler.ConfirmedEmail)
	r.Post("/request_email", handler.RequestEmail)
	r.With(handler.RequireAuth).Patch("/avatar", handler.UpdateAvatar)
}

// RequireAuth enforces a valid access token and injects the subject email
// into the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		email, err := h.tokens.DecodeAccessToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), contextSubjectKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Signup registers a new account and enqueues a confirmation email.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if _, err := h.userService.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "email already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to check user")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.dispatcher.Enqueue(r.Context(), mailer.Task{
		Email:    user.Email,
		Username: user.Username,
		BaseURL:  h.baseURL,
	})

	writeJSON(w, http.StatusCreated, SignupResponse{
		User:   user,
		Detail: "User successfully created",
	})
}

// Login verifies credentials and issues a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	h.issueTokenPair(w, r, user.Email, http.StatusCreated)
}

// RefreshToken rotates the token pair. The presented refresh token must
// match the one currently stored; a mismatch revokes the stored token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	tokenString, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	email, err := h.tokens.DecodeRefreshToken(tokenString)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if user.RefreshToken == nil || *user.RefreshToken != tokenString {
		if err := h.userService.UpdateRefreshToken(r.Context(), email, nil); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.issueTokenPair(w, r, email, http.StatusOK)
}

// ConfirmedEmail marks the token's subject email as verified. Already
// confirmed users get a success message without mutation.
func (h *AuthHandler) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	email, err := h.tokens.DecodeEmailToken(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "verification error")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "verification error")
		return
	}

	if user.Confirmed {
		writeMessage(w, http.StatusOK, "Your email is already confirmed")
		return
	}

	if err := h.userService.ConfirmEmail(r.Context(), email); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm email")
		return
	}

	writeMessage(w, http.StatusOK, "Email confirmed")
}

// RequestEmail re-enqueues the confirmation email for an unconfirmed user.
func (h *AuthHandler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var req RequestEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if user.Confirmed {
		writeMessage(w, http.StatusOK, "Your email is already confirmed")
		return
	}

	h.dispatcher.Enqueue(r.Context(), mailer.Task{
		Email:    user.Email,
		Username: user.Username,
		BaseURL:  h.baseURL,
	})

	writeMessage(w, http.StatusOK, "Check your email for confirmation.")
}

// UpdateAvatar stores an uploaded avatar image and records its URL.
func (h *AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	email, err := emailFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := avatarFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "uploaded file too large")
		return
	}

	key := avatarKey(email, header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.avatars.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	user, err := h.userService.UpdateAvatar(r.Context(), email, h.avatars.ObjectURL(key))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	User   types.User `json:"user"`
	Detail string     `json:"detail"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RequestEmailRequest struct {
	Email string `json:"email"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *AuthHandler) issueTokenPair(w http.ResponseWriter, r *http.Request, email string, status int) {
	accessToken, err := h.tokens.CreateAccessToken(email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	refreshToken, err := h.tokens.CreateRefreshToken(email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	if err := h.userService.UpdateRefreshToken(r.Context(), email, &refreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store token")
		return
	}

	writeJSON(w, status, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

func avatarFile(form *multipart.Form) (multipart.File, *multipart.FileHeader, error) {
	if form == nil {
		return nil, nil, errors.New("missing form data")
	}

	files := form.File[formFieldAvatar]
	if len(files) == 0 {
		return nil, nil, errors.New("avatar file is required")
	}
	if len(files) > 1 {
		return nil, nil, errors.New("only one avatar file is allowed")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, nil, errors.New("failed to read avatar file")
	}
	return file, header, nil
}

func avatarKey(email, filename string) string {
	sum := sha1.Sum([]byte(email))
	ext := strings.ToLower(filepath.Ext(filename))
	return "avatars/" + hex.EncodeToString(sum[:]) + ext
}
