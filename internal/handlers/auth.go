package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"prepkit/internal/middleware"
	"prepkit/internal/models"
	"prepkit/internal/session"
	"prepkit/internal/store"
)

// totpIssuer is the issuer name shown in authenticator apps.
const totpIssuer = "PrepKit"

// Auth groups all authentication-related HTTP handlers. Students log in
// with email and password; staff roles must additionally complete TOTP
// before the admin surface opens up.
type Auth struct {
	sessions *session.Store
	users    store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, users store.UserStore) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse tells the client what to do next after a successful
// password check.
type loginResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	TwoFADone bool   `json:"two_fa_done"`
	NextStep  string `json:"next_step"` // "done", "2fa_setup", "2fa_verify"
}

// Login validates credentials and opens a session. Students are done
// after the password check; users with an elevated role get a session
// with TwoFADone=false and must call the 2FA endpoints before any
// admin route admits them.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		respondInternalError(w, "login lookup failed", err)
		return
	}

	// Identical answer for unknown email and wrong password.
	if user == nil || !store.CheckPassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	// Students have no second factor; their session is complete at once.
	twoFADone := user.Role == models.RoleStudent

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		TwoFADone: twoFADone,
	})
	if err != nil {
		respondInternalError(w, "session create failed", err)
		return
	}

	next := "done"
	if !twoFADone {
		if user.Needs2FASetup() {
			next = "2fa_setup"
		} else {
			next = "2fa_verify"
		}
	}

	respondJSON(w, http.StatusOK, loginResponse{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		TwoFADone: twoFADone,
		NextStep:  next,
	})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	respondJSON(w, http.StatusNoContent, nil)
}

// Me returns the authenticated user's profile.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		respondInternalError(w, "me lookup failed", err)
		return
	}
	if user == nil {
		// Session outlived the account.
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// twoFASetupResponse carries the fresh TOTP secret plus a QR code PNG
// for authenticator apps.
type twoFASetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"` // base64-encoded PNG
}

// TwoFASetup generates a TOTP secret for the logged-in user and returns
// it with a provisioning QR code. The secret only becomes active after
// a successful TwoFAVerify.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		respondInternalError(w, "totp generate failed", err)
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		respondInternalError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		respondInternalError(w, "qr code generation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, twoFASetupResponse{
		Secret: key.Secret(),
		QRCode: base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates the TOTP code and completes authentication.
// On first-time setup a valid code also enables TOTP on the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req twoFAVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		respondInternalError(w, "user lookup for 2fa failed", err)
		return
	}
	if user == nil {
		// Session outlived the account.
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if user.TOTPSecret == nil {
		respondError(w, http.StatusConflict, "two-factor setup has not been started")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	// First-time setup: a valid code activates the secret.
	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			respondInternalError(w, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		respondInternalError(w, "session update failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"two_fa_done": true})
}

// Signup is part of the public surface but registration is handled by
// the identity provider, not this service.
func (a *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	respondNotImplemented(w, "signup")
}

// PasswordReset is part of the public surface but reset flows are
// handled by the identity provider, not this service.
func (a *Auth) PasswordReset(w http.ResponseWriter, r *http.Request) {
	respondNotImplemented(w, "password reset")
}
