package handlers

import (
	"net/http"

	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/middleware"
	"github.com/shwemart/shwemart/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandlers struct {
	otpService  *service.OTPService
	authService *service.AuthService
	cookies     *middleware.CookieWriter
	logger      *logrus.Logger
}

func NewAuthHandlers(
	otpService *service.OTPService,
	authService *service.AuthService,
	cookies *middleware.CookieWriter,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		otpService:  otpService,
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

type PhoneRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=7,max=12"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=7,max=12"`
	Otp   string `json:"otp" validate:"required,numeric,len=6"`
	Token string `json:"token" validate:"required"`
}

type PasswordRequest struct {
	Phone    string `json:"phone" validate:"required,numeric,min=7,max=12"`
	Password string `json:"password" validate:"required,numeric,len=8"`
	Token    string `json:"token" validate:"required"`
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,numeric,min=7,max=12"`
	Password string `json:"password" validate:"required,numeric,len=8"`
}

// Register starts the registration flow by issuing an OTP for an unclaimed
// phone number.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	issue, err := h.otpService.RequestOTP(r.Context(), phone, true)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "We are sending OTP to 09" + issue.Phone + ".",
		"phone":   issue.Phone,
		"token":   issue.RememberToken,
	})
}

func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	verifiedToken, err := h.otpService.VerifyOTP(r.Context(), phone, req.Otp, req.Token, true)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "OTP is successfully verified.",
		"phone":   phone,
		"token":   verifiedToken,
	})
}

// ConfirmPassword finishes registration: a valid verified token plus a
// password creates the account and opens a session.
func (h *AuthHandlers) ConfirmPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	user, pair, err := h.authService.ConfirmPassword(r.Context(), phone, req.Password, req.Token)
	if err != nil {
		respondError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, pair)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Successfully created an account.",
		"userId":  user.ID,
	})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	user, pair, err := h.authService.Login(r.Context(), phone, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, pair)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully logged in.",
		"userId":  user.ID,
	})
}

// Logout invalidates the server-side session and clears both cookies.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, errs.Unauthenticated("You are not an authenticated user."))
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}

	h.cookies.ClearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully logged out. See you soon.",
	})
}

// ForgetPassword starts the reset flow for a registered phone.
func (h *AuthHandlers) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	issue, err := h.otpService.RequestOTP(r.Context(), phone, false)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "We are sending OTP to 09" + issue.Phone + " to reset password.",
		"phone":   issue.Phone,
		"token":   issue.RememberToken,
	})
}

func (h *AuthHandlers) VerifyOTPForReset(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	verifiedToken, err := h.otpService.VerifyOTP(r.Context(), phone, req.Otp, req.Token, false)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "OTP is successfully verified.",
		"phone":   phone,
		"token":   verifiedToken,
	})
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	phone := normalizePhone(req.Phone)
	user, pair, err := h.authService.ResetPassword(r.Context(), phone, req.Password, req.Token)
	if err != nil {
		respondError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, pair)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully reset the password.",
		"userId":  user.ID,
	})
}
