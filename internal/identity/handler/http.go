// Package handler exposes the passwordless auth flow over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	accountdomain "notesmk/backend/internal/account/domain"
	accountservice "notesmk/backend/internal/account/service"
	"notesmk/backend/internal/devotp"
	identitydomain "notesmk/backend/internal/identity/domain"
	"notesmk/backend/internal/identity/service"
	"notesmk/backend/internal/server/httperr"
	"notesmk/backend/internal/server/middleware"
)

// AuthService is the subset of service.AuthService the handler calls.
type AuthService interface {
	RequestCode(ctx context.Context, email string) (*service.CodeRequest, error)
	Verify(ctx context.Context, in service.VerifyInput) (*identitydomain.Session, error)
	Signup(ctx context.Context, in service.VerifyInput) (*identitydomain.Session, error)
	Login(ctx context.Context, email, code string) (*identitydomain.Session, error)
	Me(ctx context.Context, who identitydomain.Identity) (*accountdomain.Account, error)
}

// CookieConfig controls the session cookie. Production sets Secure and SameSite=None so a
// frontend on another origin can send it.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

func (cc CookieConfig) sameSite() string {
	if cc.Secure {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}

// Handler serves /auth routes.
type Handler struct {
	svc    AuthService
	cookie CookieConfig
}

// New returns a Handler.
func New(svc AuthService, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &Handler{svc: svc, cookie: cookie}
}

// Register mounts the auth routes on r. gate protects /me.
func (h *Handler) Register(r fiber.Router, gate fiber.Handler) {
	g := r.Group("/auth")
	g.Post("/send-otp", h.SendOTP)
	g.Post("/verify-otp", h.VerifyOTP)
	g.Post("/signup", h.Signup)
	g.Post("/login", h.Login)
	g.Post("/logout", h.Logout)
	g.Get("/me", gate, h.Me)
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (v verifyRequest) input() service.VerifyInput {
	return service.VerifyInput{Email: v.Email, Code: v.OTP, Name: v.Name, DateOfBirth: v.DateOfBirth}
}

type userView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

func viewOf(a *accountdomain.Account) userView {
	v := userView{ID: a.ID, Name: a.Name, Email: a.Email}
	if !a.DateOfBirth.IsZero() {
		v.DateOfBirth = a.DateOfBirth.Format(accountdomain.DateLayout)
	}
	return v
}

// SendOTP issues a code and reports whether the email is new.
func (h *Handler) SendOTP(c fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.ErrBadRequest
	}
	res, err := h.svc.RequestCode(c.Context(), req.Email)
	if err != nil {
		return err
	}
	msg := "OTP sent successfully"
	if !res.Delivered {
		msg = "OTP generated but the email could not be delivered. Please try again."
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   msg,
		"isNewUser": res.IsNewUser,
		"delivered": res.Delivered,
	})
}

// VerifyOTP logs in or creates the account for the email and sets the session cookie.
func (h *Handler) VerifyOTP(c fiber.Ctx) error {
	var req verifyRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.ErrBadRequest
	}
	sess, err := h.svc.Verify(c.Context(), req.input())
	if err != nil {
		return err
	}
	return h.respondSession(c, http.StatusOK, sess, "OTP verified successfully")
}

// Signup creates an account for a new email.
func (h *Handler) Signup(c fiber.Ctx) error {
	var req verifyRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.ErrBadRequest
	}
	sess, err := h.svc.Signup(c.Context(), req.input())
	if err != nil {
		return err
	}
	return h.respondSession(c, http.StatusCreated, sess, "User registered successfully")
}

// Login signs in an existing account.
func (h *Handler) Login(c fiber.Ctx) error {
	var req verifyRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.ErrBadRequest
	}
	sess, err := h.svc.Login(c.Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return h.respondSession(c, http.StatusOK, sess, "Login successful")
}

// Logout clears the session cookie. The credential itself stays valid until it expires.
func (h *Handler) Logout(c fiber.Ctx) error {
	c.Cookie(h.sessionCookie("", time.Unix(0, 0).UTC()))
	return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
}

// Me returns the authenticated account.
func (h *Handler) Me(c fiber.Ctx) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return service.ErrAuthRequired
	}
	acc, err := h.svc.Me(c.Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": viewOf(acc)})
}

func (h *Handler) respondSession(c fiber.Ctx, status int, sess *identitydomain.Session, msg string) error {
	c.Cookie(h.sessionCookie(sess.Token, sess.ExpiresAt))
	return c.Status(status).JSON(fiber.Map{
		"success":   true,
		"message":   msg,
		"user":      viewOf(sess.Account),
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
	})
}

func (h *Handler) sessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Domain:   h.cookie.Domain,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.sameSite(),
	}
}

// DevOTP serves GET /dev/otp?email= from the dev code store. Mounted only when dev OTP is enabled.
func DevOTP(store devotp.Store) fiber.Handler {
	return func(c fiber.Ctx) error {
		email := accountservice.NormalizeEmail(c.Query("email"))
		if email == "" {
			return service.ErrEmailRequired
		}
		code, ok := store.Get(c.Context(), email)
		if !ok {
			return fiber.NewError(http.StatusNotFound, "No OTP for this email")
		}
		return c.JSON(fiber.Map{"email": email, "otp": code})
	}
}
