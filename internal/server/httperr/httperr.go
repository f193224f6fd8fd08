// Package httperr maps service errors to HTTP status codes and client messages.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	accountdomain "notesmk/backend/internal/account/domain"
	identityservice "notesmk/backend/internal/identity/service"
	"notesmk/backend/internal/logging"
	noteservice "notesmk/backend/internal/note/service"
	"notesmk/backend/internal/otp"
)

// ErrBadRequest is returned for bodies that cannot be decoded.
var ErrBadRequest = errors.New("invalid request body")

const internalMessage = "Internal server error"

type mapping struct {
	err     error
	status  int
	message string
}

var mappings = []mapping{
	{identityservice.ErrEmailRequired, http.StatusBadRequest, "Email is required"},
	{otp.ErrEmailRequired, http.StatusBadRequest, "Email is required"},
	{identityservice.ErrFieldsRequired, http.StatusBadRequest, "All required fields are missing"},
	{identityservice.ErrInvalidOrExpiredOtp, http.StatusBadRequest, "Invalid or expired OTP"},
	{identityservice.ErrMissingProfileFields, http.StatusBadRequest, "Name and date of birth are required to sign up"},
	{identityservice.ErrDuplicateAccount, http.StatusBadRequest, "User already exists. Please log in."},
	{accountdomain.ErrInvalidDateOfBirth, http.StatusBadRequest, "Invalid date of birth"},
	{accountdomain.ErrNameRequired, http.StatusBadRequest, "Name is required"},
	{noteservice.ErrValidation, http.StatusBadRequest, "Title and content are required"},
	{ErrBadRequest, http.StatusBadRequest, "Invalid request body"},
	{identityservice.ErrAuthRequired, http.StatusUnauthorized, "Authentication required"},
	{noteservice.ErrUnauthenticated, http.StatusUnauthorized, "Authentication required"},
	{identityservice.ErrInvalidCredential, http.StatusUnauthorized, "Invalid or expired token"},
	{identityservice.ErrSessionExpired, http.StatusUnauthorized, "Session expired. Please log in again."},
	{identityservice.ErrAccountNotFound, http.StatusNotFound, "User not found. Please sign up."},
	{noteservice.ErrNotFound, http.StatusNotFound, "Note not found"},
}

// Status returns the HTTP status for err. Unknown errors are 500.
func Status(err error) int {
	if m, ok := lookup(err); ok {
		return m.status
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err. Unknown errors get a generic message so
// driver and mail errors never reach the client.
func Message(err error) string {
	if m, ok := lookup(err); ok {
		return m.message
	}
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < http.StatusInternalServerError {
		return fe.Message
	}
	return internalMessage
}

func lookup(err error) (mapping, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m, true
		}
	}
	return mapping{}, false
}

// Body is the error response shape.
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler returns a fiber ErrorHandler that writes Body. 5xx errors are logged with the request path.
func Handler(log logging.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logging.Nop()
	}
	return func(c fiber.Ctx, err error) error {
		status := Status(err)
		if status >= http.StatusInternalServerError {
			log.Error(c.Context(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(status).JSON(Body{Success: false, Message: Message(err)})
	}
}
