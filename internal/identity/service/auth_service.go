package service

import (
	"context"
	"errors"
	"strings"
	"time"

	accountdomain "notesmk/backend/internal/account/domain"
	accountservice "notesmk/backend/internal/account/service"
	"notesmk/backend/internal/devotp"
	identitydomain "notesmk/backend/internal/identity/domain"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/otp"
	otpdomain "notesmk/backend/internal/otp/domain"
	"notesmk/backend/internal/security"
	"notesmk/backend/internal/telemetry"
)

// Sentinel errors for the auth service; the HTTP layer maps them to status codes.
var (
	ErrEmailRequired        = errors.New("email is required")
	ErrFieldsRequired       = errors.New("all required fields are missing")
	ErrInvalidOrExpiredOtp  = errors.New("invalid or expired otp")
	ErrMissingProfileFields = errors.New("name and date of birth are required for new accounts")
	ErrAuthRequired         = errors.New("authentication required")
	ErrInvalidCredential    = errors.New("invalid session credential")
	ErrSessionExpired       = errors.New("session expired")
	ErrAccountNotFound      = errors.New("account not found")
	// ErrDuplicateAccount is returned by Signup for a known email.
	ErrDuplicateAccount = accountservice.ErrDuplicateAccount
)

// CodeStore is the read and purge side of the code repository.
type CodeStore interface {
	MostRecentValid(ctx context.Context, email string, validAfter time.Time) (*otpdomain.Code, error)
	Consume(ctx context.Context, c *otpdomain.Code) (bool, error)
}

// CodeIssuer issues and delivers codes.
type CodeIssuer interface {
	Issue(ctx context.Context, email string) (*otp.Issued, error)
	TTL() time.Duration
}

// Accounts resolves and creates accounts.
type Accounts interface {
	Resolve(ctx context.Context, email string) (*accountdomain.Account, error)
	ByID(ctx context.Context, id string) (*accountdomain.Account, error)
	Create(ctx context.Context, email, name string, dob time.Time) (*accountdomain.Account, error)
}

// SessionTokens mints and validates session credentials.
type SessionTokens interface {
	Issue(accountID, email string) (string, time.Time, error)
	Validate(token string) (*security.Session, error)
}

// EventRecorder receives auth events.
type EventRecorder interface {
	Record(ctx context.Context, ev telemetry.Event)
}

// CodeRequest is the outcome of RequestCode.
type CodeRequest struct {
	IsNewUser bool
	// Delivered is false when the mail collaborator rejected the message; the code is still valid.
	Delivered bool
	ExpiresAt time.Time
}

// VerifyInput carries a verification attempt. Name and DateOfBirth are only used when the email
// has no account yet.
type VerifyInput struct {
	Email       string
	Code        string
	Name        string
	DateOfBirth string
}

// AuthService runs the passwordless flow: request a code, verify it, mint a session.
type AuthService struct {
	codes    CodeStore
	issuer   CodeIssuer
	accounts Accounts
	tokens   SessionTokens
	devStore devotp.Store
	events   EventRecorder
	log      logging.Logger
	now      func() time.Time
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithClock overrides the clock used for code expiry and date of birth checks.
func WithClock(now func() time.Time) Option { return func(s *AuthService) { s.now = now } }

// WithDevStore makes successful verifications drop the dev copy of the code.
func WithDevStore(d devotp.Store) Option { return func(s *AuthService) { s.devStore = d } }

// WithEvents sets the event recorder.
func WithEvents(r EventRecorder) Option { return func(s *AuthService) { s.events = r } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(s *AuthService) { s.log = l } }

// NewAuthService returns an AuthService.
func NewAuthService(codes CodeStore, issuer CodeIssuer, accounts Accounts, tokens SessionTokens, opts ...Option) *AuthService {
	s := &AuthService{
		codes:    codes,
		issuer:   issuer,
		accounts: accounts,
		tokens:   tokens,
		log:      logging.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "auth")
	return s
}

// RequestCode issues a code for email. IsNewUser reports whether no account holds the email; it
// never blocks issuance.
func (s *AuthService) RequestCode(ctx context.Context, email string) (*CodeRequest, error) {
	email = accountservice.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	acc, err := s.accounts.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	issued, err := s.issuer.Issue(ctx, email)
	if err != nil {
		return nil, err
	}
	out := &CodeRequest{IsNewUser: acc == nil, Delivered: issued.Delivered(), ExpiresAt: issued.ExpiresAt}
	ev := telemetry.Event{Type: telemetry.EventOTPRequested, Email: email}
	if acc != nil {
		ev.AccountID = acc.ID
	}
	s.record(ctx, ev)
	if !out.Delivered {
		ev.Type = telemetry.EventOTPDeliveryFailed
		s.record(ctx, ev)
	}
	return out, nil
}

// Verify checks the code, consumes every code for the email, then logs in the existing account or
// creates one from Name and DateOfBirth.
func (s *AuthService) Verify(ctx context.Context, in VerifyInput) (*identitydomain.Session, error) {
	email := accountservice.NormalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	if email == "" || code == "" {
		return nil, ErrFieldsRequired
	}
	if err := s.consume(ctx, email, code); err != nil {
		return nil, err
	}

	acc, err := s.accounts.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	created := false
	if acc == nil {
		if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.DateOfBirth) == "" {
			return nil, ErrMissingProfileFields
		}
		if acc, err = s.create(ctx, email, in.Name, in.DateOfBirth); err != nil {
			return nil, err
		}
		created = true
	}
	return s.mint(ctx, acc, created)
}

// Signup creates an account for an email that has none. Known emails fail with ErrDuplicateAccount
// before the code is consumed.
func (s *AuthService) Signup(ctx context.Context, in VerifyInput) (*identitydomain.Session, error) {
	email := accountservice.NormalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	if email == "" || code == "" || strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.DateOfBirth) == "" {
		return nil, ErrFieldsRequired
	}
	existing, err := s.accounts.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}
	dob, err := accountdomain.ParseDateOfBirth(in.DateOfBirth, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.consume(ctx, email, code); err != nil {
		return nil, err
	}
	acc, err := s.accounts.Create(ctx, email, in.Name, dob)
	if err != nil {
		return nil, err
	}
	return s.mint(ctx, acc, true)
}

// Login signs in an existing account. Unknown emails fail with ErrAccountNotFound before the code
// is consumed.
func (s *AuthService) Login(ctx context.Context, email, code string) (*identitydomain.Session, error) {
	email = accountservice.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrFieldsRequired
	}
	acc, err := s.accounts.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	if err := s.consume(ctx, email, code); err != nil {
		return nil, err
	}
	return s.mint(ctx, acc, false)
}

// Authenticate validates a session credential and resolves its account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (identitydomain.Identity, error) {
	if token == "" {
		return identitydomain.Identity{}, ErrAuthRequired
	}
	sess, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return identitydomain.Identity{}, ErrSessionExpired
		}
		return identitydomain.Identity{}, ErrInvalidCredential
	}
	acc, err := s.accounts.ByID(ctx, sess.AccountID)
	if err != nil {
		return identitydomain.Identity{}, err
	}
	if acc == nil {
		return identitydomain.Identity{}, ErrAccountNotFound
	}
	return identitydomain.FromAccount(acc), nil
}

// Me returns the account behind an authenticated identity.
func (s *AuthService) Me(ctx context.Context, who identitydomain.Identity) (*accountdomain.Account, error) {
	if !who.Valid() {
		return nil, ErrAuthRequired
	}
	acc, err := s.accounts.ByID(ctx, who.AccountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// consume matches code against the newest unexpired code for email and purges it together with
// every older code. If the matched code is already gone a concurrent verification used it first.
func (s *AuthService) consume(ctx context.Context, email, code string) error {
	validAfter := s.now().Add(-s.issuer.TTL())
	rec, err := s.codes.MostRecentValid(ctx, email, validAfter)
	if err != nil {
		return err
	}
	if rec == nil || !otp.CodeEqual(code, rec.CodeHash) {
		s.record(ctx, telemetry.Event{Type: telemetry.EventVerifyFailed, Email: email})
		return ErrInvalidOrExpiredOtp
	}
	claimed, err := s.codes.Consume(ctx, rec)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Warn(ctx, "otp already consumed", "email", email, "seq", rec.Seq)
		s.record(ctx, telemetry.Event{Type: telemetry.EventVerifyFailed, Email: email})
		return ErrInvalidOrExpiredOtp
	}
	if s.devStore != nil {
		s.devStore.Forget(ctx, email)
	}
	return nil
}

func (s *AuthService) create(ctx context.Context, email, name, rawDOB string) (*accountdomain.Account, error) {
	dob, err := accountdomain.ParseDateOfBirth(rawDOB, s.now())
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.Create(ctx, email, name, dob)
	if errors.Is(err, ErrDuplicateAccount) {
		// A concurrent verification created it; log in instead.
		if acc, err = s.accounts.Resolve(ctx, email); err == nil && acc == nil {
			err = ErrAccountNotFound
		}
	}
	return acc, err
}

func (s *AuthService) mint(ctx context.Context, acc *accountdomain.Account, created bool) (*identitydomain.Session, error) {
	token, expiresAt, err := s.tokens.Issue(acc.ID, acc.Email)
	if err != nil {
		return nil, err
	}
	t := telemetry.EventLogin
	if created {
		t = telemetry.EventSignup
	}
	s.record(ctx, telemetry.Event{Type: t, AccountID: acc.ID, Email: acc.Email})
	s.log.Info(ctx, "session issued", "account_id", acc.ID, "created", created)
	return &identitydomain.Session{Token: token, ExpiresAt: expiresAt, Account: acc, Created: created}, nil
}

func (s *AuthService) record(ctx context.Context, ev telemetry.Event) {
	if s.events != nil {
		s.events.Record(ctx, ev)
	}
}
