package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notesmk/backend/internal/devotp"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/mail"
	"notesmk/backend/internal/otp/domain"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 300 * time.Second

// maxGenerateAttempts bounds the uniqueness loop. With 10^6 codes and a few thousand active ones
// a collision streak this long means the store is misbehaving.
const maxGenerateAttempts = 32

var (
	// ErrEmailRequired is returned when Issue is called without an address.
	ErrEmailRequired = errors.New("email is required")
	// ErrNoUniqueCode is returned when every attempt collided with an active code.
	ErrNoUniqueCode = errors.New("otp: could not generate a unique code")
)

// Store is the subset of the code repository the issuer writes through.
type Store interface {
	Put(ctx context.Context, c *domain.Code) error
	ActiveCodeExists(ctx context.Context, codeHash string, validAfter time.Time) (bool, error)
}

// Issued is the outcome of a successful Issue. The code is stored even when delivery failed.
type Issued struct {
	Code      string
	Seq       int64
	ExpiresAt time.Time
	// DeliveryErr is non-nil when the mail collaborator rejected the message. Not fatal:
	// callers report it and may issue again.
	DeliveryErr error
	Receipt     *mail.Receipt
}

// Delivered reports whether the mail collaborator accepted the message.
func (i *Issued) Delivered() bool { return i.DeliveryErr == nil }

// Issuer generates, stores and sends verification codes.
type Issuer struct {
	store    Store
	sender   mail.Sender
	devStore devotp.Store
	log      logging.Logger
	ttl      time.Duration
	product  string
	now      func() time.Time
	generate func() (string, error)
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the issuer clock.
func WithClock(now func() time.Time) Option { return func(i *Issuer) { i.now = now } }

// WithGenerator overrides code generation. For tests.
func WithGenerator(gen func() (string, error)) Option { return func(i *Issuer) { i.generate = gen } }

// WithDevStore mirrors every issued code into the dev store. Dev mode only.
func WithDevStore(s devotp.Store) Option { return func(i *Issuer) { i.devStore = s } }

// WithLogger sets the issuer logger.
func WithLogger(l logging.Logger) Option { return func(i *Issuer) { i.log = l } }

// WithProduct sets the product name shown in the verification email.
func WithProduct(name string) Option { return func(i *Issuer) { i.product = name } }

// NewIssuer returns an Issuer. ttl <= 0 uses DefaultTTL.
func NewIssuer(store Store, sender mail.Sender, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{
		store:    store,
		sender:   sender,
		log:      logging.Nop(),
		ttl:      ttl,
		product:  "NotesMk",
		now:      func() time.Time { return time.Now().UTC() },
		generate: GenerateCode,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// TTL returns the code lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue generates a code that no email currently holds unexpired, stores it for email, then
// sends it. A store failure is returned as an error; a send failure is reported in Issued.DeliveryErr
// and leaves the stored code in place.
func (i *Issuer) Issue(ctx context.Context, email string) (*Issued, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	now := i.now()
	validAfter := now.Add(-i.ttl)

	code, hash, err := i.uniqueCode(ctx, validAfter)
	if err != nil {
		return nil, err
	}
	rec := &domain.Code{Email: email, CodeHash: hash, CreatedAt: now}
	if err := i.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	out := &Issued{Code: code, Seq: rec.Seq, ExpiresAt: rec.ExpiresAt(i.ttl)}
	if i.devStore != nil {
		i.devStore.Put(ctx, email, code, out.ExpiresAt)
	}

	out.Receipt, out.DeliveryErr = i.send(ctx, email, code)
	if out.DeliveryErr != nil {
		i.log.Warn(ctx, "otp delivery failed", "email", email, "seq", rec.Seq, "error", out.DeliveryErr)
	} else {
		i.log.Info(ctx, "otp issued", "email", email, "seq", rec.Seq)
	}
	return out, nil
}

func (i *Issuer) uniqueCode(ctx context.Context, validAfter time.Time) (string, string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := i.generate()
		if err != nil {
			return "", "", fmt.Errorf("otp: generate: %w", err)
		}
		hash := HashCode(code)
		taken, err := i.store.ActiveCodeExists(ctx, hash, validAfter)
		if err != nil {
			return "", "", err
		}
		if !taken {
			return code, hash, nil
		}
		i.log.Debug(ctx, "otp collision, regenerating", "attempt", attempt+1)
	}
	return "", "", ErrNoUniqueCode
}

func (i *Issuer) send(ctx context.Context, email, code string) (*mail.Receipt, error) {
	if i.sender == nil {
		return nil, mail.ErrNotConfigured
	}
	body, err := mail.VerificationEmail(i.product, code, int(i.ttl/time.Minute))
	if err != nil {
		return nil, err
	}
	return i.sender.Send(ctx, email, mail.VerificationSubject, body)
}
