package phone

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
)

const (
	// FakeCode is the code the fake provider accepts unless told otherwise.
	FakeCode = "123456"

	fakeIDPrefix      = "fake-id:"
	fakeRefreshPrefix = "fake-refresh:"
)

// Fake is an in-memory Provider for tests and local development. Identity
// tokens it issues carry the phone number, see PhoneFromFakeToken.
type Fake struct {
	// Code is the accepted verification code. Empty means FakeCode.
	Code string
	// TTL bounds how long a verification stays confirmable. Zero means no limit.
	TTL time.Duration
	// NextID, when set, supplies verification ids instead of random ones.
	NextID func() string
	// Now defaults to time.Now.
	Now func() time.Time

	mu       sync.Mutex
	pending  map[string]fakeVerification
	failNext map[string]error
	sent     int
}

type fakeVerification struct {
	phone  string
	sentAt time.Time
}

func NewFake() *Fake {
	return &Fake{}
}

// FailNext makes the next call of method ("RequestCode", "Confirm" or
// "Refresh") fail with err.
func (f *Fake) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext == nil {
		f.failNext = map[string]error{}
	}
	f.failNext[method] = err
}

// Sent reports how many codes were issued.
func (f *Fake) Sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func (f *Fake) RequestCode(ctx context.Context, e164 string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.KindTimeout, "phone.RequestCode", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("RequestCode"); err != nil {
		return "", err
	}
	if !strings.HasPrefix(e164, "+") {
		return "", &apperr.Error{Kind: apperr.KindInvalidPhoneNumber, Code: apperr.CodeInvalidPhoneNumber,
			Op: "phone.RequestCode", Message: "phone number must be in E.164 form"}
	}

	id := uuid.NewString()
	if f.NextID != nil {
		id = f.NextID()
	}
	if f.pending == nil {
		f.pending = map[string]fakeVerification{}
	}
	f.pending[id] = fakeVerification{phone: e164, sentAt: f.now()}
	f.sent++
	return id, nil
}

func (f *Fake) Confirm(ctx context.Context, verificationID, code string) (Credential, error) {
	const op = "phone.Confirm"
	if err := ctx.Err(); err != nil {
		return Credential{}, apperr.Wrap(apperr.KindTimeout, op, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("Confirm"); err != nil {
		return Credential{}, err
	}

	v, ok := f.pending[verificationID]
	if !ok {
		return Credential{}, &apperr.Error{Kind: apperr.KindInvalidCode, Code: apperr.CodeInvalidCode,
			Op: op, Message: "unknown verification"}
	}
	if f.TTL > 0 && f.now().Sub(v.sentAt) > f.TTL {
		delete(f.pending, verificationID)
		return Credential{}, &apperr.Error{Kind: apperr.KindCodeExpired, Code: apperr.CodeCodeExpired,
			Op: op, Message: "verification code expired"}
	}
	if code != f.code() {
		return Credential{}, &apperr.Error{Kind: apperr.KindInvalidCode, Code: apperr.CodeInvalidCode,
			Op: op, Message: "invalid verification code"}
	}
	delete(f.pending, verificationID)
	return f.credential(v.phone), nil
}

func (f *Fake) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	const op = "phone.Refresh"
	if err := ctx.Err(); err != nil {
		return Credential{}, apperr.Wrap(apperr.KindTimeout, op, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("Refresh"); err != nil {
		return Credential{}, err
	}
	phone, ok := strings.CutPrefix(refreshToken, fakeRefreshPrefix)
	if !ok || phone == "" {
		return Credential{}, &apperr.Error{Kind: apperr.KindUnauthorized, Code: apperr.CodeTokenExpired,
			Op: op, Message: "invalid refresh token"}
	}
	return f.credential(phone), nil
}

// PhoneFromFakeToken extracts the phone number from a Fake identity token.
func PhoneFromFakeToken(idToken string) (string, bool) {
	rest, ok := strings.CutPrefix(idToken, fakeIDPrefix)
	if !ok {
		return "", false
	}
	phone, _, _ := strings.Cut(rest, "#")
	return phone, phone != ""
}

func (f *Fake) credential(phone string) Credential {
	return Credential{
		// The suffix keeps successive tokens for one phone distinct.
		IDToken:      fakeIDPrefix + phone + "#" + uuid.NewString()[:8],
		RefreshToken: fakeRefreshPrefix + phone,
		ExpiresAt:    f.now().Add(time.Hour),
		Phone:        phone,
	}
}

func (f *Fake) takeFailure(method string) error {
	err, ok := f.failNext[method]
	if !ok {
		return nil
	}
	delete(f.failNext, method)
	return err
}

func (f *Fake) code() string {
	if f.Code == "" {
		return FakeCode
	}
	return f.Code
}

func (f *Fake) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
