package session

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/store"
	"github.com/saran-1305/job-assigning-app-frontend-main/pkg/utils"
)

// RequestCode normalizes rawPhone and asks the provider to send a code. Input
// that is not 10 digits once non-digits are stripped never reaches the
// provider.
func (m *Manager) RequestCode(ctx context.Context, rawPhone string) (Verification, error) {
	const op = "session.RequestCode"
	e164, err := utils.NormalizePhone(rawPhone, m.country)
	if err != nil {
		return Verification{}, &apperr.Error{Kind: apperr.KindInvalidPhoneNumber, Code: apperr.CodeInvalidPhoneNumber,
			Op: op, Field: "phone", Message: "Please enter a valid 10-digit phone number", Err: err}
	}

	id, err := m.provider.RequestCode(ctx, e164)
	if err != nil {
		return Verification{}, attribute(op, err)
	}

	v := Verification{ID: id, Phone: e164, SentAt: m.now()}
	m.mu.Lock()
	m.pending = &v
	m.mu.Unlock()

	m.logger.Info("verification code sent", zap.String("phone", utils.MaskPhone(e164)))
	return v, nil
}

// ConfirmCode exchanges a code for a provider credential, then the credential
// for the backend user, creating the user on first sight. The session changes
// only once every step has succeeded.
func (m *Manager) ConfirmCode(ctx context.Context, verificationID, code string) (models.User, error) {
	const op = "session.ConfirmCode"
	verificationID = strings.TrimSpace(verificationID)
	if verificationID == "" {
		return models.User{}, apperr.Validation(op, "verificationId", "verification id is required")
	}
	code, err := utils.ValidateOTP(code)
	if err != nil {
		return models.User{}, apperr.Validation(op, "code", "Please enter a valid 6-digit OTP")
	}

	cred, err := m.provider.Confirm(ctx, verificationID, code)
	if err != nil {
		return models.User{}, attribute(op, err)
	}

	m.mu.RLock()
	fcm := m.fcmToken
	m.mu.RUnlock()
	res, err := m.api.VerifyToken(ctx, cred.IDToken, fcm)
	if err != nil {
		return models.User{}, backendRejected(op, err)
	}

	token := res.Token
	if token == "" {
		token = cred.IDToken
	}
	if err := m.persist(ctx, token, cred.RefreshToken); err != nil {
		return models.User{}, apperr.Wrap(apperr.KindServer, op, err)
	}
	state := m.adopt(token, res.User)

	m.logger.Info("signed in",
		zap.String("user_id", res.User.ID),
		zap.Bool("new_user", res.IsNewUser),
		zap.Stringer("state", state))
	return res.User, nil
}

// Refresh re-derives an identity token from the stored refresh token without
// prompting. It returns "" with a nil error when there is nothing to refresh.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	const op = "session.Refresh"
	refresh, ok, err := m.kv.Get(ctx, store.KeyRefreshToken)
	if err != nil {
		return "", apperr.Wrap(apperr.KindServer, op, err)
	}
	if !ok || refresh == "" {
		return "", nil
	}

	cred, err := m.provider.Refresh(ctx, refresh)
	if err != nil {
		return "", attribute(op, err)
	}
	res, err := m.api.VerifyToken(ctx, cred.IDToken, "")
	if err != nil {
		return "", backendRejected(op, err)
	}

	token := res.Token
	if token == "" {
		token = cred.IDToken
	}
	next := cred.RefreshToken
	if next == "" {
		next = refresh
	}
	if err := m.persist(ctx, token, next); err != nil {
		return "", apperr.Wrap(apperr.KindServer, op, err)
	}
	m.adopt(token, res.User)
	m.logger.Debug("session refreshed", zap.String("user_id", res.User.ID))
	return token, nil
}

// Restore resolves the Unknown state at startup from the persisted token. A
// rejected token is refreshed once before the session falls back to
// Anonymous. Transient failures leave the state Unknown and are returned.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	const op = "session.Restore"
	token, ok, err := m.kv.Get(ctx, store.KeyAuthToken)
	if err != nil {
		return m.State(), apperr.Wrap(apperr.KindServer, op, err)
	}
	if !ok || token == "" {
		m.clearLocal()
		return StateAnonymous, nil
	}

	u, err := m.api.Me(ctx, token)
	if err == nil {
		return m.adopt(token, u), nil
	}
	if !apperr.IsAuth(err) {
		return m.State(), attribute(op, err)
	}

	if _, rerr := m.Refresh(ctx); rerr == nil && m.IsAuthenticated() {
		return m.State(), nil
	} else if rerr != nil {
		m.logger.Debug("refresh during restore failed", zap.Error(rerr))
	}

	m.logger.Info("stored session rejected, signing out")
	if err := m.clearStore(ctx); err != nil {
		m.clearLocal()
		return StateAnonymous, apperr.Wrap(apperr.KindServer, op, err)
	}
	m.clearLocal()
	return StateAnonymous, nil
}

// SignOut notifies the backend on a best-effort basis and always clears the
// local token and user, even when the call fails. Only a failure to clear the
// store is returned.
func (m *Manager) SignOut(ctx context.Context) error {
	if m.Token() != "" {
		if err := m.api.Logout(ctx); err != nil {
			m.logger.Warn("logout call failed, clearing local session anyway", zap.Error(err))
		}
	}
	m.clearLocal()
	if err := m.clearStore(ctx); err != nil {
		return apperr.Wrap(apperr.KindServer, "session.SignOut", err)
	}
	m.logger.Info("signed out")
	return nil
}

// DeleteAccount removes the account server-side and then clears local state
// as SignOut does. A transient failure keeps the session so the user can
// retry.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	const op = "session.DeleteAccount"
	if !m.IsAuthenticated() {
		return apperr.ErrNotAuthenticated.At(op)
	}
	if err := m.api.DeleteAccount(ctx); err != nil && !apperr.IsAuth(err) {
		return attribute(op, err)
	}
	m.clearLocal()
	if err := m.clearStore(ctx); err != nil {
		return apperr.Wrap(apperr.KindServer, op, err)
	}
	m.logger.Info("account deleted")
	return nil
}

// Invalidate is the forced sign-out path, installed as the api client's
// unauthorized hook. It makes no network call.
func (m *Manager) Invalidate(ctx context.Context, cause error) {
	if m.State() == StateAnonymous {
		return
	}
	m.logger.Warn("backend rejected the session", zap.Error(cause))
	m.clearLocal()
	if err := m.clearStore(ctx); err != nil {
		m.logger.Error("clear token store", zap.Error(err))
	}
}

func (m *Manager) persist(ctx context.Context, token, refresh string) error {
	if err := m.kv.Set(ctx, store.KeyAuthToken, token); err != nil {
		return err
	}
	if refresh == "" {
		return m.kv.Remove(ctx, store.KeyRefreshToken)
	}
	return m.kv.Set(ctx, store.KeyRefreshToken, refresh)
}

// clearStore uses a fresh context so that an abandoned caller cannot leave a
// token behind.
func (m *Manager) clearStore(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	return errors.Join(
		m.kv.Remove(ctx, store.KeyAuthToken),
		m.kv.Remove(ctx, store.KeyRefreshToken),
	)
}

// attribute re-labels an *apperr.Error with op, keeping everything else.
func attribute(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.At(op)
	}
	return apperr.Wrap(apperr.KindUnknown, op, err)
}

// backendRejected maps a refused verify-token exchange onto BackendRejected.
// Transient failures keep their kind so they stay retryable.
func backendRejected(op string, err error) error {
	switch apperr.KindOf(err).Class() {
	case apperr.KindUnauthorized, apperr.KindForbidden, apperr.KindValidation, apperr.KindNotFound:
		msg := "The server could not verify this sign-in"
		var e *apperr.Error
		if errors.As(err, &e) && e.Message != "" {
			msg = e.Message
		}
		return &apperr.Error{Kind: apperr.KindBackendRejected, Code: apperr.CodeBackendRejected,
			Op: op, Message: msg, Err: err}
	}
	return attribute(op, err)
}
