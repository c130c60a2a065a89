package phone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/pkg/utils"
)

const (
	DefaultIdentityBaseURL    = "https://identitytoolkit.googleapis.com/v1"
	DefaultSecureTokenBaseURL = "https://securetoken.googleapis.com/v1"
)

// FirebaseConfig configures the Identity Toolkit REST client.
type FirebaseConfig struct {
	APIKey             string
	IdentityBaseURL    string
	SecureTokenBaseURL string
	// RecaptchaToken is forwarded with sendVerificationCode. Test phone
	// numbers configured in the console accept any value.
	RecaptchaToken string
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Firebase implements Provider against Firebase phone auth.
type Firebase struct {
	cfg    FirebaseConfig
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewFirebase(cfg FirebaseConfig) *Firebase {
	if cfg.IdentityBaseURL == "" {
		cfg.IdentityBaseURL = DefaultIdentityBaseURL
	}
	if cfg.SecureTokenBaseURL == "" {
		cfg.SecureTokenBaseURL = DefaultSecureTokenBaseURL
	}
	cfg.IdentityBaseURL = strings.TrimRight(cfg.IdentityBaseURL, "/")
	cfg.SecureTokenBaseURL = strings.TrimRight(cfg.SecureTokenBaseURL, "/")

	h := cfg.HTTPClient
	if h == nil {
		h = &http.Client{Timeout: 30 * time.Second}
	}
	return &Firebase{cfg: cfg, http: h, logger: logging.OrNop(cfg.Logger), now: time.Now}
}

func (f *Firebase) RequestCode(ctx context.Context, e164 string) (string, error) {
	const op = "phone.RequestCode"
	var out struct {
		SessionInfo string `json:"sessionInfo"`
	}
	err := f.postJSON(ctx, op, f.identityURL("accounts:sendVerificationCode"), map[string]string{
		"phoneNumber":    e164,
		"recaptchaToken": f.cfg.RecaptchaToken,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.SessionInfo == "" {
		return "", &apperr.Error{Kind: apperr.KindProviderUnavailable, Code: apperr.CodeProviderUnavailable,
			Op: op, Message: "provider returned no session"}
	}
	f.logger.Info("verification code sent", zap.String("phone", utils.MaskPhone(e164)))
	return out.SessionInfo, nil
}

func (f *Firebase) Confirm(ctx context.Context, verificationID, code string) (Credential, error) {
	const op = "phone.Confirm"
	var out struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
		PhoneNumber  string `json:"phoneNumber"`
	}
	err := f.postJSON(ctx, op, f.identityURL("accounts:signInWithPhoneNumber"), map[string]string{
		"sessionInfo": verificationID,
		"code":        code,
	}, &out)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    f.expiry(out.ExpiresIn),
		Phone:        out.PhoneNumber,
	}, nil
}

func (f *Firebase) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	const op = "phone.Refresh"
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.cfg.SecureTokenBaseURL+"/token?key="+url.QueryEscape(f.cfg.APIKey),
		strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, apperr.Wrap(apperr.KindProviderUnavailable, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := f.do(op, req, &out); err != nil {
		return Credential{}, err
	}
	return Credential{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    f.expiry(out.ExpiresIn),
	}, nil
}

func (f *Firebase) identityURL(method string) string {
	return f.cfg.IdentityBaseURL + "/" + method + "?key=" + url.QueryEscape(f.cfg.APIKey)
}

func (f *Firebase) expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return f.now().Add(time.Duration(secs) * time.Second)
}

func (f *Firebase) postJSON(ctx context.Context, op, target string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(apperr.KindProviderUnavailable, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(buf))
	if err != nil {
		return apperr.Wrap(apperr.KindProviderUnavailable, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.do(op, req, out)
}

func (f *Firebase) do(op string, req *http.Request, out any) error {
	resp, err := f.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &apperr.Error{Kind: apperr.KindTimeout, Code: apperr.CodeTimeout, Op: op, Err: err}
		}
		return &apperr.Error{Kind: apperr.KindProviderUnavailable, Code: apperr.CodeProviderUnavailable,
			Op: op, Message: "verification provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &apperr.Error{Kind: apperr.KindProviderUnavailable, Code: apperr.CodeProviderUnavailable, Op: op, Err: err}
	}

	if resp.StatusCode >= 300 {
		var env struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &env)
		e := MapError(op, resp.StatusCode, env.Error.Message)
		f.logger.Warn("verification provider rejected request",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("code", e.Code))
		return e
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.Error{Kind: apperr.KindProviderUnavailable, Code: apperr.CodeProviderUnavailable,
			Op: op, Message: "malformed provider response", Err: err}
	}
	return nil
}

// MapError turns a provider error string such as
// "TOO_MANY_ATTEMPTS_TRY_LATER : Too many attempts" into the taxonomy.
func MapError(op string, status int, message string) *apperr.Error {
	reason := strings.TrimSpace(message)
	if i := strings.IndexAny(reason, " :"); i >= 0 {
		reason = reason[:i]
	}

	e := &apperr.Error{Op: op, Message: message}
	switch reason {
	case "INVALID_PHONE_NUMBER", "MISSING_PHONE_NUMBER":
		e.Kind, e.Code = apperr.KindInvalidPhoneNumber, apperr.CodeInvalidPhoneNumber
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "QUOTA_EXCEEDED":
		e.Kind, e.Code = apperr.KindRateLimited, apperr.CodeRateLimited
	case "INVALID_CODE", "MISSING_CODE", "INVALID_SESSION_INFO":
		e.Kind, e.Code = apperr.KindInvalidCode, apperr.CodeInvalidCode
	case "SESSION_EXPIRED", "CODE_EXPIRED":
		e.Kind, e.Code = apperr.KindCodeExpired, apperr.CodeCodeExpired
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_DISABLED", "USER_NOT_FOUND":
		e.Kind, e.Code = apperr.KindUnauthorized, apperr.CodeTokenExpired
	default:
		if status == http.StatusTooManyRequests {
			e.Kind, e.Code = apperr.KindRateLimited, apperr.CodeRateLimited
		} else {
			e.Kind, e.Code = apperr.KindProviderUnavailable, apperr.CodeProviderUnavailable
		}
	}
	return e
}
