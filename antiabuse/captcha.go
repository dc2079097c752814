package antiabuse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTurnstileEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	// ErrCaptchaNotConfigured: the gate is required but site/secret keys are
	// missing. A deployment problem, not a user problem.
	ErrCaptchaNotConfigured = errors.New("captcha keys not configured")
	// ErrCaptchaTokenMissing: the submission carried no token.
	ErrCaptchaTokenMissing = errors.New("captcha token missing")
	// ErrCaptchaRejected: the verification service explicitly said no.
	ErrCaptchaRejected = errors.New("captcha token rejected")
	// ErrCaptchaUnavailable: we could not complete verification. Fails
	// closed; a broken CAPTCHA dependency must not become an abuse bypass.
	ErrCaptchaUnavailable = errors.New("captcha verification unavailable")
)

// CaptchaVerifier calls the Turnstile verification service.
type CaptchaVerifier struct {
	SiteKey   string
	SecretKey string
	Endpoint  string
	Client    *http.Client
}

// NewCaptchaVerifier builds a verifier with an explicit transport timeout;
// a hung verification call must not block a submission indefinitely.
func NewCaptchaVerifier(siteKey, secretKey string) *CaptchaVerifier {
	return &CaptchaVerifier{
		SiteKey:   siteKey,
		SecretKey: secretKey,
		Endpoint:  defaultTurnstileEndpoint,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether both keys are present.
func (v *CaptchaVerifier) Configured() bool {
	return v.SiteKey != "" && v.SecretKey != ""
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks one submitted token. Returns nil when the token passes, or
// one of the Captcha errors above.
func (v *CaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Configured() {
		return ErrCaptchaNotConfigured
	}
	if strings.TrimSpace(token) == "" {
		return ErrCaptchaTokenMissing
	}

	form := url.Values{}
	form.Set("secret", v.SecretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrCaptchaUnavailable, resp.StatusCode)
	}

	var body turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}

	if !body.Success {
		return fmt.Errorf("%w: %s", ErrCaptchaRejected, strings.Join(body.ErrorCodes, ","))
	}
	return nil
}
