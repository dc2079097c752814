package antiabuse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meucardapio/pedidos-app/antiabuse"
)

func verifierFor(t *testing.T, handler http.HandlerFunc) *antiabuse.CaptchaVerifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	verifier := antiabuse.NewCaptchaVerifier("site-key", "secret-key")
	verifier.Endpoint = server.URL
	return verifier
}

func TestCaptchaVerifyAcceptsValidToken(t *testing.T) {
	verifier := verifierFor(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("secret"))
		assert.Equal(t, "tok-123", r.PostForm.Get("response"))
		assert.Equal(t, "203.0.113.7", r.PostForm.Get("remoteip"))
		w.Write([]byte(`{"success": true}`))
	})

	err := verifier.Verify(context.Background(), "tok-123", "203.0.113.7")
	assert.NoError(t, err)
}

func TestCaptchaVerifyRejectedToken(t *testing.T) {
	verifier := verifierFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	})

	err := verifier.Verify(context.Background(), "tok-bad", "")
	assert.ErrorIs(t, err, antiabuse.ErrCaptchaRejected)
}

func TestCaptchaVerifyServiceFailureIsUnavailable(t *testing.T) {
	verifier := verifierFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.ErrorIs(t, verifier.Verify(context.Background(), "tok", ""), antiabuse.ErrCaptchaUnavailable)

	verifier = verifierFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	assert.ErrorIs(t, verifier.Verify(context.Background(), "tok", ""), antiabuse.ErrCaptchaUnavailable)
}

func TestCaptchaVerifyUnreachableServiceIsUnavailable(t *testing.T) {
	verifier := antiabuse.NewCaptchaVerifier("site-key", "secret-key")
	verifier.Endpoint = "http://127.0.0.1:1/siteverify"

	err := verifier.Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, antiabuse.ErrCaptchaUnavailable)
}

func TestCaptchaVerifyMissingToken(t *testing.T) {
	verifier := antiabuse.NewCaptchaVerifier("site-key", "secret-key")
	assert.ErrorIs(t, verifier.Verify(context.Background(), "", ""), antiabuse.ErrCaptchaTokenMissing)
	assert.ErrorIs(t, verifier.Verify(context.Background(), "   ", ""), antiabuse.ErrCaptchaTokenMissing)
}

func TestCaptchaVerifyNotConfigured(t *testing.T) {
	verifier := antiabuse.NewCaptchaVerifier("", "")
	assert.False(t, verifier.Configured())
	assert.ErrorIs(t, verifier.Verify(context.Background(), "tok", ""), antiabuse.ErrCaptchaNotConfigured)
}
