package controllers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meucardapio/pedidos-app/antiabuse"
	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/router"
)

func TestGetMenuListsCatalog(t *testing.T) {
	engine, _ := setupServer(t, nil)

	recorder := doJSON(engine, http.MethodGet, "/menu", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["ok"])
	assert.Len(t, body["items"], 3)
}

func TestCreateOrderSuccess(t *testing.T) {
	engine, db := setupServer(t, nil)

	recorder := doJSON(engine, http.MethodPost, "/orders", validSubmission(), nil)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["ok"])
	reference, _ := body["orderReference"].(string)
	assert.True(t, strings.HasPrefix(reference, "PED-"), "got %q", reference)

	var order models.Order
	require.NoError(t, db.First(&order).Error)
	assert.Equal(t, reference, order.Reference)
	assert.Equal(t, "aguardando_confirmacao", order.Status)
	assert.Equal(t, "Ana Souza", order.CustomerName)
	require.NotNil(t, order.PaymentMethod)
	assert.Equal(t, "pix", *order.PaymentMethod)
	require.NotNil(t, order.Notes)
	assert.Equal(t, "sem cebola", *order.Notes)
	// priced snapshot, not a catalog pointer
	assert.Contains(t, order.Items, `"unitPriceCents":2500`)
	assert.Contains(t, order.Items, `"lineTotalCents":5800`)

	var customer models.Customer
	require.NoError(t, db.First(&customer).Error)
	assert.Equal(t, customer.ID, order.CustomerID)
	assert.Equal(t, "ana@example.com", customer.EmailNormalized)
	assert.Equal(t, "11999999999", customer.PhoneNormalized)
}

func TestCreateOrderReusesExistingCustomer(t *testing.T) {
	engine, db := setupServer(t, nil)

	first := doJSON(engine, http.MethodPost, "/orders", validSubmission(), nil)
	require.Equal(t, http.StatusCreated, first.Code)

	// same contact, different casing: still one customer row
	again := validSubmission()
	again["customerEmail"] = "ANA@example.com"
	second := doJSON(engine, http.MethodPost, "/orders", again, nil)
	require.Equal(t, http.StatusCreated, second.Code)

	var customers, orderRows int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&customers).Error)
	require.NoError(t, db.Model(&models.Order{}).Count(&orderRows).Error)
	assert.Equal(t, int64(1), customers)
	assert.Equal(t, int64(2), orderRows)
}

func TestCreateOrderRejectsUnknownCartEntries(t *testing.T) {
	engine, db := setupServer(t, nil)

	unknownItem := validSubmission()
	unknownItem["items"] = []map[string]any{{"menuItemId": "hot-dog", "quantity": 1}}

	unknownExtra := validSubmission()
	unknownExtra["items"] = []map[string]any{
		{"menuItemId": "x-burger", "quantity": 1, "extraIds": []string{"bacon-extra"}},
	}

	for name, payload := range map[string]map[string]any{"item": unknownItem, "extra": unknownExtra} {
		recorder := doJSON(engine, http.MethodPost, "/orders", payload, nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code, name)
		body := decodeBody(t, recorder)
		assert.Equal(t, "validation", body["code"], name)
	}

	// rejected submissions leave no rows behind
	var customers, orderRows int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&customers).Error)
	require.NoError(t, db.Model(&models.Order{}).Count(&orderRows).Error)
	assert.Zero(t, customers)
	assert.Zero(t, orderRows)
}

func TestCreateOrderRejectsUnpricedItem(t *testing.T) {
	engine, _ := setupServer(t, nil)

	payload := validSubmission()
	payload["items"] = []map[string]any{{"menuItemId": "prato-do-dia", "quantity": 1}}

	recorder := doJSON(engine, http.MethodPost, "/orders", payload, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "validation", body["code"])
	assert.Contains(t, body["message"], "sem preço")
}

func TestCreateOrderRequiresJSONContentType(t *testing.T) {
	engine, _ := setupServer(t, nil)

	recorder := doJSON(engine, http.MethodPost, "/orders", validSubmission(),
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusUnsupportedMediaType, recorder.Code)
	assert.Equal(t, "validation", decodeBody(t, recorder)["code"])
}

func TestCreateOrderRejectsOversizedBody(t *testing.T) {
	engine, _ := setupServer(t, nil)

	payload := validSubmission()
	payload["padding"] = strings.Repeat("a", 40*1024)

	recorder := doJSON(engine, http.MethodPost, "/orders", payload, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
	assert.Equal(t, "validation", decodeBody(t, recorder)["code"])
}

func TestCreateOrderRejectsMalformedJSON(t *testing.T) {
	engine, _ := setupServer(t, nil)

	recorder := doJSON(engine, http.MethodPost, "/orders", `{"customerName": `, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "validation", decodeBody(t, recorder)["code"])
}

func TestCreateOrderThrottledAfterLimit(t *testing.T) {
	engine, db := setupServer(t, func(opts *router.Options) {
		opts.OrderRateLimitMax = 2
	})

	for i := 0; i < 2; i++ {
		recorder := doJSON(engine, http.MethodPost, "/orders", validSubmission(), nil)
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	throttled := doJSON(engine, http.MethodPost, "/orders", validSubmission(), nil)
	require.Equal(t, http.StatusTooManyRequests, throttled.Code)
	assert.Equal(t, "validation", decodeBody(t, throttled)["code"])
	assert.NotEmpty(t, throttled.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", throttled.Header().Get("Cache-Control"))

	// the throttled attempt created nothing
	var orderRows int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderRows).Error)
	assert.Equal(t, int64(2), orderRows)
}

func TestCreateOrderThrottlesPerClient(t *testing.T) {
	engine, _ := setupServer(t, func(opts *router.Options) {
		opts.OrderRateLimitMax = 1
	})

	clientA := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	clientB := map[string]string{"X-Forwarded-For": "198.51.100.9"}

	require.Equal(t, http.StatusCreated, doJSON(engine, http.MethodPost, "/orders", validSubmission(), clientA).Code)
	require.Equal(t, http.StatusTooManyRequests, doJSON(engine, http.MethodPost, "/orders", validSubmission(), clientA).Code)

	// a different client is unaffected
	assert.Equal(t, http.StatusCreated, doJSON(engine, http.MethodPost, "/orders", validSubmission(), clientB).Code)
}

func TestCreateOrderCaptchaRequired(t *testing.T) {
	verifier := antiabuse.NewCaptchaVerifier("site-key", "secret-key")
	engine, _ := setupServer(t, func(opts *router.Options) {
		opts.Captcha = verifier
		opts.CaptchaEnabled = true
	})

	// no token at all: a user-side validation failure
	recorder := doJSON(engine, http.MethodPost, "/orders", validSubmission(), nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "validation", body["code"])
	assert.Contains(t, body["message"], "desafio de segurança")
}

func TestCreateOrderCaptchaVerification(t *testing.T) {
	cases := []struct {
		name       string
		response   string
		statusCode int
		wantStatus int
		wantCode   string
	}{
		{"accepted", `{"success": true}`, http.StatusOK, http.StatusCreated, ""},
		{"rejected", `{"success": false}`, http.StatusOK, http.StatusBadRequest, "validation"},
		{"service down", "", http.StatusInternalServerError, http.StatusServiceUnavailable, "setup"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTurnstileStub(t, tc.statusCode, tc.response)

			verifier := antiabuse.NewCaptchaVerifier("site-key", "secret-key")
			verifier.Endpoint = server.URL
			engine, _ := setupServer(t, func(opts *router.Options) {
				opts.Captcha = verifier
				opts.CaptchaEnabled = true
			})

			payload := validSubmission()
			payload["turnstileToken"] = "tok-123"
			recorder := doJSON(engine, http.MethodPost, "/orders", payload, nil)
			require.Equal(t, tc.wantStatus, recorder.Code, recorder.Body.String())
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, decodeBody(t, recorder)["code"])
			}
		})
	}
}

func TestCreateOrderCaptchaMisconfiguredFailsClosed(t *testing.T) {
	engine, _ := setupServer(t, func(opts *router.Options) {
		opts.CaptchaEnabled = true
		opts.Captcha = antiabuse.NewCaptchaVerifier("", "")
	})

	payload := validSubmission()
	payload["turnstileToken"] = "tok-123"
	recorder := doJSON(engine, http.MethodPost, "/orders", payload, nil)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "setup", decodeBody(t, recorder)["code"])
}

func TestPing(t *testing.T) {
	engine, _ := setupServer(t, nil)
	recorder := doJSON(engine, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
