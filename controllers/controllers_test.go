package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/meucardapio/pedidos-app/antiabuse"
	"github.com/meucardapio/pedidos-app/catalog"
	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/router"
	"github.com/meucardapio/pedidos-app/utils"
)

const testMenuJSON = `[
	{"id": "x-burger", "name": "X-Burger", "priceCents": 2500,
	 "extras": [
		{"id": "bacon", "name": "Bacon", "priceCents": 400},
		{"id": "queijo", "name": "Queijo extra", "priceCents": 300}
	 ]},
	{"id": "refrigerante-lata", "name": "Refrigerante lata", "priceCents": 700},
	{"id": "prato-do-dia", "name": "Prato do dia"}
]`

var testDBSequence atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("controller-test-secret")
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ctrltest%d?mode=memory&cache=shared", testDBSequence.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Customer{}, &models.Order{}))
	return db
}

func setupServer(t *testing.T, mutate func(*router.Options)) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := setupDB(t)
	cat, err := catalog.Parse([]byte(testMenuJSON))
	require.NoError(t, err)

	opts := router.Options{
		DB:                   db,
		Catalog:              cat,
		Limiter:              antiabuse.NewLimiter(antiabuse.NewMemoryStore(time.Minute)),
		OrderRateLimitMax:    100,
		OrderRateLimitWindow: time.Minute,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return router.SetupRouter(opts), db
}

func doJSON(engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func validSubmission() map[string]any {
	return map[string]any{
		"customerName":  "Ana Souza",
		"customerEmail": "ana@example.com",
		"customerPhone": "(11) 99999-9999",
		"paymentMethod": "pix",
		"notes":         "sem cebola",
		"items": []map[string]any{
			{"menuItemId": "x-burger", "quantity": 2, "extraIds": []string{"bacon"}},
			{"menuItemId": "refrigerante-lata", "quantity": 1},
		},
	}
}

func seedStaffUser(t *testing.T, db *gorm.DB) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3nha-forte"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Name:     "Gerente",
		Email:    "gerente@example.com",
		Password: string(hash),
		Role:     "admin",
	}).Error)
}

func staffToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(1, "admin")
	require.NoError(t, err)
	return "Bearer " + token
}

// newTurnstileStub fakes the verification service with a fixed response.
func newTurnstileStub(t *testing.T, statusCode int, response string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		if response != "" {
			w.Write([]byte(response))
		}
	}))
	t.Cleanup(server.Close)
	return server
}
