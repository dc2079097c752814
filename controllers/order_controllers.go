package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/meucardapio/pedidos-app/antiabuse"
	"github.com/meucardapio/pedidos-app/catalog"
	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/orders"
	"github.com/meucardapio/pedidos-app/repositories"
	"github.com/meucardapio/pedidos-app/utils"
)

const maxRequestBodyBytes = 32 * 1024

const (
	msgInvalidContentType = "Formato de requisição inválido. Envie os dados em JSON."
	msgBodyTooLarge       = "Requisição muito grande. Reduza os dados e tente novamente."
	msgMalformedBody      = "Requisição inválida. Atualize a página e tente novamente."
	msgCaptchaMissing     = "Confirme o desafio de segurança para enviar o pedido."
	msgCaptchaRejected    = "Não foi possível validar o desafio de segurança. Tente novamente."
)

// OrderController serves the public submission endpoint and the menu.
type OrderController struct {
	Catalog        *catalog.Catalog
	Customers      repositories.CustomerRepository
	Orders         repositories.OrderRepository
	Captcha        *antiabuse.CaptchaVerifier
	CaptchaEnabled bool
}

func NewOrderController(cat *catalog.Catalog, customers repositories.CustomerRepository, orderRepo repositories.OrderRepository, captcha *antiabuse.CaptchaVerifier, captchaEnabled bool) *OrderController {
	return &OrderController{
		Catalog:        cat,
		Customers:      customers,
		Orders:         orderRepo,
		Captcha:        captcha,
		CaptchaEnabled: captchaEnabled,
	}
}

type submitRequest struct {
	orders.CustomerInput
	TurnstileToken string            `json:"turnstileToken"`
	Items          []orders.CartLine `json:"items"`
}

// GetMenu lists the catalog for the customer UI.
func (oc *OrderController) GetMenu(c *gin.Context) {
	utils.NoStore(c)
	utils.RespondOK(c, http.StatusOK, gin.H{"items": oc.Catalog.Items()})
}

// CreateOrder is the public submission endpoint. The rate-limit gate runs as
// middleware before this handler; everything else (content negotiation,
// CAPTCHA, normalization, identity resolution, insert) happens here, in that
// order, and fails closed.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	utils.NoStore(c)

	contentType := c.GetHeader("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		utils.RespondErrorCode(c, http.StatusUnsupportedMediaType, "validation", msgInvalidContentType)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyBytes)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.RespondErrorCode(c, http.StatusRequestEntityTooLarge, "validation", msgBodyTooLarge)
			return
		}
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgMalformedBody)
		return
	}

	var req submitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgMalformedBody)
		return
	}

	if !oc.verifyCaptcha(c, req.TurnstileToken) {
		return
	}

	draft, err := orders.Normalize(req.CustomerInput, req.Items, oc.Catalog)
	if err != nil {
		var submitErr *orders.SubmitError
		if errors.As(err, &submitErr) {
			utils.RespondErrorCode(c, utils.StatusForCode(string(submitErr.Code)), string(submitErr.Code), submitErr.Message)
			return
		}
		utils.RespondErrorCode(c, http.StatusInternalServerError, "unknown", orders.MsgSubmitFailed)
		return
	}

	customerID, err := repositories.ResolveOrCreateCustomer(c.Request.Context(), oc.Customers, draft)
	if err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, "unknown", orders.MsgSubmitFailed)
		return
	}

	itemsJSON, err := json.Marshal(draft.Items)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("order items snapshot marshal failed")
		utils.RespondErrorCode(c, http.StatusInternalServerError, "unknown", orders.MsgSubmitFailed)
		return
	}

	order := &models.Order{
		CustomerID:    customerID,
		CustomerName:  draft.CustomerName,
		CustomerEmail: draft.CustomerEmail,
		CustomerPhone: draft.CustomerPhone,
		Items:         string(itemsJSON),
		Status:        string(orders.StatusAwaitingConfirmation),
	}
	if draft.PaymentMethod != "" {
		method := string(draft.PaymentMethod)
		order.PaymentMethod = &method
	}
	if draft.Notes != "" {
		notes := draft.Notes
		order.Notes = &notes
	}

	if err := oc.Orders.Insert(c.Request.Context(), order); err != nil {
		utils.ErrorLogger.WithError(err).Error("order insert failed")
		utils.RespondErrorCode(c, http.StatusInternalServerError, "unknown", orders.MsgSubmitFailed)
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"reference": order.Reference,
		"lines":     len(draft.Items),
	}).Info("order created")

	utils.RespondOK(c, http.StatusCreated, gin.H{"orderReference": order.Reference})
}

// verifyCaptcha enforces the CAPTCHA layer when enabled. Verification
// infrastructure failures fail closed as setup errors; only an explicit
// rejection (or missing token) is a validation failure.
func (oc *OrderController) verifyCaptcha(c *gin.Context, token string) bool {
	if !oc.CaptchaEnabled {
		return true
	}

	if oc.Captcha == nil || !oc.Captcha.Configured() {
		utils.ErrorLogger.Error("captcha required but site/secret keys missing")
		utils.RespondErrorCode(c, http.StatusServiceUnavailable, "setup", orders.MsgSetupUnavailable)
		return false
	}

	err := oc.Captcha.Verify(c.Request.Context(), token, "")
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, antiabuse.ErrCaptchaTokenMissing):
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgCaptchaMissing)
	case errors.Is(err, antiabuse.ErrCaptchaRejected):
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgCaptchaRejected)
	default:
		utils.ErrorLogger.WithError(err).Error("captcha verification unavailable")
		utils.RespondErrorCode(c, http.StatusServiceUnavailable, "setup", orders.MsgSetupUnavailable)
	}
	return false
}
