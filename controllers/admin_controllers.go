package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/meucardapio/pedidos-app/orders"
	"github.com/meucardapio/pedidos-app/repositories"
	"github.com/meucardapio/pedidos-app/utils"
)

const (
	msgLoadOrdersFailed   = "Não foi possível carregar os pedidos agora. Tente novamente em instantes."
	msgInvalidOrder       = "Pedido inválido para atualização."
	msgCannotProgress     = "Este pedido não pode avançar de status."
	msgUpdateStatusFailed = "Não foi possível atualizar o status do pedido."
	msgStaleStatus        = "Este pedido foi atualizado por outra pessoa. Recarregamos o status atual."
)

// AdminController serves the staff dashboard: order listing and status
// progression. Every route behind it requires an authenticated session.
type AdminController struct {
	Orders repositories.OrderRepository
}

func NewAdminController(orderRepo repositories.OrderRepository) *AdminController {
	return &AdminController{Orders: orderRepo}
}

// GetOrders returns all orders oldest-created-first, defensively parsed into
// the bounded admin model.
func (ac *AdminController) GetOrders(c *gin.Context) {
	utils.PrivateNoStore(c)

	rows, err := ac.Orders.ListRows(c.Request.Context())
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("failed to load orders")
		utils.RespondErrorMessage(c, http.StatusInternalServerError, msgLoadOrdersFailed)
		return
	}

	utils.RespondOK(c, http.StatusOK, gin.H{"orders": orders.ParseAdminOrders(rows)})
}

type progressRequest struct {
	CurrentStatus string `json:"currentStatus"`
}

// ProgressOrderStatus advances one order a single step along the lifecycle
// via compare-and-swap: the update applies only if the persisted status
// still equals the caller-supplied current status. On conflict the caller
// gets the authoritative fresh status instead of a silent overwrite.
func (ac *AdminController) ProgressOrderStatus(c *gin.Context) {
	utils.PrivateNoStore(c)

	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 64)
	if err != nil || orderID == 0 {
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgInvalidOrder)
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgInvalidOrder)
		return
	}

	currentStatus := orders.Status(req.CurrentStatus)
	nextStatus, ok := orders.NextStatus(currentStatus)
	if !ok {
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgCannotProgress)
		return
	}

	swapped, err := ac.Orders.UpdateStatusIf(c.Request.Context(), uint(orderID), currentStatus, nextStatus)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": orderID,
			"from":     currentStatus,
			"to":       nextStatus,
			"error":    err.Error(),
		}).Error("failed to progress order status")
		utils.RespondErrorCode(c, http.StatusInternalServerError, "unknown", msgUpdateStatusFailed)
		return
	}

	if !swapped {
		// The order was mutated concurrently since the caller last read it.
		// Re-read and hand back the authoritative status.
		persisted, readErr := ac.Orders.GetStatus(c.Request.Context(), uint(orderID))
		if readErr != nil {
			utils.ErrorLogger.WithError(readErr).Error("stale re-read failed")
		}
		info := orders.StatusFromUnknown(persisted)

		utils.InfoLogger.WithFields(logrus.Fields{
			"order_id": orderID,
			"expected": currentStatus,
			"actual":   info.Raw,
		}).Warn("stale status progression rejected")

		body := gin.H{
			"ok":                 false,
			"code":               "stale",
			"message":            msgStaleStatus,
			"currentStatusLabel": info.Label,
		}
		if info.Known {
			body["currentStatus"] = info.Status
		} else {
			body["currentStatus"] = nil
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	utils.RespondOK(c, http.StatusOK, gin.H{
		"nextStatus":      nextStatus,
		"nextStatusLabel": orders.StatusLabel(nextStatus),
	})
}
