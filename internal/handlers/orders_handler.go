package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/idempotency"
	"github.com/anishgrg/furnimart-orderflow/internal/orders"
	"github.com/anishgrg/furnimart-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	Service     *orders.Service
	Idempotency *idempotency.Store
	Logger      *zap.SugaredLogger
}

// RegisterOrderRoutes registers routes for the order API.
func RegisterOrderRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.PlaceOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		// Require idempotency key header so retried submissions cannot
		// create a second order.
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}

		items := make([]orders.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orders.LineItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				WoodType:  it.WoodType,
				WidthCM:   it.WidthCM,
				HeightCM:  it.HeightCM,
				DepthCM:   it.DepthCM,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}

		order, err := cfg.Service.PlaceOrder(ctx, orders.PlaceOrderInput{
			CustomerID:    req.CustomerID,
			CustomerEmail: req.CustomerEmail,
			LineItems:     items,
			Amount:        req.Amount,
		}, idempKey)
		if errors.Is(err, orders.ErrDuplicateRequest) {
			replayIdempotent(c, cfg, idempKey)
			return
		}
		if err != nil {
			cfg.Logger.Errorf("place order failed: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "place_order_failed"})
			return
		}

		// Store the response so duplicate submissions replay it.
		responseBody, _ := json.Marshal(order)
		if err := cfg.Idempotency.MarkDone(ctx, idempKey, string(responseBody), http.StatusCreated); err != nil {
			cfg.Logger.Errorf("mark idempotency done for %s: %s", idempKey, err.Error())
		}

		c.Header("Location", fmt.Sprintf("/orders/%s", order.OrderID))
		c.JSON(http.StatusCreated, order)
	})

	r.GET("/orders/:id", func(c *gin.Context) {
		order, err := cfg.Service.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeDomainError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.GET("/orders", func(c *gin.Context) {
		var filter orders.ListFilter
		if raw := c.Query("status"); raw != "" {
			status, ok := orders.ParseStatus(raw)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
				return
			}
			filter.Status = &status
		}
		if raw := c.Query("payment_status"); raw != "" {
			ps, ok := orders.ParsePaymentStatus(raw)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_payment_status"})
				return
			}
			filter.PaymentStatus = &ps
		}

		limit := int64(20)
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
				return
			}
			limit = n
		}

		page, err := cfg.Service.ListOrders(c.Request.Context(), filter, int32(limit), c.Query("cursor"))
		if err != nil {
			writeDomainError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, page)
	})

	r.POST("/orders/:id/advance", func(c *gin.Context) {
		var req validation.AdvanceStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		target, ok := orders.ParseStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
			return
		}

		order, err := cfg.Service.AdvanceStatus(c.Request.Context(), c.Param("id"), target)
		if err != nil {
			writeDomainError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.POST("/orders/:id/cancel", func(c *gin.Context) {
		order, err := cfg.Service.CancelOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeDomainError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.PUT("/orders/:id/payment", func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("id")

		var req validation.RecordPaymentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		// Payment-gateway callbacks can re-fire the same redirect; when the
		// gateway passes an idempotency key the duplicate replays the first
		// response instead of re-recording.
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey != "" {
			created, err := cfg.Idempotency.CreateIfNotExists(ctx, idempKey, orderID)
			if err != nil {
				cfg.Logger.Errorf("idempotency check for %s: %s", idempKey, err.Error())
				c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
				return
			}
			if !created {
				replayIdempotent(c, cfg, idempKey)
				return
			}
		}

		order, err := cfg.Service.RecordPayment(ctx, orderID, req.AmountPaid)
		if err != nil {
			if idempKey != "" {
				_ = cfg.Idempotency.MarkFailed(ctx, idempKey, err.Error())
			}
			writeDomainError(c, cfg, err)
			return
		}

		if idempKey != "" {
			responseBody, _ := json.Marshal(order)
			if err := cfg.Idempotency.MarkDone(ctx, idempKey, string(responseBody), http.StatusOK); err != nil {
				cfg.Logger.Errorf("mark idempotency done for %s: %s", idempKey, err.Error())
			}
		}
		c.JSON(http.StatusOK, order)
	})
}

// replayIdempotent answers a request whose idempotency key was already used,
// based on what the first attempt recorded.
func replayIdempotent(c *gin.Context, cfg HandlerConfig, idempKey string) {
	rec, err := cfg.Idempotency.Get(c.Request.Context(), idempKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_record_missing"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	case idempotency.StatusFailed:
		// let client retry
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "order_id": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func writeDomainError(c *gin.Context, cfg HandlerConfig, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, orders.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition"})
	case errors.Is(err, orders.ErrPaymentIncomplete):
		c.JSON(http.StatusConflict, gin.H{"error": "payment_incomplete"})
	case errors.Is(err, orders.ErrIllegalCancellation):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal_cancellation"})
	case errors.Is(err, orders.ErrOverPayment):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "over_payment"})
	case errors.Is(err, orders.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent_update", "msg": "please retry"})
	default:
		cfg.Logger.Errorf("order request failed: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
