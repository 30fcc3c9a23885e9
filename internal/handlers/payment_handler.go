package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/models"
	"residence-booking/internal/services"
	"residence-booking/internal/services/paystack"
	"residence-booking/internal/status"
)

type PaymentHandler struct {
	app      *pocketbase.PocketBase
	payments *services.PaymentService
}

func NewPaymentHandler(app *pocketbase.PocketBase, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		app:      app,
		payments: payments,
	}
}

type initializeRequest struct {
	BookingID string `json:"booking_id"`
}

// Initialize opens a checkout session for a booking awaiting payment.
func (h *PaymentHandler) Initialize(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req initializeRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.BookingID == "" {
		return apis.NewBadRequestError("booking_id is required", nil)
	}

	result, err := h.payments.Initialize(e.Request.Context(), e.Auth.Id, e.Auth.Email(), req.BookingID)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// Verify reconciles a reference against the gateway on behalf of the payer.
// The check-in code is included exactly once: on the call that settles the
// payment.
func (h *PaymentHandler) Verify(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reference := e.Request.PathValue("reference")
	if reference == "" {
		return apis.NewBadRequestError("reference is required", nil)
	}

	outcome, err := h.payments.Verify(e.Request.Context(), e.Auth.Id, reference)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, outcome)
}

// Transactions lists the payer's own payment attempts.
func (h *PaymentHandler) Transactions(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		"payment_transactions",
		"user = {:userId}",
		"-created", 100, 0,
		dbx.Params{"userId": e.Auth.Id},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to list transactions", err)
	}

	out := make([]*models.PaymentTransaction, 0, len(records))
	for _, r := range records {
		out = append(out, models.PaymentTransactionFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"transactions": out})
}

// Webhook is the unauthenticated gateway callback. A bad signature is the
// only 401; everything else is acknowledged with 200 so the gateway stops
// retrying, and failures are logged for reconciliation.
func (h *PaymentHandler) Webhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(io.LimitReader(e.Request.Body, 1<<20))
	if err != nil {
		return apis.NewBadRequestError("Failed to read body", err)
	}

	signature := e.Request.Header.Get(paystack.SignatureHeader)
	if err := h.payments.HandleWebhook(e.Request.Context(), body, signature); err != nil {
		var sigErr *status.SignatureError
		if errors.As(err, &sigErr) {
			return apis.NewUnauthorizedError("Invalid signature", nil)
		}
		slog.Error("webhook processing", "error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"status": "ok"})
}
