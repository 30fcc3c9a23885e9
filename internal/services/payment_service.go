package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"residence-booking/internal/models"
	"residence-booking/internal/services/paystack"
	"residence-booking/internal/status"
	"residence-booking/monitoring"
)

// PaymentService owns the gateway boundary. The rule throughout: the gateway
// is never called while a database transaction is open, and the database is
// only written through BookingService's guarded transitions.
type PaymentService struct {
	app      core.App
	gateway  *paystack.Client
	bookings *BookingService
	monitor  *monitoring.Monitor
}

func NewPaymentService(app core.App, gateway *paystack.Client, bookings *BookingService, monitor *monitoring.Monitor) *PaymentService {
	return &PaymentService{
		app:      app,
		gateway:  gateway,
		bookings: bookings,
		monitor:  monitor,
	}
}

type InitializeResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Amount           int64  `json:"amount"`
}

// Initialize opens a checkout session for a booking awaiting payment. The
// transaction row is persisted as `initiated` before the gateway is called,
// so a webhook racing the initialize response always finds its reference.
func (s *PaymentService) Initialize(ctx context.Context, userID, userEmail, bookingID string) (*InitializeResult, error) {
	record, err := s.app.FindRecordById("bookings", bookingID)
	if err != nil {
		return nil, status.ErrBookingNotFound
	}
	if record.GetString("user") != userID {
		return nil, status.Unauthorized(userID, "booking "+bookingID)
	}
	if current := models.BookingStatus(record.GetString("status")); current != models.StatusAwaitingPayment {
		return nil, status.StateConflict("initialize payment", string(current))
	}

	amount := int64(record.GetFloat("amount_to_pay"))
	if amount <= 0 {
		return nil, status.Validation("amount_to_pay", "booking has no payable amount")
	}

	reference := "pay_" + uuid.NewString()

	collection, err := s.app.FindCollectionByNameOrId("payment_transactions")
	if err != nil {
		return nil, err
	}
	txRecord := core.NewRecord(collection)
	txRecord.Set("booking", record.Id)
	txRecord.Set("user", userID)
	txRecord.Set("provider", models.ProviderPaystack)
	txRecord.Set("reference", reference)
	txRecord.Set("amount", amount)
	txRecord.Set("status", string(models.TxInitiated))
	if err := s.app.Save(txRecord); err != nil {
		return nil, err
	}

	started := time.Now()
	session, err := s.gateway.Initialize(ctx, &paystack.InitializeRequest{
		Email:     userEmail,
		Amount:    decimal.NewFromInt(amount),
		Reference: reference,
		Metadata: map[string]any{
			"booking_id": record.Id,
		},
	})
	s.monitor.TrackGatewayCall("initialize", time.Since(started))
	if err != nil {
		s.monitor.TrackPaymentOperation("initialize", "failed")
		if ferr := s.bookings.MarkTransactionFailed(ctx, reference, nil); ferr != nil {
			slog.Error("mark transaction failed", "reference", reference, "error", ferr)
		}
		return nil, status.External("paystack", err)
	}

	s.monitor.TrackPaymentOperation("initialize", "ok")
	return &InitializeResult{
		Reference:        reference,
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Amount:           amount,
	}, nil
}

type VerifyOutcome struct {
	Booking          *models.Booking `json:"booking"`
	KeyCode          string          `json:"key_code,omitempty"`
	AlreadyProcessed bool            `json:"already_processed,omitempty"`
}

// Verify is the client-driven reconciliation path: ask the gateway for the
// truth about a reference and settle the transaction accordingly. It funnels
// into the same idempotent MarkPaid the webhook uses.
func (s *PaymentService) Verify(ctx context.Context, userID, reference string) (*VerifyOutcome, error) {
	txRecord, err := s.app.FindFirstRecordByFilter(
		"payment_transactions",
		"reference = {:reference} && provider = {:provider}",
		dbx.Params{"reference": reference, "provider": models.ProviderPaystack},
	)
	if err != nil {
		return nil, status.ErrReferenceNotFound
	}
	if txRecord.GetString("user") != userID {
		return nil, status.Unauthorized(userID, "payment "+reference)
	}

	// Short-circuit before touching the gateway: a settled reference needs
	// no second round trip.
	if models.TransactionStatus(txRecord.GetString("status")) == models.TxSuccess {
		booking, err := s.app.FindRecordById("bookings", txRecord.GetString("booking"))
		if err != nil {
			return nil, status.ErrBookingNotFound
		}
		return &VerifyOutcome{
			Booking:          models.BookingFromRecord(booking),
			AlreadyProcessed: true,
		}, nil
	}

	started := time.Now()
	result, err := s.gateway.Verify(ctx, reference)
	s.monitor.TrackGatewayCall("verify", time.Since(started))
	if err != nil {
		s.monitor.TrackPaymentOperation("verify", "gateway_error")
		return nil, status.External("paystack", err)
	}

	if !result.Successful() {
		s.monitor.TrackPaymentOperation("verify", "failed")
		if err := s.bookings.MarkTransactionFailed(ctx, reference, result.Raw); err != nil {
			return nil, err
		}
		return nil, status.Validation("reference", fmt.Sprintf("gateway reports status %q", result.Status))
	}

	paid, err := s.bookings.MarkPaid(ctx, reference, result.Raw)
	if err != nil {
		return nil, err
	}

	s.monitor.TrackPaymentOperation("verify", "ok")
	return &VerifyOutcome{
		Booking:          paid.Booking,
		KeyCode:          paid.KeyCode,
		AlreadyProcessed: paid.AlreadyProcessed,
	}, nil
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// HandleWebhook settles a gateway push. The signature gate runs before the
// body is even parsed; everything after it is idempotent, so gateway retries
// are harmless.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifySignature(body, signature) {
		s.monitor.TrackWebhookEvent("unknown", "bad_signature")
		return status.BadSignature("paystack")
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.monitor.TrackWebhookEvent("unknown", "malformed")
		return status.Validation("body", "malformed webhook payload")
	}
	if payload.Data.Reference == "" {
		s.monitor.TrackWebhookEvent(payload.Event, "malformed")
		return status.Validation("data.reference", "is required")
	}

	switch payload.Event {
	case "charge.success":
		paid, err := s.bookings.MarkPaid(ctx, payload.Data.Reference, body)
		if err != nil {
			s.monitor.TrackWebhookEvent(payload.Event, "error")
			return err
		}
		if paid.AlreadyProcessed {
			s.monitor.TrackWebhookEvent(payload.Event, "duplicate")
		} else {
			s.monitor.TrackWebhookEvent(payload.Event, "ok")
		}
		return nil

	case "charge.failed":
		if err := s.bookings.MarkTransactionFailed(ctx, payload.Data.Reference, body); err != nil {
			s.monitor.TrackWebhookEvent(payload.Event, "error")
			return err
		}
		s.monitor.TrackWebhookEvent(payload.Event, "ok")
		return nil

	default:
		// Unrecognized events are acknowledged and dropped.
		s.monitor.TrackWebhookEvent(payload.Event, "ignored")
		slog.Debug("ignoring webhook event", "event", payload.Event)
		return nil
	}
}
