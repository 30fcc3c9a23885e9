package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/models"
	"residence-booking/internal/services/notify"
	"residence-booking/internal/status"
	"residence-booking/monitoring"
)

// BookingService owns the booking lifecycle. Every mutation is a named
// transition executed inside a single transaction: read current status,
// validate the precondition, write the new status. Nothing else writes
// booking status.
type BookingService struct {
	app      core.App
	keycodes *KeyCodeService
	notifier notify.Notifier
	monitor  *monitoring.Monitor
}

func NewBookingService(app core.App, keycodes *KeyCodeService, notifier notify.Notifier, monitor *monitoring.Monitor) *BookingService {
	return &BookingService{
		app:      app,
		keycodes: keycodes,
		notifier: notifier,
		monitor:  monitor,
	}
}

// applyTransition is the only status writer. It refuses anything the state
// machine table does not allow.
func applyTransition(r *core.Record, operation string, to models.BookingStatus) error {
	from := models.BookingStatus(r.GetString("status"))
	if !from.CanTransitionTo(to) {
		return status.StateConflict(operation, string(from))
	}
	r.Set("status", string(to))
	return nil
}

type CreateRequestInput struct {
	ListingID        string     `json:"listing_id"`
	DurationDays     int        `json:"duration_days"`
	DesiredStartDate *time.Time `json:"desired_start_date,omitempty"`
	Guests           int        `json:"guests"`
	CustomerNote     string     `json:"customer_note,omitempty"`
}

type CreateRequestResult struct {
	Booking *models.Booking `json:"booking"`

	// AvailabilityWarning is set when the desired dates are already taken.
	// The request still goes through; the owner decides.
	AvailabilityWarning bool `json:"availability_warning,omitempty"`
}

// CreateRequest opens a booking in `requested` and freezes the price snapshot.
func (s *BookingService) CreateRequest(ctx context.Context, userID string, input CreateRequestInput) (*CreateRequestResult, error) {
	if input.DurationDays < 1 {
		return nil, status.Validation("duration_days", "must be >= 1")
	}

	listingRecord, err := s.app.FindRecordById("listings", input.ListingID)
	if err != nil {
		return nil, status.ErrListingNotFound
	}
	listing := models.ListingFromRecord(listingRecord)
	if !listing.IsActive {
		return nil, status.Validation("listing", "listing is not active")
	}
	if input.Guests < 1 || input.Guests > listing.MaxGuests {
		return nil, status.Validation("guests", fmt.Sprintf("must be between 1 and %d", listing.MaxGuests))
	}

	collection, err := s.app.FindCollectionByNameOrId("bookings")
	if err != nil {
		return nil, err
	}

	record := core.NewRecord(collection)
	record.Set("listing", listing.ID)
	record.Set("user", userID)
	record.Set("duration_days", input.DurationDays)
	record.Set("guests", input.Guests)
	record.Set("customer_note", input.CustomerNote)
	record.Set("status", string(models.StatusRequested))
	record.Set("price_per_night", listing.PricePerNight)
	record.Set("total_amount", ComputeTotal(listing.PricePerNight, input.DurationDays))
	record.Set("payout_status", string(models.PayoutUnpaid))
	if input.DesiredStartDate != nil {
		record.Set("desired_start_date", input.DesiredStartDate.UTC())
	}

	if err := s.app.Save(record); err != nil {
		return nil, err
	}

	result := &CreateRequestResult{Booking: models.BookingFromRecord(record)}

	if input.DesiredStartDate != nil {
		end := input.DesiredStartDate.AddDate(0, 0, input.DurationDays)
		available, err := IsAvailable(s.app, listing.ID, *input.DesiredStartDate, end, record.Id)
		if err == nil && !available {
			result.AvailabilityWarning = true
		}
	}

	s.notifier.PushToUser(listing.OwnerID, notify.Event{
		Type:      "booking_request",
		Title:     "New booking request",
		Body:      fmt.Sprintf("A client wants to book %s for %d nights", listing.Title, input.DurationDays),
		BookingID: record.Id,
		URL:       "/owner/inbox",
	})

	return result, nil
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type DecisionInput struct {
	Action    string                `json:"action"`
	StartDate *time.Time            `json:"start_date,omitempty"`
	OwnerNote string                `json:"owner_note,omitempty"`
	Proposals []models.DateProposal `json:"proposals,omitempty"`
}

// Decide executes the owner's approve/reject on a requested booking. Approve
// collapses directly into awaiting_payment: the confirmed dates, the
// recomputed total and the payment amounts are committed atomically with the
// availability check, so two overlapping approvals cannot both land.
func (s *BookingService) Decide(ctx context.Context, ownerID, bookingID string, input DecisionInput) (*models.Booking, error) {
	if input.Action != ActionApprove && input.Action != ActionReject {
		return nil, status.Validation("action", "must be approve or reject")
	}

	var booking *models.Booking
	var clientID string

	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("bookings", bookingID)
		if err != nil {
			return status.ErrBookingNotFound
		}

		listingRecord, err := txApp.FindRecordById("listings", record.GetString("listing"))
		if err != nil {
			return status.ErrListingNotFound
		}
		if listingRecord.GetString("owner") != ownerID {
			return status.Unauthorized(ownerID, "booking "+bookingID)
		}

		if current := models.BookingStatus(record.GetString("status")); current != models.StatusRequested {
			s.monitor.TrackTransitionFailure("decision", "state_conflict")
			return status.StateConflict("decision", string(current))
		}

		now := time.Now().UTC()
		record.Set("owner_note", input.OwnerNote)

		if input.Action == ActionApprove {
			if err := s.approve(txApp, record, listingRecord, input.StartDate, now); err != nil {
				return err
			}
		} else {
			if err := s.reject(txApp, record, input.Proposals, now); err != nil {
				return err
			}
		}

		if err := txApp.Save(record); err != nil {
			return err
		}

		booking = models.BookingFromRecord(record)
		clientID = record.GetString("user")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Action == ActionApprove {
		s.monitor.TrackTransition(string(models.StatusRequested), string(models.StatusAwaitingPayment))
		s.notifier.PushToUser(clientID, notify.Event{
			Type:      "booking_approved",
			Title:     "Booking approved",
			Body:      "The owner accepted your request. You can now pay the deposit.",
			BookingID: bookingID,
			URL:       fmt.Sprintf("/bookings/%s", bookingID),
		})
	} else {
		s.monitor.TrackTransition(string(models.StatusRequested), string(models.StatusRejected))
		s.notifier.PushToUser(clientID, notify.Event{
			Type:      "booking_rejected",
			Title:     "Booking rejected",
			Body:      "The owner indicated these dates are not available.",
			BookingID: bookingID,
		})
	}

	return booking, nil
}

func (s *BookingService) approve(txApp core.App, record, listingRecord *core.Record, startDate *time.Time, now time.Time) error {
	start := startDate
	if start == nil {
		if desired := record.GetDateTime("desired_start_date"); !desired.IsZero() {
			t := desired.Time()
			start = &t
		}
	}
	if start == nil {
		return status.Validation("start_date", "a start date (or the client's desired date) is required to approve")
	}

	duration := record.GetInt("duration_days")
	if duration < 1 {
		duration = 1
	}
	end := start.AddDate(0, 0, duration)

	available, err := IsAvailable(txApp, listingRecord.Id, *start, end, record.Id)
	if err != nil {
		return err
	}
	if !available {
		s.monitor.TrackTransitionFailure("approve", "availability_conflict")
		return status.AvailabilityConflict(
			listingRecord.Id,
			start.Format("2006-01-02"),
			end.Format("2006-01-02"),
		)
	}

	quote := PriceQuote(int64(record.GetFloat("price_per_night")), duration)

	if err := applyTransition(record, "approve", models.StatusAwaitingPayment); err != nil {
		return err
	}
	record.Set("start_date", start.UTC())
	record.Set("end_date", end.UTC())
	record.Set("approved_at", now)
	record.Set("total_amount", quote.Total)
	record.Set("deposit_amount", quote.Deposit)
	record.Set("platform_commission", quote.Commission)
	record.Set("amount_to_pay", quote.AmountToPay)

	// Any proposals from a previous decision round are stale now.
	return s.clearProposals(txApp, record.Id)
}

func (s *BookingService) reject(txApp core.App, record *core.Record, proposals []models.DateProposal, now time.Time) error {
	for i := range proposals {
		if !proposals[i].Valid() {
			return status.Validation("proposals", "end_date must be after start_date")
		}
	}

	if err := applyTransition(record, "reject", models.StatusRejected); err != nil {
		return err
	}
	record.Set("rejected_at", now)

	// Proposals are fully replaced on every decision.
	if err := s.clearProposals(txApp, record.Id); err != nil {
		return err
	}

	collection, err := txApp.FindCollectionByNameOrId("booking_date_proposals")
	if err != nil {
		return err
	}
	for i := range proposals {
		proposal := core.NewRecord(collection)
		proposal.Set("booking", record.Id)
		proposal.Set("start_date", proposals[i].StartDate.UTC())
		proposal.Set("end_date", proposals[i].EndDate.UTC())
		proposal.Set("note", proposals[i].Note)
		if err := txApp.Save(proposal); err != nil {
			return err
		}
	}

	return nil
}

func (s *BookingService) clearProposals(txApp core.App, bookingID string) error {
	stale, err := txApp.FindRecordsByFilter(
		"booking_date_proposals",
		"booking = {:bookingId}",
		"", 0, 0,
		dbx.Params{"bookingId": bookingID},
	)
	if err != nil {
		return err
	}
	for _, p := range stale {
		if err := txApp.Delete(p); err != nil {
			return err
		}
	}
	return nil
}

// Cancel withdraws the client's own booking before any money moves. Paid
// bookings cannot be cancelled; the deposit is already in escrow.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	var booking *models.Booking
	var from models.BookingStatus
	var ownerID string

	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("bookings", bookingID)
		if err != nil {
			return status.ErrBookingNotFound
		}
		if record.GetString("user") != userID {
			return status.Unauthorized(userID, "booking "+bookingID)
		}

		from = models.BookingStatus(record.GetString("status"))
		if err := applyTransition(record, "cancel", models.StatusCancelled); err != nil {
			s.monitor.TrackTransitionFailure("cancel", "state_conflict")
			return err
		}
		record.Set("cancelled_at", time.Now().UTC())

		if err := txApp.Save(record); err != nil {
			return err
		}

		booking = models.BookingFromRecord(record)
		if listingRecord, err := txApp.FindRecordById("listings", record.GetString("listing")); err == nil {
			ownerID = listingRecord.GetString("owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.monitor.TrackTransition(string(from), string(models.StatusCancelled))
	if ownerID != "" {
		s.notifier.PushToUser(ownerID, notify.Event{
			Type:      "booking_cancelled",
			Title:     "Booking cancelled",
			Body:      "The client withdrew their booking request.",
			BookingID: bookingID,
		})
	}

	return booking, nil
}

type MarkPaidResult struct {
	Booking          *models.Booking
	KeyCode          string
	AlreadyProcessed bool
}

// MarkPaid is the single guarded success path both verify and the webhook
// funnel into. It is safe to invoke twice: the second call reports
// AlreadyProcessed without generating another key code or re-notifying.
func (s *BookingService) MarkPaid(ctx context.Context, reference string, raw []byte) (*MarkPaidResult, error) {
	result := &MarkPaidResult{}
	var clientID string

	err := s.app.RunInTransaction(func(txApp core.App) error {
		txRecord, err := txApp.FindFirstRecordByFilter(
			"payment_transactions",
			"reference = {:reference} && provider = {:provider}",
			dbx.Params{"reference": reference, "provider": models.ProviderPaystack},
		)
		if err != nil {
			return status.ErrReferenceNotFound
		}

		if models.TransactionStatus(txRecord.GetString("status")) == models.TxSuccess {
			result.AlreadyProcessed = true
			return nil
		}

		record, err := txApp.FindRecordById("bookings", txRecord.GetString("booking"))
		if err != nil {
			return status.ErrBookingNotFound
		}

		txRecord.Set("status", string(models.TxSuccess))
		if len(raw) > 0 {
			txRecord.Set("raw", string(raw))
		}
		if err := txApp.Save(txRecord); err != nil {
			return err
		}

		current := models.BookingStatus(record.GetString("status"))
		if current == models.StatusPaid {
			result.AlreadyProcessed = true
			result.Booking = models.BookingFromRecord(record)
			return nil
		}
		if err := applyTransition(record, "mark paid", models.StatusPaid); err != nil {
			s.monitor.TrackTransitionFailure("mark_paid", "state_conflict")
			return err
		}

		record.Set("escrow_amount", record.GetFloat("deposit_amount"))

		now := time.Now().UTC()
		var start *time.Time
		if sd := record.GetDateTime("start_date"); !sd.IsZero() {
			t := sd.Time()
			start = &t
		}
		expiry := KeyCodeExpiry(start, now)

		code, hash, err := s.keycodes.Issue(ctx, record.Id, expiry)
		if err != nil {
			return err
		}
		record.Set("key_code_hash", hash)
		record.Set("key_code_expires_at", expiry)

		if err := txApp.Save(record); err != nil {
			return err
		}

		result.Booking = models.BookingFromRecord(record)
		result.KeyCode = code
		clientID = record.GetString("user")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed && result.Booking != nil {
		s.monitor.TrackTransition(string(models.StatusAwaitingPayment), string(models.StatusPaid))
		s.notifier.PushToUser(clientID, notify.Event{
			Type:      "booking_paid",
			Title:     "Payment confirmed",
			Body:      "Your deposit is in escrow. You can now fetch your check-in code.",
			BookingID: result.Booking.ID,
		})
	}

	return result, nil
}

// MarkTransactionFailed records a failed gateway attempt. Booking status is
// never touched; the client may retry initialize.
func (s *BookingService) MarkTransactionFailed(ctx context.Context, reference string, raw []byte) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		txRecord, err := txApp.FindFirstRecordByFilter(
			"payment_transactions",
			"reference = {:reference} && provider = {:provider}",
			dbx.Params{"reference": reference, "provider": models.ProviderPaystack},
		)
		if err != nil {
			return status.ErrReferenceNotFound
		}

		// A settled transaction stays settled.
		if models.TransactionStatus(txRecord.GetString("status")) == models.TxSuccess {
			return nil
		}

		txRecord.Set("status", string(models.TxFailed))
		if len(raw) > 0 {
			txRecord.Set("raw", string(raw))
		}
		return txApp.Save(txRecord)
	})
}

// ValidateKey checks a submitted code against the owner's paid bookings and
// checks the client in. Expired or mismatched codes fail closed.
func (s *BookingService) ValidateKey(ctx context.Context, ownerID, code string) (*models.Booking, error) {
	candidates, err := s.app.FindRecordsByFilter(
		"bookings",
		"listing.owner = {:ownerId} && status = 'paid' && key_code_hash != ''",
		"-created", 0, 0,
		dbx.Params{"ownerId": ownerID},
	)
	if err != nil {
		return nil, err
	}

	var matched *core.Record
	for _, candidate := range candidates {
		if Matches(candidate.GetString("key_code_hash"), code) {
			matched = candidate
			break
		}
	}
	if matched == nil {
		s.monitor.TrackKeyValidation("invalid")
		return nil, status.ErrKeyCodeInvalid
	}

	now := time.Now().UTC()
	if expiry := matched.GetDateTime("key_code_expires_at"); expiry.IsZero() || !now.Before(expiry.Time()) {
		s.monitor.TrackKeyValidation("expired")
		return nil, status.ErrKeyCodeExpired
	}

	var booking *models.Booking
	var clientID string

	err = s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("bookings", matched.Id)
		if err != nil {
			return status.ErrBookingNotFound
		}

		// Re-validate under the lock: a racing validation may have won.
		if models.BookingStatus(record.GetString("status")) != models.StatusPaid {
			return status.StateConflict("validate key", record.GetString("status"))
		}
		if !Matches(record.GetString("key_code_hash"), code) {
			return status.ErrKeyCodeInvalid
		}

		if err := applyTransition(record, "validate key", models.StatusCheckedIn); err != nil {
			return err
		}
		record.Set("checked_in_at", now)
		record.Set("payout_amount", PayoutAmount(
			int64(record.GetFloat("deposit_amount")),
			int64(record.GetFloat("platform_commission")),
		))

		if err := txApp.Save(record); err != nil {
			return err
		}

		booking = models.BookingFromRecord(record)
		clientID = record.GetString("user")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.keycodes.Drop(ctx, booking.ID)
	s.monitor.TrackKeyValidation("ok")
	s.monitor.TrackTransition(string(models.StatusPaid), string(models.StatusCheckedIn))
	s.notifier.PushToUser(clientID, notify.Event{
		Type:      "checked_in",
		Title:     "Check-in confirmed",
		Body:      "The owner validated your arrival.",
		BookingID: booking.ID,
	})

	return booking, nil
}

// FetchKeyCode returns the parked plaintext code to the paying client while
// the booking is paid and the code has not expired.
func (s *BookingService) FetchKeyCode(ctx context.Context, userID, bookingID string) (code string, expiresAt time.Time, err error) {
	record, err := s.app.FindRecordById("bookings", bookingID)
	if err != nil {
		return "", time.Time{}, status.ErrBookingNotFound
	}
	if record.GetString("user") != userID {
		return "", time.Time{}, status.Unauthorized(userID, "booking "+bookingID)
	}
	if models.BookingStatus(record.GetString("status")) != models.StatusPaid {
		return "", time.Time{}, status.StateConflict("fetch key code", record.GetString("status"))
	}

	expiry := record.GetDateTime("key_code_expires_at")
	if expiry.IsZero() || !time.Now().UTC().Before(expiry.Time()) {
		return "", time.Time{}, status.ErrKeyCodeExpired
	}

	code, err = s.keycodes.Fetch(ctx, bookingID)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, expiry.Time(), nil
}

// Release records the administrator's manual payout. Irreversible.
func (s *BookingService) Release(ctx context.Context, bookingID, payoutReference string) (*models.Booking, error) {
	if payoutReference == "" {
		return nil, status.Validation("payout_reference", "is required")
	}

	var booking *models.Booking
	var clientID, ownerID string

	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("bookings", bookingID)
		if err != nil {
			return status.ErrBookingNotFound
		}

		if current := models.BookingStatus(record.GetString("status")); current != models.StatusCheckedIn {
			s.monitor.TrackTransitionFailure("release", "state_conflict")
			return status.StateConflict("release", string(current))
		}
		if err := applyTransition(record, "release", models.StatusReleased); err != nil {
			return err
		}

		record.Set("payout_reference", payoutReference)
		record.Set("payout_status", string(models.PayoutPaid))
		record.Set("released_at", time.Now().UTC())

		if err := txApp.Save(record); err != nil {
			return err
		}

		booking = models.BookingFromRecord(record)
		clientID = record.GetString("user")

		if listingRecord, err := txApp.FindRecordById("listings", record.GetString("listing")); err == nil {
			ownerID = listingRecord.GetString("owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.monitor.TrackTransition(string(models.StatusCheckedIn), string(models.StatusReleased))
	if ownerID != "" {
		s.notifier.PushToUser(ownerID, notify.Event{
			Type:      "released",
			Title:     "Payout completed",
			Body:      fmt.Sprintf("The deposit for booking %s was transferred to you.", bookingID),
			BookingID: bookingID,
		})
	}
	s.notifier.PushToUser(clientID, notify.Event{
		Type:      "released",
		Title:     "Booking completed",
		Body:      "The payout was transferred to the owner. Thank you!",
		BookingID: bookingID,
	})

	slog.Info("booking released", "booking_id", bookingID, "payout_reference", payoutReference)
	return booking, nil
}
