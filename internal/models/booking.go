package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

type BookingStatus string

const (
	StatusRequested       BookingStatus = "requested"
	StatusApproved        BookingStatus = "approved"
	StatusAwaitingPayment BookingStatus = "awaiting_payment"
	StatusPaid            BookingStatus = "paid"
	StatusCheckedIn       BookingStatus = "checked_in"
	StatusReleased        BookingStatus = "released"
	StatusRejected        BookingStatus = "rejected"
	StatusCancelled       BookingStatus = "cancelled"
	StatusExpired         BookingStatus = "expired"
)

type PayoutStatus string

const (
	PayoutUnpaid PayoutStatus = "unpaid"
	PayoutPaid   PayoutStatus = "paid"
)

// legalTransitions is the booking state machine. Every status write goes
// through CanTransitionTo; there is no other way to move a booking.
var legalTransitions = map[BookingStatus][]BookingStatus{
	StatusRequested:       {StatusApproved, StatusAwaitingPayment, StatusRejected, StatusCancelled, StatusExpired},
	StatusApproved:        {StatusAwaitingPayment, StatusCancelled, StatusExpired},
	StatusAwaitingPayment: {StatusPaid, StatusCancelled, StatusExpired},
	StatusPaid:            {StatusCheckedIn},
	StatusCheckedIn:       {StatusReleased},
	StatusReleased:        {},
	StatusRejected:        {},
	StatusCancelled:       {},
	StatusExpired:         {},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(legalTransitions[s]) == 0
}

// BlockingStatuses are the statuses that reserve a listing's date range.
// Rejected, cancelled and expired bookings never block.
var BlockingStatuses = []BookingStatus{
	StatusApproved,
	StatusAwaitingPayment,
	StatusPaid,
	StatusCheckedIn,
	StatusReleased,
}

func (s BookingStatus) Blocking() bool {
	for _, b := range BlockingStatuses {
		if b == s {
			return true
		}
	}
	return false
}

type Booking struct {
	ID               string        `json:"id"`
	ListingID        string        `json:"listing_id"`
	UserID           string        `json:"user_id"`
	DurationDays     int           `json:"duration_days"`
	DesiredStartDate *time.Time    `json:"desired_start_date,omitempty"`
	StartDate        *time.Time    `json:"start_date,omitempty"`
	EndDate          *time.Time    `json:"end_date,omitempty"`
	Guests           int           `json:"guests"`
	Status           BookingStatus `json:"status"`
	CustomerNote     string        `json:"customer_note,omitempty"`
	OwnerNote        string        `json:"owner_note,omitempty"`
	ApprovedAt       *time.Time    `json:"approved_at,omitempty"`
	RejectedAt       *time.Time    `json:"rejected_at,omitempty"`
	ExpiredAt        *time.Time    `json:"expired_at,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`

	// Price snapshot, frozen at request time and finalized at approval.
	PricePerNight      int64 `json:"price_per_night"`
	TotalAmount        int64 `json:"total_amount"`
	DepositAmount      int64 `json:"deposit_amount"`
	PlatformCommission int64 `json:"platform_commission"`
	AmountToPay        int64 `json:"amount_to_pay"`
	EscrowAmount       int64 `json:"escrow_amount"`

	KeyCodeExpiresAt *time.Time `json:"key_code_expires_at,omitempty"`
	CheckedInAt      *time.Time `json:"checked_in_at,omitempty"`

	PayoutAmount    int64        `json:"payout_amount"`
	PayoutStatus    PayoutStatus `json:"payout_status"`
	PayoutReference string       `json:"payout_reference,omitempty"`
	ReleasedAt      *time.Time   `json:"released_at,omitempty"`

	Created time.Time `json:"created"`
}

// Nights returns the confirmed stay length once both dates are set, and the
// requested duration until then.
func (b *Booking) Nights() int {
	if b.StartDate != nil && b.EndDate != nil {
		n := int(b.EndDate.Sub(*b.StartDate).Hours() / 24)
		if n < 0 {
			return 0
		}
		return n
	}
	if b.DurationDays < 0 {
		return 0
	}
	return b.DurationDays
}

// BookingFromRecord maps a bookings record to its read projection.
func BookingFromRecord(r *core.Record) *Booking {
	return &Booking{
		ID:               r.Id,
		ListingID:        r.GetString("listing"),
		UserID:           r.GetString("user"),
		DurationDays:     r.GetInt("duration_days"),
		DesiredStartDate: recordTime(r, "desired_start_date"),
		StartDate:        recordTime(r, "start_date"),
		EndDate:          recordTime(r, "end_date"),
		Guests:           r.GetInt("guests"),
		Status:           BookingStatus(r.GetString("status")),
		CustomerNote:     r.GetString("customer_note"),
		OwnerNote:        r.GetString("owner_note"),
		ApprovedAt:       recordTime(r, "approved_at"),
		RejectedAt:       recordTime(r, "rejected_at"),
		ExpiredAt:        recordTime(r, "expired_at"),
		CancelledAt:      recordTime(r, "cancelled_at"),

		PricePerNight:      int64(r.GetFloat("price_per_night")),
		TotalAmount:        int64(r.GetFloat("total_amount")),
		DepositAmount:      int64(r.GetFloat("deposit_amount")),
		PlatformCommission: int64(r.GetFloat("platform_commission")),
		AmountToPay:        int64(r.GetFloat("amount_to_pay")),
		EscrowAmount:       int64(r.GetFloat("escrow_amount")),

		KeyCodeExpiresAt: recordTime(r, "key_code_expires_at"),
		CheckedInAt:      recordTime(r, "checked_in_at"),

		PayoutAmount:    int64(r.GetFloat("payout_amount")),
		PayoutStatus:    PayoutStatus(r.GetString("payout_status")),
		PayoutReference: r.GetString("payout_reference"),
		ReleasedAt:      recordTime(r, "released_at"),

		Created: r.GetDateTime("created").Time(),
	}
}

// PaymentInfo is the projection a client sees before paying.
type PaymentInfo struct {
	ID                 string        `json:"id"`
	Status             BookingStatus `json:"status"`
	TotalAmount        int64         `json:"total_amount"`
	DepositAmount      int64         `json:"deposit_amount"`
	PlatformCommission int64         `json:"platform_commission"`
	AmountToPay        int64         `json:"amount_to_pay"`
}

func PaymentInfoFromRecord(r *core.Record) *PaymentInfo {
	return &PaymentInfo{
		ID:                 r.Id,
		Status:             BookingStatus(r.GetString("status")),
		TotalAmount:        int64(r.GetFloat("total_amount")),
		DepositAmount:      int64(r.GetFloat("deposit_amount")),
		PlatformCommission: int64(r.GetFloat("platform_commission")),
		AmountToPay:        int64(r.GetFloat("amount_to_pay")),
	}
}

// DateProposal is an alternative date range offered by the owner on reject.
type DateProposal struct {
	ID        string    `json:"id,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Note      string    `json:"note,omitempty"`
}

func (p *DateProposal) Valid() bool {
	return !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.After(p.StartDate)
}

func DateProposalFromRecord(r *core.Record) *DateProposal {
	return &DateProposal{
		ID:        r.Id,
		BookingID: r.GetString("booking"),
		StartDate: r.GetDateTime("start_date").Time(),
		EndDate:   r.GetDateTime("end_date").Time(),
		Note:      r.GetString("note"),
	}
}

func recordTime(r *core.Record, field string) *time.Time {
	dt := r.GetDateTime(field)
	if dt.IsZero() {
		return nil
	}
	t := dt.Time()
	return &t
}
