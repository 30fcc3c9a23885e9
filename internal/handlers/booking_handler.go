package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/models"
	"residence-booking/internal/services"
)

type BookingHandler struct {
	app      *pocketbase.PocketBase
	bookings *services.BookingService
}

func NewBookingHandler(app *pocketbase.PocketBase, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{
		app:      app,
		bookings: bookings,
	}
}

type createBookingRequest struct {
	ListingID        string `json:"listing_id"`
	DurationDays     int    `json:"duration_days"`
	DesiredStartDate string `json:"desired_start_date,omitempty"` // YYYY-MM-DD
	Guests           int    `json:"guests"`
	CustomerNote     string `json:"customer_note,omitempty"`
}

// Create opens a booking request against an active listing.
func (h *BookingHandler) Create(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req createBookingRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	input := services.CreateRequestInput{
		ListingID:    req.ListingID,
		DurationDays: req.DurationDays,
		Guests:       req.Guests,
		CustomerNote: req.CustomerNote,
	}
	if req.DesiredStartDate != "" {
		start, err := time.Parse("2006-01-02", req.DesiredStartDate)
		if err != nil {
			return apis.NewBadRequestError("desired_start_date must be YYYY-MM-DD", err)
		}
		input.DesiredStartDate = &start
	}

	result, err := h.bookings.CreateRequest(e.Request.Context(), e.Auth.Id, input)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusCreated, result)
}

// List returns the authenticated client's bookings, newest first.
func (h *BookingHandler) List(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	filter := "user = {:userId}"
	params := dbx.Params{"userId": e.Auth.Id}
	if s := e.Request.URL.Query().Get("status"); s != "" {
		filter += " && status = {:status}"
		params["status"] = s
	}

	records, err := h.app.FindRecordsByFilter("bookings", filter, "-created", 100, 0, params)
	if err != nil {
		return apis.NewBadRequestError("Failed to list bookings", err)
	}

	out := make([]*models.Booking, 0, len(records))
	for _, r := range records {
		out = append(out, models.BookingFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"bookings": out})
}

// Detail returns one booking to its client or to the listing's owner.
func (h *BookingHandler) Detail(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindRecordById("bookings", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Booking not found", nil)
	}
	if !h.canView(e.Auth.Id, record) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	proposals := []*models.DateProposal{}
	proposalRecords, err := h.app.FindRecordsByFilter(
		"booking_date_proposals",
		"booking = {:bookingId}",
		"start_date", 0, 0,
		dbx.Params{"bookingId": record.Id},
	)
	if err == nil {
		for _, p := range proposalRecords {
			proposals = append(proposals, models.DateProposalFromRecord(p))
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"booking":   models.BookingFromRecord(record),
		"proposals": proposals,
	})
}

// Cancel withdraws the client's own booking while no money has moved.
func (h *BookingHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	booking, err := h.bookings.Cancel(e.Request.Context(), e.Auth.Id, e.Request.PathValue("id"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"booking": booking})
}

// PaymentInfo returns the amount breakdown a client reviews before paying.
func (h *BookingHandler) PaymentInfo(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindRecordById("bookings", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Booking not found", nil)
	}
	if record.GetString("user") != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, models.PaymentInfoFromRecord(record))
}

// KeyCode returns the client's check-in code while the booking is paid.
func (h *BookingHandler) KeyCode(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	code, expiresAt, err := h.bookings.FetchKeyCode(e.Request.Context(), e.Auth.Id, e.Request.PathValue("id"))
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"key_code":   code,
		"expires_at": expiresAt,
	})
}

// inboxFilter builds the owner inbox query. Without an explicit status the
// inbox shows pending requests only.
func inboxFilter(ownerID, status string) (string, dbx.Params) {
	if status == "" {
		status = string(models.StatusRequested)
	}
	return "listing.owner = {:ownerId} && status = {:status}",
		dbx.Params{"ownerId": ownerID, "status": status}
}

// Inbox lists booking requests on the owner's listings, filtered by status
// (pending requests when none is given).
func (h *BookingHandler) Inbox(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	filter, params := inboxFilter(e.Auth.Id, e.Request.URL.Query().Get("status"))

	records, err := h.app.FindRecordsByFilter("bookings", filter, "-created", 100, 0, params)
	if err != nil {
		return apis.NewBadRequestError("Failed to list requests", err)
	}

	out := make([]*models.Booking, 0, len(records))
	for _, r := range records {
		out = append(out, models.BookingFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"bookings": out})
}

type decisionRequest struct {
	Action    string `json:"action"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	OwnerNote string `json:"owner_note,omitempty"`
	Proposals []struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Note      string `json:"note,omitempty"`
	} `json:"proposals,omitempty"`
}

// Decide approves or rejects a requested booking on behalf of the owner.
func (h *BookingHandler) Decide(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req decisionRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	input := services.DecisionInput{
		Action:    req.Action,
		OwnerNote: req.OwnerNote,
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return apis.NewBadRequestError("start_date must be YYYY-MM-DD", err)
		}
		input.StartDate = &start
	}
	for _, p := range req.Proposals {
		start, err := time.Parse("2006-01-02", p.StartDate)
		if err != nil {
			return apis.NewBadRequestError("proposal start_date must be YYYY-MM-DD", err)
		}
		end, err := time.Parse("2006-01-02", p.EndDate)
		if err != nil {
			return apis.NewBadRequestError("proposal end_date must be YYYY-MM-DD", err)
		}
		input.Proposals = append(input.Proposals, models.DateProposal{
			StartDate: start,
			EndDate:   end,
			Note:      p.Note,
		})
	}

	booking, err := h.bookings.Decide(e.Request.Context(), e.Auth.Id, e.Request.PathValue("id"), input)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"booking": booking})
}

type validateKeyRequest struct {
	Code string `json:"code"`
}

// ValidateKey checks a guest's code against the owner's paid bookings and
// performs check-in on a match.
func (h *BookingHandler) ValidateKey(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req validateKeyRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if len(req.Code) != 6 {
		return apis.NewBadRequestError("code must be 6 digits", nil)
	}

	booking, err := h.bookings.ValidateKey(e.Request.Context(), e.Auth.Id, req.Code)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"valid":   true,
		"booking": booking,
	})
}

func (h *BookingHandler) canView(userID string, record *core.Record) bool {
	if record.GetString("user") == userID {
		return true
	}
	listing, err := h.app.FindRecordById("listings", record.GetString("listing"))
	if err != nil {
		return false
	}
	return listing.GetString("owner") == userID
}
