package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/models"
	"residence-booking/internal/services"
)

type AdminHandler struct {
	app      *pocketbase.PocketBase
	bookings *services.BookingService
}

func NewAdminHandler(app *pocketbase.PocketBase, bookings *services.BookingService) *AdminHandler {
	return &AdminHandler{
		app:      app,
		bookings: bookings,
	}
}

// PayoutQueue lists checked-in bookings waiting for a manual payout.
func (h *AdminHandler) PayoutQueue(e *core.RequestEvent) error {
	records, err := h.app.FindRecordsByFilter(
		"bookings",
		"status = 'checked_in' && payout_status = 'unpaid'",
		"checked_in_at", 200, 0,
		nil,
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to list payout queue", err)
	}

	out := make([]*models.Booking, 0, len(records))
	for _, r := range records {
		out = append(out, models.BookingFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"bookings": out})
}

type releaseRequest struct {
	PayoutReference string `json:"payout_reference"`
}

// Release records a completed bank transfer to the owner and closes the
// booking. Irreversible.
func (h *AdminHandler) Release(e *core.RequestEvent) error {
	var req releaseRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	booking, err := h.bookings.Release(e.Request.Context(), e.Request.PathValue("id"), req.PayoutReference)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"booking": booking})
}
