package services

import (
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/models"
)

// RangesOverlap reports whether two half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. Adjacent ranges (aEnd == bStart) do not overlap.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsAvailable reports whether the listing has no blocking booking overlapping
// [start, end). It must be called with the transaction-scoped app of the
// decision that relies on it, so the check and the write share one snapshot.
func IsAvailable(app core.App, listingID string, start, end time.Time, excludeBookingID string) (bool, error) {
	blocking := make([]string, 0, len(models.BlockingStatuses))
	for _, s := range models.BlockingStatuses {
		blocking = append(blocking, "status = '"+string(s)+"'")
	}

	filter := "listing = {:listingId}" +
		" && start_date != ''" +
		" && end_date != ''" +
		" && (" + strings.Join(blocking, " || ") + ")" +
		" && start_date < {:end}" +
		" && end_date > {:start}"

	params := dbx.Params{
		"listingId": listingID,
		"start":     start.UTC().Format("2006-01-02 15:04:05.000Z"),
		"end":       end.UTC().Format("2006-01-02 15:04:05.000Z"),
	}

	if excludeBookingID != "" {
		filter += " && id != {:excludeId}"
		params["excludeId"] = excludeBookingID
	}

	conflicts, err := app.FindRecordsByFilter("bookings", filter, "", 1, 0, params)
	if err != nil {
		return false, err
	}

	return len(conflicts) == 0, nil
}
