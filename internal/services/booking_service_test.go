package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residence-booking/internal/models"
	"residence-booking/internal/services/notify"
	"residence-booking/internal/status"
	"residence-booking/monitoring"

	_ "residence-booking/migrations"
)

func newBookingTestApp(t *testing.T) *tests.TestApp {
	app, err := tests.NewTestAppWithConfig(core.BaseAppConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	return app
}

func newBookingService(t *testing.T, app core.App) *BookingService {
	redisClient, _ := redismock.NewClientMock()
	return NewBookingService(app, NewKeyCodeService(redisClient), notify.NopNotifier{}, monitoring.NewMonitor())
}

func createTestUser(t *testing.T, app core.App, email string) *core.Record {
	collection, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	user := core.NewRecord(collection)
	user.SetEmail(email)
	user.SetPassword("0123456789")
	require.NoError(t, app.Save(user))
	return user
}

func createTestListing(t *testing.T, app core.App, ownerID string) *core.Record {
	collection, err := app.FindCollectionByNameOrId("listings")
	require.NoError(t, err)

	listing := core.NewRecord(collection)
	listing.Set("owner", ownerID)
	listing.Set("title", "Two-bed flat in Yaba")
	listing.Set("city", "Lagos")
	listing.Set("price_per_night", 10000)
	listing.Set("max_guests", 4)
	listing.Set("is_active", true)
	require.NoError(t, app.Save(listing))
	return listing
}

func createTestBooking(t *testing.T, app core.App, listingID, userID string, bookingStatus models.BookingStatus, mutate func(*core.Record)) *core.Record {
	collection, err := app.FindCollectionByNameOrId("bookings")
	require.NoError(t, err)

	booking := core.NewRecord(collection)
	booking.Set("listing", listingID)
	booking.Set("user", userID)
	booking.Set("duration_days", 3)
	booking.Set("guests", 2)
	booking.Set("status", string(bookingStatus))
	booking.Set("price_per_night", 10000)
	booking.Set("payout_status", string(models.PayoutUnpaid))
	if mutate != nil {
		mutate(booking)
	}
	require.NoError(t, app.Save(booking))
	return booking
}

func TestMarkPaidSecondCallIsIdempotent(t *testing.T) {
	app := newBookingTestApp(t)
	svc := newBookingService(t, app)

	owner := createTestUser(t, app, "owner@test.local")
	client := createTestUser(t, app, "client@test.local")
	listing := createTestListing(t, app, owner.Id)

	// A stay that already started: the key code is born expired, so the
	// parking slot is never written and no Redis expectations are needed.
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	booking := createTestBooking(t, app, listing.Id, client.Id, models.StatusAwaitingPayment, func(r *core.Record) {
		r.Set("start_date", start)
		r.Set("end_date", start.AddDate(0, 0, 3))
		r.Set("approved_at", start.AddDate(0, 0, -7))
		r.Set("total_amount", 30000)
		r.Set("deposit_amount", 15000)
		r.Set("platform_commission", 750)
		r.Set("amount_to_pay", 15750)
	})

	txCollection, err := app.FindCollectionByNameOrId("payment_transactions")
	require.NoError(t, err)
	txRecord := core.NewRecord(txCollection)
	txRecord.Set("booking", booking.Id)
	txRecord.Set("user", client.Id)
	txRecord.Set("provider", string(models.ProviderPaystack))
	txRecord.Set("reference", "pay_idem_ref")
	txRecord.Set("amount", 15750)
	txRecord.Set("status", string(models.TxInitiated))
	require.NoError(t, app.Save(txRecord))

	first, err := svc.MarkPaid(context.Background(), "pay_idem_ref", []byte(`{"status":"success"}`))
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Len(t, first.KeyCode, 6)

	saved, err := app.FindRecordById("bookings", booking.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusPaid), saved.GetString("status"))
	assert.Equal(t, float64(15000), saved.GetFloat("escrow_amount"))
	firstHash := saved.GetString("key_code_hash")
	require.NotEmpty(t, firstHash)

	second, err := svc.MarkPaid(context.Background(), "pay_idem_ref", []byte(`{"status":"success"}`))
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Empty(t, second.KeyCode, "a replayed confirmation must not mint a second key code")

	saved, err = app.FindRecordById("bookings", booking.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusPaid), saved.GetString("status"))
	assert.Equal(t, firstHash, saved.GetString("key_code_hash"))

	txSaved, err := app.FindRecordById("payment_transactions", txRecord.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.TxSuccess), txSaved.GetString("status"))
}

func TestConcurrentApprovalsOverlappingDates(t *testing.T) {
	app := newBookingTestApp(t)
	svc := newBookingService(t, app)

	owner := createTestUser(t, app, "owner@test.local")
	clientA := createTestUser(t, app, "client.a@test.local")
	clientB := createTestUser(t, app, "client.b@test.local")
	listing := createTestListing(t, app, owner.Id)

	start := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	first := createTestBooking(t, app, listing.Id, clientA.Id, models.StatusRequested, nil)
	second := createTestBooking(t, app, listing.Id, clientB.Id, models.StatusRequested, nil)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{first.Id, second.Id} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.Decide(context.Background(), owner.Id, id, DecisionInput{
				Action:    ActionApprove,
				StartDate: &start,
			})
		}(i, id)
	}
	wg.Wait()

	var approved, conflicted int
	for _, err := range errs {
		if err == nil {
			approved++
			continue
		}
		var conflict *status.AvailabilityConflictError
		require.ErrorAs(t, err, &conflict)
		conflicted++
	}
	assert.Equal(t, 1, approved, "exactly one of two overlapping approvals may land")
	assert.Equal(t, 1, conflicted)

	records, err := app.FindRecordsByFilter(
		"bookings",
		"listing = {:listingId} && status = 'awaiting_payment'",
		"", 0, 0,
		dbx.Params{"listingId": listing.Id},
	)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
