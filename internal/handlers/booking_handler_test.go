package handlers

import (
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
)

func TestInboxFilterDefaultsToRequested(t *testing.T) {
	filter, params := inboxFilter("owner1", "")

	assert.Equal(t, "listing.owner = {:ownerId} && status = {:status}", filter)
	assert.Equal(t, dbx.Params{"ownerId": "owner1", "status": "requested"}, params)
}

func TestInboxFilterExplicitStatus(t *testing.T) {
	_, params := inboxFilter("owner1", "awaiting_payment")

	assert.Equal(t, "awaiting_payment", params["status"])
}
