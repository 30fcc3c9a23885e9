package notify

import (
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"
)

// Notifier is the fire-and-forget push sink. Delivery failures are logged and
// never propagate into the state transition that triggered them.
type Notifier interface {
	PushToUser(userID string, event Event)
}

type Event struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"booking_id,omitempty"`
	URL       string `json:"url,omitempty"`
}

type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) PushToUser(userID string, event Event) {
	go func() {
		channel := fmt.Sprintf("user-%s", userID)
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":       event.Type,
				"title":      event.Title,
				"body":       event.Body,
				"booking_id": event.BookingID,
				"url":        event.URL,
			}).
			Execute()
		if err != nil {
			slog.Error("push notification failed", "user_id", userID, "type", event.Type, "error", err)
		}
	}()
}

// NopNotifier drops every event. Used in tests and when PubNub is not configured.
type NopNotifier struct{}

func (NopNotifier) PushToUser(string, Event) {}
