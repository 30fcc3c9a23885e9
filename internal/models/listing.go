package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

type Listing struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	City          string    `json:"city,omitempty"`
	Area          string    `json:"area,omitempty"`
	AddressLabel  string    `json:"address_label,omitempty"`
	PricePerNight int64     `json:"price_per_night"`
	MaxGuests     int       `json:"max_guests"`
	IsActive      bool      `json:"is_active"`
	Created       time.Time `json:"created"`
}

func ListingFromRecord(r *core.Record) *Listing {
	return &Listing{
		ID:            r.Id,
		OwnerID:       r.GetString("owner"),
		Title:         r.GetString("title"),
		City:          r.GetString("city"),
		Area:          r.GetString("area"),
		AddressLabel:  r.GetString("address_label"),
		PricePerNight: int64(r.GetFloat("price_per_night")),
		MaxGuests:     r.GetInt("max_guests"),
		IsActive:      r.GetBool("is_active"),
		Created:       r.GetDateTime("created").Time(),
	}
}
