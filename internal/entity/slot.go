package entity

import (
	"strings"
	"time"
)

type Slot string

const (
	SlotCurrent Slot = "current"
	SlotNext    Slot = "next"
	SlotCamp    Slot = "camp"
)

var Slots = []Slot{SlotCurrent, SlotNext, SlotCamp}

func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotCurrent:
		return SlotCurrent, true
	case SlotNext:
		return SlotNext, true
	case SlotCamp:
		return SlotCamp, true
	default:
		return "", false
	}
}

// RegistrationImage is the registration schedule image occupying a slot.
type RegistrationImage struct {
	ID        int64     `json:"id"`
	Slot      Slot      `json:"slot"`
	ImageURL  string    `json:"imageUrl"`
	Title     string    `json:"title"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}
