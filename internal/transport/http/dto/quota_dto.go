package dto

import "time"

type QuotaPayload struct {
	Remaining   int       `json:"remaining"`
	NextResetAt time.Time `json:"next_reset_at"`
}
