package model

import "time"

type QuotaState struct {
	Remaining  int        `json:"remaining"`
	LastReset  *time.Time `json:"last_reset"`
	LastAction *time.Time `json:"last_action"`
}
