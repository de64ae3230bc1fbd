package model

import "time"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Candidate struct {
	ID               string       `json:"id"`
	DisplayName      string       `json:"display_name"`
	Age              int          `json:"age"`
	Gender           string       `json:"gender"`
	Location         *Coordinates `json:"location"`
	LocationHint     string       `json:"location_hint"`
	Interests        []string     `json:"interests"`
	Verified         bool         `json:"verified"`
	ProfileCompleted bool         `json:"profile_completed"`
	PhotoKey         string       `json:"photo_key"`
	DistanceKM       float64      `json:"distance_km"`
	CreatedAt        time.Time    `json:"created_at"`
}
