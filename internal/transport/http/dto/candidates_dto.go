package dto

// CandidateCard is one profile in the browsing queue. DistanceKM carries
// the sentinel 999 for profiles without coordinates.
type CandidateCard struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Age          int      `json:"age"`
	Gender       string   `json:"gender"`
	LocationHint string   `json:"location_hint,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Verified     bool     `json:"verified"`
	DistanceKM   float64  `json:"distance_km"`
	PhotoURL     string   `json:"photo_url,omitempty"`
}

type CandidatesResponse struct {
	Cards     []CandidateCard `json:"cards"`
	Remaining int             `json:"remaining"`
}
