package dto

type FiltersRequest struct {
	MaxDistanceKM float64 `json:"max_distance_km"`
	AgeMin        int     `json:"age_min"`
	AgeMax        int     `json:"age_max"`
	Gender        string  `json:"gender"`
	LocationHint  string  `json:"location_hint,omitempty"`
}

type FiltersResponse struct {
	OK            bool    `json:"ok"`
	MaxDistanceKM float64 `json:"max_distance_km"`
	AgeMin        int     `json:"age_min"`
	AgeMax        int     `json:"age_max"`
	Gender        string  `json:"gender"`
	LocationHint  string  `json:"location_hint,omitempty"`
	DeckSize      int     `json:"deck_size"`
}
