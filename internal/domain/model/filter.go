package model

const GenderAny = "both"

type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type FilterCriteria struct {
	MaxDistanceKM    float64  `json:"max_distance_km"`
	AgeRange         AgeRange `json:"age_range"`
	GenderPreference string   `json:"gender_preference"`
	LocationHint     string   `json:"location_hint"`
}
