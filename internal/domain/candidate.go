package domain

import "time"

// Candidate is the output of one construction pipeline, used only for ranking.
type Candidate struct {
	Route    Route   `json:"route"`
	Distance float64 `json:"distance_km"`
	Label    string  `json:"algorithm"`
}

// Result is the winning candidate of a tournament plus its diagnostics.
// Ranking is ascending by distance; ties keep pipeline execution order.
type Result struct {
	Route          Route       `json:"route"`
	Distance       float64     `json:"distance_km"`
	Algorithm      string      `json:"algorithm"`
	ImprovementPct float64     `json:"improvement_pct"`
	Ranking        []Candidate `json:"ranking"`
}

// Run records one optimization call for persistence and auditing.
type Run struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	StartName string      `json:"start_name"`
	Start     Coordinates `json:"start"`
	End       Coordinates `json:"end"`
	Attempts  int         `json:"attempts"`
	StopCount int         `json:"stop_count"`
	Result    Result      `json:"result"`
}
