package models

import "time"

// PredictionResponse is the contract every domain prediction service answers
// with. risk_score is a percentage in [0,100]; model_source is present only
// when a live model produced the score, its absence marks an upstream
// deterministic answer.
type PredictionResponse struct {
	RiskScore   float64 `json:"risk_score"`
	RiskLevel   string  `json:"risk_level,omitempty"`
	ModelSource string  `json:"model_source,omitempty"`
}

// RecognitionEvent is one line of the OCR collaborator's streamed response:
// progress frames while recognizing, then a final frame carrying the text.
type RecognitionEvent struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// Event is the telemetry envelope published to the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}
