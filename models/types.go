package models

import "time"

// Unit status constants
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDiscarded = "discarded"
)

// Phase constants for the active unit
const (
	PhaseAwaitingLoad    = "awaiting-load"
	PhaseAwaitingRatings = "awaiting-ratings"
	PhaseDwelling        = "dwelling"
	PhaseAdvancing       = "advancing"
	PhaseReviewing       = "reviewing"
	PhaseExhausted       = "exhausted"
	PhaseCapped          = "capped"
)

// End reason constants
const (
	EndExhausted = "exhausted"
	EndCapped    = "capped"
)

// Rating field names
const (
	FieldGreen    = "green"
	FieldPleasant = "pleasant"
)

// Request types

type StartSessionRequest struct {
	// Optional override of the configured rating order ("GP" or "PG").
	RatingOrder string `json:"rating_order,omitempty"`
}

// ImageLoadedRequest reports when the image finished loading. A loaded_at
// in the future or before the session started is replaced by server time.
type ImageLoadedRequest struct {
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type KeyRequest struct {
	Key string `json:"key"`
}

// RateRequest is a pointer click on a numbered control.
type RateRequest struct {
	Field string `json:"field"`
	Value *int   `json:"value"`
}

// Response types

type UnitView struct {
	ID          string         `json:"id"`
	ImageRef    string         `json:"image_ref"`
	Status      string         `json:"status"`
	Ratings     map[string]int `json:"ratings"`
	LoadedAt    *time.Time     `json:"loaded_at,omitempty"`
	BothRatedAt *time.Time     `json:"both_rated_at,omitempty"`
	ReadOnly    bool           `json:"read_only"`
}

type SessionState struct {
	SessionID      string      `json:"session_id"`
	Phase          string      `json:"phase"`
	FieldOrder     []string    `json:"field_order"`
	Active         *UnitView   `json:"active,omitempty"`
	Position       int         `json:"position"`
	UnitCount      int         `json:"unit_count"`
	CompletedCount int         `json:"completed_count"`
	Cap            int         `json:"cap,omitempty"`
	Preload        []string    `json:"preload,omitempty"`
	EndReason      string      `json:"end_reason,omitempty"`
	Save           *SaveResult `json:"save,omitempty"`
	CompletionCode string      `json:"completion_code,omitempty"`
}

type StartSessionResponse struct {
	Token string       `json:"token"`
	State SessionState `json:"state"`
}

type InputResponse struct {
	Applied bool         `json:"applied"`
	State   SessionState `json:"state"`
}

type ScaleLabels struct {
	Label string `json:"label"`
	Min   string `json:"min"`
	Mid   string `json:"mid"`
	Max   string `json:"max"`
	Low   int    `json:"low"`
	High  int    `json:"high"`
}

type ConfigResponse struct {
	FieldOrder     []string               `json:"field_order"`
	LexiconVariant string                 `json:"lexicon_variant"`
	Scales         map[string]ScaleLabels `json:"scales"`
	TapToRate      string                 `json:"tap_to_rate"`
	MinDwellMs     int64                  `json:"min_dwell_ms"`
	ArmWindowMs    int64                  `json:"arm_window_ms"`
	MaxImages      int                    `json:"max_images,omitempty"`
	RevisitPolicy  string                 `json:"revisit_policy"`
}

// Results types

// RatingStats summarizes one rating field across responses.
type RatingStats struct {
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	Mean   float64 `json:"mean"`
}

type ImageSummary struct {
	ImageRef    string      `json:"image_ref"`
	Responses   int         `json:"responses"`
	Green       RatingStats `json:"green"`
	Pleasant    RatingStats `json:"pleasant"`
	MeanDwellMs float64     `json:"mean_dwell_ms"`
}

type ResultsResponse struct {
	Sessions int            `json:"sessions"`
	Images   []ImageSummary `json:"images"`
}

// Completion payload

type UnitRecord struct {
	Position    int       `json:"position"`
	UnitID      string    `json:"unit_id"`
	ImageRef    string    `json:"image_ref"`
	Green       int       `json:"green"`
	Pleasant    int       `json:"pleasant"`
	LoadedAt    time.Time `json:"loaded_at"`
	BothRatedAt time.Time `json:"both_rated_at"`
	CompletedAt time.Time `json:"completed_at"`
	DwellMs     int64     `json:"dwell_ms"`  // both_rated_at - loaded_at, never negative
	ViewedMs    int64     `json:"viewed_ms"` // completed_at - loaded_at, never negative
}

type SessionMetadata struct {
	RatingOrder    string    `json:"rating_order"` // "GP" | "PG"
	FieldOrder     []string  `json:"field_order"`
	LexiconVariant string    `json:"lexicon_variant,omitempty"`
	RevisitPolicy  string    `json:"revisit_policy"`
	CompletedCount int       `json:"rated_images_count"`
	RatingChanges  int       `json:"rating_changes"`
	MaxImagesCap   *int      `json:"max_images_cap,omitempty"`
	EndReason      string    `json:"end_reason"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"completion_time"`
	SurveyVersion  string    `json:"survey_version,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	IPHash         string    `json:"ip_hash,omitempty"`
}

type Payload struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Records   []UnitRecord    `json:"responses"`
	Metadata  SessionMetadata `json:"survey_metadata"`
}

// SaveResult relays the persistence outcome verbatim.
type SaveResult struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	SavedAt *time.Time `json:"saved_at,omitempty"`
	Pending bool       `json:"pending,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
