package entities

// Series is a static grouping of models driving canned response text
type Series string

const (
	SeriesFoundation  Series = "foundation"
	SeriesUltra       Series = "ultra"
	SeriesPro         Series = "pro"
	SeriesMini        Series = "mini"
	SeriesSpecialized Series = "specialized"
	SeriesSecret      Series = "secret"
)

// Availability describes the release stage of a model
type Availability string

const (
	AvailabilityGA      Availability = "ga"
	AvailabilityBeta    Availability = "beta"
	AvailabilityPreview Availability = "preview"
)

// Pricing is the per-million-token price in USD
type Pricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// Performance holds the marketing benchmark figures of a model
type Performance struct {
	Accuracy   string `json:"accuracy"`
	Latency    string `json:"latency"`
	Throughput string `json:"throughput"`
}

// RateLimits are the published request limits of a model
type RateLimits struct {
	RPM   int `json:"rpm"`
	TPM   int `json:"tpm"`
	Burst int `json:"burst"`
}

// Model is an immutable catalog entry
type Model struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Version             string       `json:"version"`
	Series              Series       `json:"series"`
	Badge               string       `json:"badge"`
	Tier                string       `json:"tier"`
	Description         string       `json:"description"`
	ContextWindowTokens int          `json:"context_window_tokens"`
	ContextWindowLabel  string       `json:"context_window_label"`
	Pricing             Pricing      `json:"pricing"`
	Performance         Performance  `json:"performance"`
	RateLimits          RateLimits   `json:"rate_limits"`
	Availability        Availability `json:"availability"`
	ReleaseDate         string       `json:"release_date"`
	Secret              bool         `json:"secret,omitempty"`
}
