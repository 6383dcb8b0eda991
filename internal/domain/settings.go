package domain

// Weights is the active scoring-weight configuration. The worker pipeline
// reads it fresh on every attempt ("judge with current tuning"); candidates
// only snapshot its name and hash at enqueue time.
type Weights struct {
	Name   string             `json:"name"`
	Hash   string             `json:"hash"`
	Values map[string]float64 `json:"values"`
}

// Settings holds the operator-editable scoring service configuration.
type Settings struct {
	APIKey  string `json:"api_key"`
	ModelID string `json:"model_id"`
}

// DefaultSettings returns the settings seeded on first boot.
func DefaultSettings() Settings {
	return Settings{
		ModelID: "gemini-2.5-flash",
	}
}
