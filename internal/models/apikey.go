package models

// KeyStatus is the last known validation outcome of an API key.
type KeyStatus string

const (
	KeyUntested KeyStatus = "untested"
	KeyTesting  KeyStatus = "testing"
	KeyValid    KeyStatus = "valid"
	KeyInvalid  KeyStatus = "invalid"
)

// APIKeyConfig is a per-provider credential plus its validation status.
type APIKeyConfig struct {
	Key    string    `json:"key"`
	Status KeyStatus `json:"status"`
}

// Redacted hides all but the last four characters of the key.
func (c APIKeyConfig) Redacted() APIKeyConfig {
	if len(c.Key) <= 4 {
		if c.Key != "" {
			c.Key = "****"
		}
		return c
	}
	c.Key = "****" + c.Key[len(c.Key)-4:]
	return c
}
