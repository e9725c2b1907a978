package models

// Platform is the kind of display entity the host renders.
type Platform string

const (
	PlatformSensor       Platform = "sensor"
	PlatformNumber       Platform = "number"
	PlatformBinarySensor Platform = "binary_sensor"
	PlatformButton       Platform = "button"
)

// CategoryDiagnostic marks entities describing the adapter itself.
const CategoryDiagnostic = "diagnostic"

// Entity is a registered display entity. Kind is one of identity.Kind.
type Entity struct {
	UniqueID  string   `json:"unique_id"`
	EntryID   string   `json:"entry_id"`
	Platform  Platform `json:"platform"`
	Kind      string   `json:"kind"`
	Name      string   `json:"name"`
	Device    string   `json:"device"`
	Category  string   `json:"category,omitempty"`
	AccountID string   `json:"account_id,omitempty"`
	Symbol    string   `json:"symbol,omitempty"`
	Provider  string   `json:"provider,omitempty"`
	Unit      string   `json:"unit,omitempty"`
}

// EntityState is the value an entity currently displays. A nil State means
// unknown.
type EntityState struct {
	UniqueID   string         `json:"unique_id"`
	State      any            `json:"state"`
	Available  bool           `json:"available"`
	Unit       string         `json:"unit,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
