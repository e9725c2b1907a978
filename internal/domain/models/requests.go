package models

// SetLimitRequest is the body of PUT /api/limits/:id.
type SetLimitRequest struct {
	ID    string   `param:"id" validate:"required"`
	Value *float64 `json:"value" validate:"required,gte=0"`
}

// EntityView pairs a registered entity with its current state.
type EntityView struct {
	Entity Entity      `json:"entity"`
	State  EntityState `json:"state"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status       string `json:"status"`
	ServerOnline bool   `json:"server_online"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	Clients      int    `json:"ws_clients"`
}
