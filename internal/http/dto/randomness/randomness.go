// Package randomness contiene los DTOs de los endpoints de randomness.
package randomness

// RandomnessRequest es el body de POST /randomness.
type RandomnessRequest struct {
	Points []string `json:"points"`
	// Epoch opcional; si viene debe ser el epoch activo.
	Epoch *uint8 `json:"epoch,omitempty"`
}

// RandomnessResponse devuelve un punto evaluado por cada punto de entrada, en el mismo orden.
type RandomnessResponse struct {
	Points []string `json:"points"`
	Epoch  uint8    `json:"epoch"`
}

// InfoResponse es la respuesta de GET /info.
type InfoResponse struct {
	PublicKey     string  `json:"publicKey"`
	CurrentEpoch  uint8   `json:"currentEpoch"`
	NextEpochTime *string `json:"nextEpochTime"`
	MaxPoints     int     `json:"maxPoints"`
}

// HealthResponse es la respuesta de GET /healthz.
type HealthResponse struct {
	Status       string  `json:"status"` // ready | unavailable
	CurrentEpoch *uint8  `json:"currentEpoch,omitempty"`
	Generation   *uint64 `json:"generation,omitempty"`
}
