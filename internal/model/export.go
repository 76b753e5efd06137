package model

import "time"

// ExportDocument is the transport-neutral serialization of a full
// client state: every meal, the settings record, and the moment of
// export. Importing a document assigns fresh identifiers, so the
// identifiers and timestamps inside it are informational only.
type ExportDocument struct {
	ExportedAt time.Time `json:"exported_at"`
	Meals      []Meal    `json:"meals"`
	Settings   Settings  `json:"settings"`
}
