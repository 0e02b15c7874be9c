package models

// Record represents one imported spreadsheet row
type Record struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"nombre" db:"nombre"`
	Email string `json:"email" db:"email"`
	Score *int64 `json:"puntaje" db:"puntaje"` // nil when the source cell was blank
}

// RecordColumns is the fixed column order used for export
var RecordColumns = []string{"id", "nombre", "email", "puntaje"}
