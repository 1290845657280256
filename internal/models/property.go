package models

// Property is a catalog entry. IDs are vendor-assigned and read-only here;
// the catalog is the system of record.
type Property struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
