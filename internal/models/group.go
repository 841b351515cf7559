package models

// Group is identified by its name only.
type Group struct {
	Name string `json:"name"`
}
