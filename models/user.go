package models

// User represents the single admin identity. A stored record always has
// IsAuthenticated set; absence of the record means logged out.
type User struct {
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}
