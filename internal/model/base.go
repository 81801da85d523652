package model

import "time"

type BaseModel struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Actor is the verified identity supplied by the external authentication
// collaborator. The core never checks credentials; it only consumes this.
type Actor struct {
	ID    string
	Roles []string
}

// System is the actor recorded for mutations triggered by internal listeners
// rather than a user request.
var System = Actor{ID: "system"}
