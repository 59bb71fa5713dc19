package state

import "time"

// Entry is one persisted preference value, scoped to a user (or to the local CLI profile).
type Entry struct {
	Scope     string    `db:"scope"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
