// AngelaMos | 2026
// entity.go

package lead

import (
	"time"
)

type Lead struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	Email          *string   `db:"email"`
	Phone          *string   `db:"phone"`
	Address        *string   `db:"address"`
	StatusID       int64     `db:"status_id"`
	StatusName     *string   `db:"status_name"`
	AssignedTo     *int64    `db:"assigned_to"`
	AssignedToName *string   `db:"assigned_to_name"`
	CreatedAt      time.Time `db:"created_at"`
}

// Status rows are seeded with fixed ids; any status may move to any other.
type Status struct {
	ID   int64  `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}

const (
	StatusNew       int64 = 1
	StatusContacted int64 = 2
	StatusConverted int64 = 3
	StatusLost      int64 = 4
)
