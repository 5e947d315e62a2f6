package model

import "time"

// Student is a row in the students table. DeletedAt is set instead of
// removing the row; rows with a deletion timestamp are invisible to every
// read path but still occupy their email.
type Student struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Email       string     `db:"email" json:"email"`
	Age         int        `db:"age" json:"age"`
	Grade       string     `db:"grade" json:"grade"`
	TotalPoints int        `db:"total_points" json:"total_points"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
}

// StudentInput is the request body for create and update. Update writes all
// fields as given, so an omitted field is stored as its zero value.
type StudentInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Age         int    `json:"age" validate:"required"`
	Grade       string `json:"grade" validate:"required"`
	TotalPoints int    `json:"total_points"`
}
