package repository

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

const (
	RoleAngler = "angler"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Trip struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
	Public    bool      `json:"public"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Catch struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	OwnerID   string    `json:"owner_id"`
	Species   string    `json:"species"`
	LengthCm  float64   `json:"length_cm"`
	WeightG   int64     `json:"weight_g"`
	GearID    string    `json:"gear_id,omitempty"`
	Notes     string    `json:"notes"`
	Released  bool      `json:"released"`
	CaughtAt  time.Time `json:"caught_at"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	GearLure  = "lure"
	GearRod   = "rod"
	GearReel  = "reel"
	GearLine  = "line"
	GearOther = "other"
)

var GearKinds = [...]string{GearLure, GearRod, GearReel, GearLine, GearOther}

type Gear struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Kind      string    `json:"kind"`
	Brand     string    `json:"brand"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	WeightG   int64     `json:"weight_g"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShortLink struct {
	Code      string    `json:"code"`
	Target    string    `json:"target"`
	OwnerID   string    `json:"owner_id"`
	Hits      int64     `json:"hits"`
	CreatedAt time.Time `json:"created_at"`
}

type Species struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

type AuditEntry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	ActorID string    `json:"actor_id"`
	Kind    string    `json:"kind"`
	Subject string    `json:"subject"`
	Detail  string    `json:"detail"`
}
