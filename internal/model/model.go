package model

import "time"

// DateLayout is how calendar dates are rendered and stored as text.
const DateLayout = "2006-01-02"

type Role int

const (
	Patient Role = iota + 1
	Caregiver
)

func (r Role) String() string {
	switch r {
	case Patient:
		return "patient"
	case Caregiver:
		return "caregiver"
	}
	return "unknown"
}

type User struct {
	Role         Role
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Vaccine struct {
	Name  string
	Doses int
}

type Availability struct {
	Caregiver string
	Date      time.Time
}

type Appointment struct {
	ID        int
	Date      time.Time
	Caregiver string
	Patient   string
	Vaccine   string
}

// OwnedBy reports whether the user acting as role is the appointment's
// patient or its caregiver.
func (a *Appointment) OwnedBy(role Role, username string) bool {
	if username == "" {
		return false
	}
	switch role {
	case Patient:
		return a.Patient == username
	case Caregiver:
		return a.Caregiver == username
	}
	return false
}
