package models

import (
	"strings"
	"time"
)

// Role represents a participant role. It is derived from the display name, never stored.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// TeacherNamePrefix marks server-minted teacher names (e.g. teacher4821).
const TeacherNamePrefix = "teacher"

// IsTeacherName reports whether name matches the reserved teacher pattern.
func IsTeacherName(name string) bool {
	return strings.HasPrefix(name, TeacherNamePrefix)
}

// RoleOf derives the role of a display name.
func RoleOf(name string) Role {
	if IsTeacherName(name) {
		return RoleTeacher
	}
	return RoleStudent
}

// Teacher is a minted teacher identity.
type Teacher struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
