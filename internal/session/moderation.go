package session

import (
	"sort"

	"github.com/samber/lo"
)

// ModerationLedger is the set of display names barred from chat.
type ModerationLedger struct {
	banned map[string]struct{}
}

// NewModerationLedger creates an empty ledger.
func NewModerationLedger() *ModerationLedger {
	return &ModerationLedger{banned: make(map[string]struct{})}
}

// Ban adds name and reports whether it was newly added.
func (m *ModerationLedger) Ban(name string) bool {
	if _, ok := m.banned[name]; ok {
		return false
	}
	m.banned[name] = struct{}{}
	return true
}

// IsBanned reports whether name is barred from chat.
func (m *ModerationLedger) IsBanned(name string) bool {
	_, ok := m.banned[name]
	return ok
}

// Clear lifts the ban on name and reports whether one existed.
func (m *ModerationLedger) Clear(name string) bool {
	if _, ok := m.banned[name]; !ok {
		return false
	}
	delete(m.banned, name)
	return true
}

// Banned returns the banned names sorted.
func (m *ModerationLedger) Banned() []string {
	names := lo.Keys(m.banned)
	sort.Strings(names)
	return names
}
