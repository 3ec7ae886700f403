package models

// Presence statuses. The set is closed; anything else is treated as offline.
const (
	StatusOnline       = "online"
	StatusAway         = "away"
	StatusDoNotDisturb = "dnd"
	StatusOutOfOffice  = "ooo"
	StatusOffline      = "offline"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusAway, StatusDoNotDisturb, StatusOutOfOffice, StatusOffline:
		return true
	}
	return false
}
