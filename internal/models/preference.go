package models

const (
	PreferenceCategoryDisplay = "display_settings"

	PreferenceNameTeammateDisplay  = "name_format"
	PreferenceNameCollapsedThreads = "collapsed_reply_threads"
)

// Teammate name display settings.
const (
	ShowUsername         = "username"
	ShowNicknameFullName = "nickname_full_name"
	ShowFullName         = "full_name"
)

type Preference struct {
	UserID   string `json:"userId"`
	Category string `json:"category" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=32"`
	Value    string `json:"value" validate:"max=2000"`
}
