package notify

// ResolveLevel returns the effective desktop notify level for rc. A
// channel override wins when set; otherwise the user's default applies,
// and without one the level is all. The result is never LevelDefault.
func ResolveLevel(rc *RecipientContext) NotifyLevel {
	if rc.Member != nil {
		if level := NotifyLevel(rc.Member.NotifyProps.Desktop); level.IsTerminal() {
			return level
		}
	}

	if rc.User != nil {
		if level := NotifyLevel(rc.User.NotifyProps.Desktop); level.IsTerminal() {
			return level
		}
	}

	return LevelAll
}
