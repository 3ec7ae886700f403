package notify

import (
	"lobbynotify/internal/i18n"
	"lobbynotify/internal/models"
)

const ellipsis = "..."

// Localizer formats a localized string.
type Localizer interface {
	Localize(locale, key string, args ...any) string
}

// URLBuilder returns the client route of a channel.
type URLBuilder interface {
	ChannelURL(channelName, teamID string) string
}

// Composer builds notification content. It performs no I/O.
type Composer struct {
	tr    Localizer
	urls  URLBuilder
	strip func(string) string
}

// NewComposer returns a Composer. strip removes markdown formatting from
// the notify text; nil leaves the text as is.
func NewComposer(tr Localizer, urls URLBuilder, strip func(string) string) *Composer {
	if strip == nil {
		strip = func(s string) string { return s }
	}
	return &Composer{tr: tr, urls: urls, strip: strip}
}

// ComposeInput gathers everything Compose reads.
type ComposeInput struct {
	Message   *InboundMessage
	Channel   *models.Channel // nil when the channel is not loaded
	Author    *models.User    // nil when the author is unknown
	Recipient *RecipientContext
	Platform  PlatformContext

	AllowUsernameOverride bool
}

func (c *Composer) Compose(in ComposeInput) ComposedNotification {
	locale := in.Recipient.locale()
	channel := channelOrProps(in.Channel, in.Message.Props)

	name := c.AuthorName(in.Message, in.Author, in.Recipient.TeammateNameDisplay, locale, in.AllowUsernameOverride)
	text := c.NotifyText(in.Message, in.Platform)

	teamID := in.Message.Props.TeamID
	if teamID == "" {
		teamID = channel.TeamID
	}

	return ComposedNotification{
		Title:     c.Title(in.Message, in.Channel, in.Recipient.CollapsedThreads, locale),
		Body:      c.Body(name, text, in.Message, locale),
		SoundName: SoundName(in.Recipient),
		URL:       c.urls.ChannelURL(channel.Name, teamID),
		ChannelID: in.Message.Post.ChannelID,
		TeamID:    teamID,
	}
}

// channelOrProps returns channel, or a stand-in built from the post metadata.
func channelOrProps(channel *models.Channel, props MessageProps) *models.Channel {
	if channel != nil {
		return channel
	}
	return &models.Channel{
		TeamID:      props.TeamID,
		Name:        props.ChannelName,
		DisplayName: props.ChannelDisplayName,
		Type:        props.ChannelType,
	}
}

// Title is the notification heading, never empty.
func (c *Composer) Title(msg *InboundMessage, channel *models.Channel, collapsedThreads bool, locale string) string {
	var title string
	if channel != nil {
		title = c.channelTitle(channel.Type, channel.DisplayName, locale)
	}
	if title == "" {
		title = c.channelTitle(msg.Props.ChannelType, msg.Props.ChannelDisplayName, locale)
	}
	if title == "" {
		title = c.tr.Localize(locale, i18n.KeyPosted)
	}

	if collapsedThreads && msg.rootID() != "" {
		title = c.tr.Localize(locale, i18n.KeyReplyIn, title)
	}
	return title
}

func (c *Composer) channelTitle(channelType, displayName, locale string) string {
	if channelType == models.ChannelTypeDirect {
		return c.tr.Localize(locale, i18n.KeyDirectMessage)
	}
	return displayName
}

// AuthorName picks the first non-empty of the override username, the
// author's formatted display name and the localized "Someone".
func (c *Composer) AuthorName(msg *InboundMessage, author *models.User, nameDisplay, locale string, allowOverride bool) string {
	candidates := []func() string{
		func() string {
			if !allowOverride {
				return ""
			}
			return msg.Post.Props.OverrideUsername
		},
		func() string {
			if author == nil {
				return ""
			}
			return DisplayName(author, nameDisplay)
		},
	}
	for _, candidate := range candidates {
		if name := candidate(); name != "" {
			return name
		}
	}
	return c.tr.Localize(locale, i18n.KeySomeone)
}

// DisplayName formats user according to a teammate name display setting.
// Unknown settings show the username.
func DisplayName(user *models.User, setting string) string {
	switch setting {
	case models.ShowNicknameFullName:
		if user.Nickname != "" {
			return user.Nickname
		}
		if full := user.FullName(); full != "" {
			return full
		}
	case models.ShowFullName:
		if full := user.FullName(); full != "" {
			return full
		}
	}
	return user.Username
}

// NotifyText is the plain-text excerpt shown under the author's name.
// It may be empty.
func (c *Composer) NotifyText(msg *InboundMessage, platform PlatformContext) string {
	text := msg.Post.Message
	if text == "" {
		text = attachmentText(msg.textAttachments())
	}
	return Truncate(c.strip(text), platform.NotifyTextMaxLength())
}

func attachmentText(attachments []models.Attachment) string {
	for _, a := range attachments {
		for _, s := range []string{a.Fallback, a.Pretext, a.Text} {
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// Truncate shortens s to at most max characters, replacing the tail with
// an ellipsis. Strings of max characters or fewer are returned unchanged.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	keep := max - len(ellipsis)
	if keep < 0 {
		return string(runes[:max])
	}
	return string(runes[:keep]) + ellipsis
}

// Body is "@name: text", or "@name" followed by a description of the
// post's activity when there is no text. It is never empty.
func (c *Composer) Body(name, text string, msg *InboundMessage, locale string) string {
	body := "@" + name
	if text != "" {
		return body + ": " + text
	}
	return body + c.tr.Localize(locale, activityKey(msg))
}

func activityKey(msg *InboundMessage) string {
	switch {
	case msg.Props.Image:
		return i18n.KeyUploadedImage
	case msg.Props.OtherFile:
		return i18n.KeyUploadedFile
	case hasImageAttachment(msg.Post.Props.Attachments):
		return i18n.KeyPostedImage
	}
	return i18n.KeySomethingNew
}

func hasImageAttachment(attachments []models.Attachment) bool {
	for _, a := range attachments {
		if a.ImageURL != "" {
			return true
		}
	}
	return false
}

// SoundName resolves the sound cue for rc: the channel override, then the
// user's choice, then the default. It is "None" when the user turned
// desktop sounds off.
func SoundName(rc *RecipientContext) string {
	if rc.User != nil && !rc.User.NotifyProps.DesktopSound {
		return models.NoSound
	}
	if rc.Member != nil {
		if s := rc.Member.NotifyProps.DesktopNotificationSound; s != "" && s != models.NotifyLevelDefault {
			return s
		}
	}
	if rc.User != nil && rc.User.NotifyProps.DesktopNotificationSound != "" {
		return rc.User.NotifyProps.DesktopNotificationSound
	}
	return models.DefaultNotificationSound
}
