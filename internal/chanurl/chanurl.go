// Package chanurl builds and parses the client-side route of a channel,
// which is what a clicked notification navigates to.
package chanurl

import (
	"net/url"
	"strings"
)

const channelsSegment = "/channels/"

// TeamNames resolves a team ID to its URL name.
type TeamNames interface {
	TeamName(teamID string) string
}

type Builder struct {
	teams TeamNames
}

func NewBuilder(teams TeamNames) *Builder {
	return &Builder{teams: teams}
}

// ChannelURL returns "/{team}/channels/{channel}". When the team is not
// known the route is team-less, "/channels/{channel}".
func (b *Builder) ChannelURL(channelName, teamID string) string {
	team := ""
	if b.teams != nil && teamID != "" {
		team = b.teams.TeamName(teamID)
	}
	return Channel(team, channelName)
}

func Channel(teamName, channelName string) string {
	teamName = strings.Trim(strings.TrimSpace(teamName), "/")
	name := url.PathEscape(channelName)
	if teamName == "" {
		return channelsSegment + name
	}
	return "/" + url.PathEscape(teamName) + channelsSegment + name
}

// Parse splits a channel route back into team and channel names.
func Parse(raw string) (teamName, channelName string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	path := u.Path
	if path == "" {
		path = raw
	}

	idx := strings.Index(path, channelsSegment)
	if idx < 0 {
		return "", "", false
	}

	teamName = strings.Trim(path[:idx], "/")
	channelName = path[idx+len(channelsSegment):]
	if channelName == "" || strings.Contains(channelName, "/") || strings.Contains(teamName, "/") {
		return "", "", false
	}
	return teamName, channelName, true
}
