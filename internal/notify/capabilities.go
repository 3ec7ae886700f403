package notify

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Capability is an optional field of the companion bridge envelope.
type Capability string

const (
	CapabilitySound Capability = "sound"
	CapabilityURL   Capability = "url"
)

// minBridgeVersion is the first desktop app release that accepts
// dispatch-notification envelopes.
const minBridgeVersion = "4.3.0"

var capabilityVersions = []struct {
	capability Capability
	minVersion string
}{
	{CapabilitySound, "4.6.0"},
	{CapabilityURL, "4.7.2"},
}

// CapabilitySet is what one companion version supports.
type CapabilitySet struct {
	bridge       bool
	capabilities map[Capability]bool
}

// Negotiate computes the capabilities of p. Anything other than a desktop
// app with a valid version at or above the bridge minimum gets an empty set.
func Negotiate(p PlatformContext) CapabilitySet {
	if !p.DesktopApp || !versionAtLeast(p.DesktopAppVersion, minBridgeVersion) {
		return CapabilitySet{}
	}

	set := CapabilitySet{bridge: true, capabilities: make(map[Capability]bool, len(capabilityVersions))}
	for _, cv := range capabilityVersions {
		if versionAtLeast(p.DesktopAppVersion, cv.minVersion) {
			set.capabilities[cv.capability] = true
		}
	}
	return set
}

func (s CapabilitySet) BridgeAvailable() bool {
	return s.bridge
}

func (s CapabilitySet) Has(c Capability) bool {
	return s.capabilities[c]
}

// versionAtLeast compares semantic versions with or without a "v" prefix.
// Invalid versions never satisfy a minimum.
func versionAtLeast(version, min string) bool {
	v := "v" + strings.TrimPrefix(strings.TrimSpace(version), "v")
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, "v"+min) >= 0
}
