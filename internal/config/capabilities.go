package config

// Capability is a host facility a function may require, e.g. "!FS".
type Capability string

const (
	CapPure   Capability = "!Pure"
	CapIO     Capability = "!IO"
	CapNet    Capability = "!Net"
	CapFS     Capability = "!FS"
	CapClock  Capability = "!Clock"
	CapRand   Capability = "!Rand"
	CapDevice Capability = "!Device"
)

// Profiles lists the capabilities each named host profile grants.
var Profiles = map[string][]Capability{
	"pure":               {CapPure},
	"browser_playground": {CapPure, CapIO, CapNet, CapClock, CapRand},
	"server_agent":       {CapPure, CapIO, CapNet, CapFS, CapClock, CapRand},
	"iot_min":            {CapPure, CapIO, CapDevice, CapClock},
}

// CapabilityByName maps the type name used in (caps (x Name)) entries.
func CapabilityByName(name string) (Capability, bool) {
	c := Capability("!" + name)
	switch c {
	case CapPure, CapIO, CapNet, CapFS, CapClock, CapRand, CapDevice:
		return c, true
	}
	return "", false
}

// MissingCapabilities returns the entries of required that profile does
// not grant, in order and without duplicates. An unknown profile grants
// nothing.
func MissingCapabilities(required []Capability, profile string) []Capability {
	granted := make(map[Capability]bool)
	for _, c := range Profiles[profile] {
		granted[c] = true
	}
	seen := make(map[Capability]bool)
	var missing []Capability
	for _, c := range required {
		if granted[c] || seen[c] {
			continue
		}
		seen[c] = true
		missing = append(missing, c)
	}
	return missing
}
