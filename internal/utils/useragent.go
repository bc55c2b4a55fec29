package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// Platform labels recorded with search analytics
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWindows = "windows"
	PlatformMac     = "mac"
	PlatformLinux   = "linux"
	PlatformBot     = "bot"
	PlatformUnknown = "unknown"
)

// osPlatforms maps lower-cased OS name fragments to platform labels, checked in order
var osPlatforms = []struct {
	fragment string
	platform string
}{
	{"android", PlatformAndroid},
	{"iphone os", PlatformIOS},
	{"ios", PlatformIOS},
	{"windows", PlatformWindows},
	{"mac os x", PlatformMac},
	{"macos", PlatformMac},
	{"linux", PlatformLinux},
	{"ubuntu", PlatformLinux},
}

// ClientPlatform reduces a User-Agent string to the coarse platform a rider searched from
func ClientPlatform(userAgent string) string {
	if userAgent == "" || userAgent == "Unknown" {
		return PlatformUnknown
	}

	parser := ua.New(userAgent)
	if parser.Bot() {
		return PlatformBot
	}

	osName := strings.ToLower(parser.OSInfo().Name)
	for _, p := range osPlatforms {
		if strings.Contains(osName, p.fragment) {
			return p.platform
		}
	}
	return PlatformUnknown
}
