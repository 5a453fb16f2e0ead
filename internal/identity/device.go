package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Environment is the set of host attributes the fingerprint is derived from.
type Environment struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	CPUs     int    `json:"cpus"`
	Timezone string `json:"timezone"`
	Language string `json:"language"`
	Terminal string `json:"terminal"`
}

// CurrentEnvironment samples the running host.
func CurrentEnvironment() Environment {
	host, _ := os.Hostname()
	zone, _ := time.Now().Zone()
	return Environment{
		Hostname: host,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUs:     runtime.NumCPU(),
		Timezone: zone,
		Language: language(),
		Terminal: terminal(),
	}
}

// Fingerprint hashes env into a short stable token. It identifies a machine,
// not a person, and is only sent along with analytics.
func Fingerprint(env Environment) string {
	raw, _ := json.Marshal(env)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// DeviceInfo is the coarse device description attached to analytics events.
type DeviceInfo struct {
	DeviceType       string `json:"deviceType"`
	Browser          string `json:"browser"`
	OS               string `json:"os"`
	ScreenResolution string `json:"screenResolution,omitempty"`
	Language         string `json:"language"`
}

// Device describes env. Terminals are always reported as desktops.
func Device(env Environment) DeviceInfo {
	return DeviceInfo{
		DeviceType: "desktop",
		Browser:    env.Terminal,
		OS:         osName(env.OS),
		Language:   env.Language,
	}
}

func osName(goos string) string {
	switch goos {
	case "windows":
		return "Windows"
	case "darwin":
		return "MacOS"
	case "linux":
		return "Linux"
	case "android":
		return "Android"
	case "ios":
		return "iOS"
	}
	return "Unknown"
}

func language() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			v, _, _ = strings.Cut(v, ".")
			return strings.ReplaceAll(v, "_", "-")
		}
	}
	return "en"
}

func terminal() string {
	if v := os.Getenv("TERM_PROGRAM"); v != "" {
		return v
	}
	if v := os.Getenv("TERM"); v != "" {
		return v
	}
	return "Unknown"
}

// Session groups the events of one process run.
type Session struct {
	ID    string    `json:"session_id"`
	Start time.Time `json:"start_time"`
}

func NewSession(now time.Time) Session {
	return Session{ID: "session_" + uuid.NewString(), Start: now}
}
