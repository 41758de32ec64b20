package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fireteam/roster/internal/util"
	"github.com/fireteam/roster/pkg/core"
	"github.com/magiconair/properties"
	"github.com/spf13/viper"
)

// FileName is the key=value config file read from the config directory.
const FileName = "config.txt"

// ErrMissingKey is returned when a required key is absent or empty.
var ErrMissingKey = errors.New("missing required config key")

// APIConfig holds Bungie.net platform settings
type APIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AssetConfig holds emblem and ghost artwork settings
type AssetConfig struct {
	Concurrency  int
	FontPath     string
	FontSize     int
	MinFontSize  int
	TextColor    color.RGBA
	EmblemWidth  int
	EmblemHeight int
	LabelIndent  int
	LabelLift    int
	GhostSize    int
}

// CaptureConfig holds the on-screen geometry and timing of the capture sequence.
// Ratios are fractions of the screen width (x) or height (y).
type CaptureConfig struct {
	XRatio            float64
	YBase             float64
	YStep             float64
	DetailXRatio      float64
	DetailYRatio      float64
	ParkX             int
	ParkY             int
	CropLeft          float64
	CropRight         float64
	Width             int
	ContextKey        string
	InventoryKey      string
	DismissKey        string
	SettleDelay       time.Duration
	KeyHold           time.Duration
	RepeatGap         time.Duration
	CaptureDelay      time.Duration
	ReleaseDelay      time.Duration
	RequireInputBlock bool
}

// OutputConfig holds where the run writes its artifacts.
type OutputConfig struct {
	Path         string
	WorkspaceDir string
	OpenFolder   bool
	RunTimeout   time.Duration
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// InfluxConfig holds the optional run-summary sink settings
type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
	Timeout time.Duration
}

func setDefaults() {
	viper.SetDefault("bungie_name", "")
	viper.SetDefault("bungie_api_key", "")

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.baseUrl", "https://www.bungie.net")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("roster.concurrency", 8)

	viper.SetDefault("assets.concurrency", 8)
	viper.SetDefault("assets.fontPath", "Lato-Bold.ttf")
	viper.SetDefault("assets.fontSize", 40)
	viper.SetDefault("assets.minFontSize", 10)
	viper.SetDefault("assets.textColor", "#ffffff")
	viper.SetDefault("assets.emblemWidth", 474)
	viper.SetDefault("assets.emblemHeight", 96)
	viper.SetDefault("assets.labelIndent", 120)
	viper.SetDefault("assets.labelLift", 10)
	viper.SetDefault("assets.ghostSize", 175)

	viper.SetDefault("capture.xRatio", 0.236)
	viper.SetDefault("capture.yBase", 0.193)
	viper.SetDefault("capture.yStep", 0.054)
	viper.SetDefault("capture.detailXRatio", 0.725)
	viper.SetDefault("capture.detailYRatio", 0.369)
	viper.SetDefault("capture.parkX", 100)
	viper.SetDefault("capture.parkY", 100)
	viper.SetDefault("capture.cropLeft", 2270.0/3840.0)
	viper.SetDefault("capture.cropRight", 3250.0/3840.0)
	viper.SetDefault("capture.width", 474)
	viper.SetDefault("capture.contextKey", "s")
	viper.SetDefault("capture.inventoryKey", "i")
	viper.SetDefault("capture.dismissKey", "]")
	viper.SetDefault("capture.settleDelay", "500ms")
	viper.SetDefault("capture.keyHold", "50ms")
	viper.SetDefault("capture.repeatGap", "500ms")
	viper.SetDefault("capture.captureDelay", "1500ms")
	viper.SetDefault("capture.releaseDelay", "500ms")
	viper.SetDefault("capture.requireInputBlock", false)

	viper.SetDefault("output.path", "combined_image.png")
	viper.SetDefault("output.workspaceDir", ".")
	viper.SetDefault("output.openFolder", true)
	viper.SetDefault("run.timeout", "0s")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "fireteam")
	viper.SetDefault("influx.bucket", "fireteam_runs")
	viper.SetDefault("influx.timeout", "5s")
}

// Load reads the key=value config file from configDir and sets default values.
// Environment variables prefixed with FIRETEAM_ override file values.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix("FIRETEAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	data, err := os.ReadFile(filepath.Join(configDir, FileName))
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(escapeBackslashes(data))
	if err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}

	values := make(map[string]any, p.Len())
	for _, key := range p.Keys() {
		v, _ := p.Get(key)
		setNested(values, strings.Split(key, "."), strings.TrimSpace(v))
	}
	if err := viper.MergeConfigMap(values); err != nil {
		return fmt.Errorf("error merging config file: %v", err)
	}

	return nil
}

// escapeBackslashes doubles every backslash so the properties parser keeps
// Windows paths like C:\Windows\Fonts literally.
func escapeBackslashes(data []byte) []byte {
	return []byte(strings.ReplaceAll(string(data), `\`, `\\`))
}

// setNested stores value under a dotted key path so sections like capture.* merge
// with their defaults.
func setNested(m map[string]any, path []string, value string) {
	for _, part := range path[:len(path)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetIdentity parses bungie_name into the local player's identity.
func GetIdentity() (core.Identity, error) {
	raw := util.TrimQuotes(viper.GetString("bungie_name"))
	if raw == "" {
		return core.Identity{}, fmt.Errorf("%w: bungie_name", ErrMissingKey)
	}
	return core.ParseIdentity(raw)
}

// GetAPIConfig returns the API settings. The API key is required.
func GetAPIConfig() (APIConfig, error) {
	cfg := APIConfig{
		BaseURL: viper.GetString("api.baseUrl"),
		APIKey:  util.TrimQuotes(viper.GetString("bungie_api_key")),
		Timeout: viper.GetDuration("api.timeout"),
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: bungie_api_key", ErrMissingKey)
	}
	return cfg, nil
}

// GetAssetConfig returns the artwork settings.
func GetAssetConfig() (AssetConfig, error) {
	textColor, err := ParseColor(viper.GetString("assets.textColor"))
	if err != nil {
		return AssetConfig{}, err
	}
	return AssetConfig{
		Concurrency:  viper.GetInt("assets.concurrency"),
		FontPath:     viper.GetString("assets.fontPath"),
		FontSize:     viper.GetInt("assets.fontSize"),
		MinFontSize:  viper.GetInt("assets.minFontSize"),
		TextColor:    textColor,
		EmblemWidth:  viper.GetInt("assets.emblemWidth"),
		EmblemHeight: viper.GetInt("assets.emblemHeight"),
		LabelIndent:  viper.GetInt("assets.labelIndent"),
		LabelLift:    viper.GetInt("assets.labelLift"),
		GhostSize:    viper.GetInt("assets.ghostSize"),
	}, nil
}

// GetCaptureConfig returns the capture geometry and timing.
func GetCaptureConfig() CaptureConfig {
	return CaptureConfig{
		XRatio:            viper.GetFloat64("capture.xRatio"),
		YBase:             viper.GetFloat64("capture.yBase"),
		YStep:             viper.GetFloat64("capture.yStep"),
		DetailXRatio:      viper.GetFloat64("capture.detailXRatio"),
		DetailYRatio:      viper.GetFloat64("capture.detailYRatio"),
		ParkX:             viper.GetInt("capture.parkX"),
		ParkY:             viper.GetInt("capture.parkY"),
		CropLeft:          viper.GetFloat64("capture.cropLeft"),
		CropRight:         viper.GetFloat64("capture.cropRight"),
		Width:             viper.GetInt("capture.width"),
		ContextKey:        viper.GetString("capture.contextKey"),
		InventoryKey:      viper.GetString("capture.inventoryKey"),
		DismissKey:        viper.GetString("capture.dismissKey"),
		SettleDelay:       viper.GetDuration("capture.settleDelay"),
		KeyHold:           viper.GetDuration("capture.keyHold"),
		RepeatGap:         viper.GetDuration("capture.repeatGap"),
		CaptureDelay:      viper.GetDuration("capture.captureDelay"),
		ReleaseDelay:      viper.GetDuration("capture.releaseDelay"),
		RequireInputBlock: viper.GetBool("capture.requireInputBlock"),
	}
}

// GetOutputConfig returns the output settings.
func GetOutputConfig() OutputConfig {
	return OutputConfig{
		Path:         viper.GetString("output.path"),
		WorkspaceDir: viper.GetString("output.workspaceDir"),
		OpenFolder:   viper.GetBool("output.openFolder"),
		RunTimeout:   viper.GetDuration("run.timeout"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL:     viper.GetString("influx.url"),
		Token:   viper.GetString("influx.token"),
		Org:     viper.GetString("influx.org"),
		Bucket:  viper.GetString("influx.bucket"),
		Timeout: viper.GetDuration("influx.timeout"),
	}
}

// ParseColor accepts #rrggbb or rgb(r,g,b).
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	if inner, ok := strings.CutPrefix(s, "rgb("); ok {
		parts := strings.Split(strings.TrimSuffix(inner, ")"), ",")
		if len(parts) == 3 {
			var c [3]uint8
			for i, part := range parts {
				n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
				if err != nil {
					return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
				}
				c[i] = uint8(n)
			}
			return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}, nil
		}
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q", s)
}
