package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/evidence"
)

// Engine is a supported browser engine.
type Engine string

const (
	Chromium Engine = "chromium"
	Firefox  Engine = "firefox"
	WebKit   Engine = "webkit"
)

// Engines lists every supported engine.
var Engines = []Engine{Chromium, Firefox, WebKit}

// Valid reports whether e is one of Engines.
func (e Engine) Valid() bool {
	for _, known := range Engines {
		if e == known {
			return true
		}
	}
	return false
}

// ParseEngine maps a name to an Engine. Unknown names are a configuration
// error.
func ParseEngine(name string) (Engine, error) {
	e := Engine(strings.ToLower(strings.TrimSpace(name)))
	if !e.Valid() {
		return "", &config.ConfigurationError{
			Reason: fmt.Sprintf("unsupported browser engine %q", name),
			Err:    ErrUnsupportedEngine,
		}
	}
	return e, nil
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Descriptor parameterizes one session. At most one of Device and Resolution
// is set; with neither the context uses the library defaults.
type Descriptor struct {
	Engine     Engine
	Device     string
	Resolution *Viewport
}

// Validate checks the descriptor before any resource is acquired.
func (d Descriptor) Validate() error {
	if !d.Engine.Valid() {
		return &config.ConfigurationError{
			Reason: fmt.Sprintf("unsupported browser engine %q", d.Engine),
			Err:    ErrUnsupportedEngine,
		}
	}
	if d.Device != "" && d.Resolution != nil {
		return &config.ConfigurationError{
			Reason: fmt.Sprintf("descriptor %s sets both device %q and resolution %s", d, d.Device, d.Resolution),
			Err:    ErrConflictingViewport,
		}
	}
	if d.Resolution != nil && (d.Resolution.Width <= 0 || d.Resolution.Height <= 0) {
		return &config.ConfigurationError{
			Reason: fmt.Sprintf("invalid resolution %s", d.Resolution),
		}
	}
	return nil
}

// Slug is the descriptor fragment used in artifact names.
func (d Descriptor) Slug() string {
	switch {
	case d.Device != "":
		return evidence.DescriptorName(d.Device)
	case d.Resolution != nil:
		return d.Resolution.String()
	default:
		return "default"
	}
}

func (d Descriptor) String() string {
	switch {
	case d.Device != "":
		return string(d.Engine) + "-" + d.Device
	case d.Resolution != nil:
		return string(d.Engine) + "-" + d.Resolution.String()
	default:
		return string(d.Engine)
	}
}

// DescriptorFromEntry converts a run matrix entry.
func DescriptorFromEntry(e config.Entry) (Descriptor, error) {
	engine, err := ParseEngine(e.Engine)
	if err != nil {
		return Descriptor{}, err
	}

	desc := Descriptor{Engine: engine, Device: e.Device}

	w, h, ok, err := e.Viewport()
	if err != nil {
		return Descriptor{}, &config.ConfigurationError{Reason: "matrix entry " + e.ID(), Err: err}
	}
	if ok {
		desc.Resolution = &Viewport{Width: w, Height: h}
	}

	return desc, desc.Validate()
}

// Options configures how the Manager launches and instruments sessions.
type Options struct {
	// Headless runs engines without a window. The default is headed so runs
	// can be watched.
	Headless bool

	// SlowMo delays every automation action.
	SlowMo time.Duration

	// DefaultTimeout is applied to each page. Zero keeps the library default.
	DefaultTimeout time.Duration

	// VideoDir and TraceDir receive the session artifacts.
	VideoDir string
	TraceDir string

	// VideoSize is the capture size, independent of the viewport.
	VideoSize Viewport
}

// Default values
const (
	DefaultVideoWidth  = 1920
	DefaultVideoHeight = 1080
)

// OptionsFromConfig derives manager options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless:       cfg.Headless,
		SlowMo:         cfg.SlowMo,
		DefaultTimeout: cfg.ImplicitTimeout,
		VideoDir:       cfg.Paths.Video,
		TraceDir:       cfg.Paths.Trace,
		VideoSize:      Viewport{Width: DefaultVideoWidth, Height: DefaultVideoHeight},
	}
}

// LaunchOptions is what an engine launch needs.
type LaunchOptions struct {
	Headless bool
	SlowMo   time.Duration
}
