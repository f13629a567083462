package browser

import "github.com/playwright-community/playwright-go"

// Launcher starts engine instances and resolves device profiles.
type Launcher interface {
	Launch(engine Engine, opts LaunchOptions) (Instance, error)
	Device(name string) (*playwright.DeviceDescriptor, error)
}

// Instance is a launched engine.
type Instance interface {
	NewContext(opts playwright.BrowserNewContextOptions) (Context, error)
	Close() error
}

// Context is an isolated browsing context with tracing.
type Context interface {
	NewPage() (Page, error)
	StartTracing() error
	StopTracing(path string) error
	Close() error
}

// Page is the page handed to a test.
type Page interface {
	// Handle is the library page the test drives.
	Handle() playwright.Page
	SetDefaultTimeout(ms float64)
	// VideoPath is the recorded video, or "" when nothing was recorded.
	VideoPath() (string, error)
}

// checkDevice rejects profiles the engine refuses at context creation.
// Firefox has no isMobile support.
func checkDevice(engine Engine, device *playwright.DeviceDescriptor) error {
	if engine == Firefox && device.IsMobile {
		return ErrMobileUnsupported
	}
	return nil
}

// contextOptions builds the context options for desc. Video recording is
// always on at a fixed capture size; a device profile or a resolution, never
// both, decides the viewport.
func contextOptions(desc Descriptor, device *playwright.DeviceDescriptor, opts Options) playwright.BrowserNewContextOptions {
	size := opts.VideoSize
	if size.Width <= 0 || size.Height <= 0 {
		size = Viewport{Width: DefaultVideoWidth, Height: DefaultVideoHeight}
	}

	o := playwright.BrowserNewContextOptions{
		RecordVideo: &playwright.RecordVideo{
			Dir:  opts.VideoDir,
			Size: &playwright.Size{Width: size.Width, Height: size.Height},
		},
	}

	switch {
	case device != nil:
		o.UserAgent = playwright.String(device.UserAgent)
		o.Viewport = device.Viewport
		o.Screen = device.Screen
		o.DeviceScaleFactor = playwright.Float(device.DeviceScaleFactor)
		if desc.Engine != Firefox {
			o.IsMobile = playwright.Bool(device.IsMobile)
		}
		o.HasTouch = playwright.Bool(device.HasTouch)
	case desc.Resolution != nil:
		o.Viewport = &playwright.Size{Width: desc.Resolution.Width, Height: desc.Resolution.Height}
	}

	return o
}
