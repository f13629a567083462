package evidence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	traceTimeLayout      = "20060102_150405"
	videoTimeLayout      = "20060102-150405"
	screenshotTimeLayout = "2006-01-02_15-04-05.000"
)

// DescriptorName turns a device profile name into a file-name fragment:
// spaces become underscores and parentheses are dropped.
//
//	"Pixel 5"              -> "Pixel_5"
//	"Galaxy S9+ (landscape)" -> "Galaxy_S9+_landscape"
func DescriptorName(device string) string {
	s := strings.ReplaceAll(device, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.Join(strings.Fields(s), "_")
	return s
}

// TestName turns a test identifier into a file-name fragment.
func TestName(name string) string {
	r := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", " ", "_",
		"*", "_", "?", "_", "<", "_", ">", "_", "|", "_",
		"\"", "", "(", "", ")", "",
	)
	return r.Replace(strings.TrimSpace(name))
}

// TraceName is traceview_<ts>_<engine>_<descriptor>[_<test>].zip.
func TraceName(ts time.Time, engine, descriptor, test string) string {
	name := fmt.Sprintf("traceview_%s_%s_%s", ts.Format(traceTimeLayout), engine, descriptor)
	if t := TestName(test); t != "" {
		name += "_" + t
	}
	return name + ".zip"
}

// VideoName is <ts>[_<test>]<ext>. ext includes the dot.
func VideoName(ts time.Time, test, ext string) string {
	name := ts.Format(videoTimeLayout)
	if t := TestName(test); t != "" {
		name += "_" + t
	}
	if ext == "" {
		ext = ".webm"
	}
	return name + ext
}

// ScreenshotName is <ts with millis>_<step>.png.
func ScreenshotName(ts time.Time, step string) string {
	return fmt.Sprintf("%s_%s.png", ts.Format(screenshotTimeLayout), TestName(step))
}

// Namer hands out artifact paths that are unique within the process and do
// not collide with files already on disk. Two sessions asking for the same
// candidate get name.ext and name_2.ext.
type Namer struct {
	mu       sync.Mutex
	reserved map[string]struct{}
	claimed  map[string]struct{}
	exists   func(path string) bool
}

// NewNamer returns an empty Namer that checks the file system.
func NewNamer() *Namer {
	return &Namer{
		reserved: make(map[string]struct{}),
		claimed:  make(map[string]struct{}),
		exists:   fileExists,
	}
}

var defaultNamer = NewNamer()

// DefaultNamer is shared by every session in the process.
func DefaultNamer() *Namer {
	return defaultNamer
}

// Reserve returns a unique path in dir for name and marks it taken.
func (n *Namer) Reserve(dir, name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 2; n.taken(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
	n.reserved[candidate] = struct{}{}
	return candidate
}

// Claim is Reserve for names other processes may want too. It creates an
// empty file at the returned path with O_EXCL, moving on to the next suffix
// when the file already exists, so a later os.Rename onto the path replaces
// only this claim.
func (n *Namer) Claim(dir, name string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 2; ; i++ {
		if !n.taken(candidate) {
			f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err == nil {
				f.Close()
				n.reserved[candidate] = struct{}{}
				if n.claimed == nil {
					n.claimed = make(map[string]struct{})
				}
				n.claimed[candidate] = struct{}{}
				return candidate, nil
			}
			if !errors.Is(err, os.ErrExist) {
				return "", fmt.Errorf("claim %s: %w", candidate, err)
			}
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

// Release frees a reservation whose file was never written. A claimed
// placeholder is removed.
func (n *Namer) Release(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reserved, path)
	if _, ok := n.claimed[path]; ok {
		delete(n.claimed, path)
		if info, err := os.Stat(path); err == nil && info.Size() == 0 {
			os.Remove(path)
		}
	}
}

func (n *Namer) taken(path string) bool {
	if _, ok := n.reserved[path]; ok {
		return true
	}
	return n.exists != nil && n.exists(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
