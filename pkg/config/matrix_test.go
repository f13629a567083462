package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryID(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{Engine: "webkit", Device: "Pixel 5"}, "webkit-Pixel 5"},
		{Entry{Engine: "webkit", Resolution: "1920x1080"}, "webkit-1920x1080"},
		{Entry{Engine: "chromium"}, "chromium"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.ID())
		})
	}
}

func TestEntryViewport(t *testing.T) {
	w, h, ok, err := Entry{Resolution: "1280X720"}.Viewport()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	_, _, ok, err = Entry{}.Viewport()
	require.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []string{"1920", "ax1080", "1920x0", "-1x5"} {
		_, _, _, err := Entry{Resolution: bad}.Viewport()
		assert.Error(t, err, bad)
	}
}

func TestLoadMatrix(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "matrix.yaml")
		content := `sessions:
  - engine: chromium
    resolution: 1366x768
  - engine: webkit
    device: iPhone 12
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		m, err := LoadMatrix(path)
		require.NoError(t, err)
		require.Len(t, m.Sessions, 2)
		assert.Equal(t, "chromium-1366x768", m.Sessions[0].ID())
		assert.Equal(t, "webkit-iPhone 12", m.Sessions[1].ID())
	})

	t.Run("device and resolution together", func(t *testing.T) {
		path := filepath.Join(dir, "both.yaml")
		content := `sessions:
  - engine: webkit
    device: Pixel 5
    resolution: 1920x1080
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := LoadMatrix(path)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("empty matrix", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sessions: []\n"), 0o644))

		_, err := LoadMatrix(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMatrix(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestMatrixFilter(t *testing.T) {
	m := DefaultMatrix()
	require.NoError(t, m.Validate())

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"no patterns keeps all", nil, []string{"webkit-1920x1080", "webkit-Pixel 5", "webkit-iPhone 12"}},
		{"device glob", []string{"webkit-Pixel*"}, []string{"webkit-Pixel 5"}},
		{"several patterns", []string{"*1080", "*iPhone*"}, []string{"webkit-1920x1080", "webkit-iPhone 12"}},
		{"no match", []string{"firefox-*"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Filter(tt.patterns...)
			require.NoError(t, err)

			var ids []string
			for _, e := range got.Sessions {
				ids = append(ids, e.ID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := m.Filter("[")
	assert.Error(t, err)
}
