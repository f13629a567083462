package config

import "path/filepath"

// Paths is the on-disk evidence and test-data layout under a project root.
type Paths struct {
	Root string

	Reports    string
	Video      string
	Trace      string
	Screenshot string
	Log        string

	TestFiles  string
	DataWrite  string
	DataSource string
	Upload     string
	Download   string
}

// NewPaths returns the canonical layout:
//
//	reports/{video,traceview,imagen,log}
//	tests/files/{files_data_write,files_data_source,files_upload,files_download}
func NewPaths(root string) Paths {
	reports := filepath.Join(root, "reports")
	files := filepath.Join(root, "tests", "files")

	return Paths{
		Root:       root,
		Reports:    reports,
		Video:      filepath.Join(reports, "video"),
		Trace:      filepath.Join(reports, "traceview"),
		Screenshot: filepath.Join(reports, "imagen"),
		Log:        filepath.Join(reports, "log"),
		TestFiles:  files,
		DataWrite:  filepath.Join(files, "files_data_write"),
		DataSource: filepath.Join(files, "files_data_source"),
		Upload:     filepath.Join(files, "files_upload"),
		Download:   filepath.Join(files, "files_download"),
	}
}

// Evidence lists the directories that must exist before a session starts.
func (p Paths) Evidence() []string {
	return []string{
		p.Video,
		p.Trace,
		p.Screenshot,
		p.Log,
		p.DataWrite,
		p.DataSource,
		p.Upload,
		p.Download,
	}
}
