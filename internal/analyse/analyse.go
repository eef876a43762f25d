// BYZRA ⸻ internal/analyse/analyse.go
// core analysis logic

package analyse

import (
	"fmt"
	"path/filepath"

	"metaclean/internal/formats"
	"metaclean/internal/meta"
	"metaclean/internal/util"
)

// result of file metadata analysis
type AnalysisReport struct {
	Path      string
	FileType  formats.FileType
	Snapshot  meta.Snapshot
	View      meta.View
	Sensitive []meta.Tag

	// set by AnalyzeFiles when the file could not be read
	Err error
}

// tags across all three namespaces
func (r *AnalysisReport) TagCount() int {
	n := 0
	for _, g := range r.View.Groups {
		n += len(g.Tags)
	}
	return n
}

func (r *AnalysisReport) Counts() (exif, iptc, xmp int) {
	return len(r.View.Groups[0].Tags), len(r.View.Groups[1].Tags), len(r.View.Groups[2].Tags)
}

// tag name -> interpreted value, all namespaces
func (r *AnalysisReport) TagMap() map[string]string {
	m := make(map[string]string, r.TagCount())
	for _, g := range r.View.Groups {
		for _, t := range g.Tags {
			m[t.Name] = t.Value
		}
	}
	return m
}

func (r *AnalysisReport) HasSensitive() bool {
	return len(r.Sensitive) > 0
}

// examines a file and returns metadata info; read failures are *meta.ReadError
func Analyze(src meta.Source, path string) (*AnalysisReport, error) {
	if err := util.ValidateReadable(path); err != nil {
		return nil, &meta.ReadError{Path: path, Err: err}
	}

	fileType, err := formats.DetectFile(path)
	if err != nil || !formats.IsSupported(fileType.Extension) {
		return nil, &meta.ReadError{Path: path, Err: fmt.Errorf("unsupported file type: %s", filepath.Base(path))}
	}

	snapshot, err := meta.Read(src, path)
	if err != nil {
		return nil, err
	}

	view := meta.Render(snapshot)

	report := &AnalysisReport{
		Path:      path,
		FileType:  fileType,
		Snapshot:  snapshot,
		View:      view,
		Sensitive: identifySensitiveFields(view),
	}

	return report, nil
}

// finds tags that may contain sensitive information
func identifySensitiveFields(view meta.View) []meta.Tag {
	var sensitive []meta.Tag

	for _, g := range view.Groups {
		for _, t := range g.Tags {
			if util.IsSensitiveField(t.Name) {
				sensitive = append(sensitive, t)
			}
		}
	}

	return sensitive
}

// analyzes multiple files; failures are kept as reports carrying Err
func AnalyzeFiles(src meta.Source, paths []string) []*AnalysisReport {
	results := make([]*AnalysisReport, 0, len(paths))

	for _, path := range paths {
		report, err := Analyze(src, path)
		if err != nil {
			results = append(results, &AnalysisReport{
				Path: path,
				FileType: formats.FileType{
					Format:    "error",
					Extension: formatsExt(path),
				},
				View: meta.Render(meta.Snapshot{}),
				Err:  err,
			})
			continue
		}
		results = append(results, report)
	}

	return results
}

func formatsExt(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return ext[1:]
}
