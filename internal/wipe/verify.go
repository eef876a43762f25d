// BYZRA ⸻ internal/wipe/verify.go
// integrity verification for processed files

package wipe

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	evimagemeta "github.com/evanoberholster/imagemeta"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"metaclean/internal/formats"
	"metaclean/internal/meta"
	"metaclean/internal/util"
)

// results of a file verification
type VerificationResult struct {
	Success         bool
	FileIntact      bool
	MetadataRemoved bool
	// tags the configured source still reports
	RemainingFields []string
	// fields found by the independent EXIF decoders
	DecoderFindings  []string
	ValidationErrors []string
}

// checks if a file is intact and properly sanitized
func VerifyFile(src meta.Source, path string) (*VerificationResult, error) {
	result := &VerificationResult{
		ValidationErrors: []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("file not found: %w", err)
	}

	result.FileIntact = checkIntegrity(data)
	if !result.FileIntact {
		result.ValidationErrors = append(result.ValidationErrors, "File integrity check failed")
		return result, nil
	}

	snapshot, err := meta.Read(src, path)
	if err != nil {
		return result, fmt.Errorf("failed to verify metadata: %w", err)
	}

	view := meta.Render(snapshot)
	for _, g := range view.Groups {
		for _, t := range g.Tags {
			result.RemainingFields = append(result.RemainingFields, t.Name)
		}
	}
	_, hasGPS := snapshot.GPSInfo()
	result.MetadataRemoved = len(result.RemainingFields) == 0 && !hasGPS

	if !result.MetadataRemoved {
		result.ValidationErrors = append(result.ValidationErrors,
			fmt.Sprintf("Found %d fields that should have been removed",
				len(result.RemainingFields)))
	}

	result.DecoderFindings = append(scanGoexif(data), scanCamera(data)...)
	if len(result.DecoderFindings) > 0 {
		result.ValidationErrors = append(result.ValidationErrors,
			fmt.Sprintf("Independent decoders still see %d EXIF fields",
				len(result.DecoderFindings)))
	}

	// overall success
	result.Success = result.FileIntact && result.MetadataRemoved && len(result.DecoderFindings) == 0

	return result, nil
}

// the pixel header still decodes; formats without a Go decoder pass on signature alone
func checkIntegrity(data []byte) bool {
	ft := formats.DetectBytes(data[:min(len(data), 12)])
	if ft.IsZero() {
		return false
	}

	switch ft.MimeType {
	case meta.MediaHEIF, meta.MediaAVIF:
		return true
	}

	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

type fieldWalker struct {
	found []string
}

func (w *fieldWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w.found = append(w.found, "goexif:"+string(name))
	return nil
}

// rwcarlsen/goexif: any decodable EXIF field counts
func scanGoexif(data []byte) []string {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// no EXIF block to find
		return nil
	}

	w := &fieldWalker{}
	if err := x.Walk(w); err != nil {
		return []string{"goexif:unreadable"}
	}
	return w.found
}

// evanoberholster/imagemeta: camera identity and position
func scanCamera(data []byte) (found []string) {
	defer func() {
		// malformed leftovers must not take the wipe down
		if rec := recover(); rec != nil {
			found = nil
		}
	}()

	ex, err := evimagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	if strings.TrimSpace(ex.Make) != "" {
		found = append(found, "imagemeta:Make")
	}
	if strings.TrimSpace(ex.Model) != "" {
		found = append(found, "imagemeta:Model")
	}
	if ex.GPS.Latitude() != 0 || ex.GPS.Longitude() != 0 {
		found = append(found, "imagemeta:GPS")
	}
	return found
}

// user-friendly report of the verification
func FormatVerificationResult(result *VerificationResult) string {
	var sb strings.Builder

	if result.Success {
		sb.WriteString(util.NSH.Render("✓ File successfully processed and verified"))
		sb.WriteString("\n")
		return sb.String()
	}

	if !result.FileIntact {
		sb.WriteString(util.LBL.Render("[!] File integrity check failed. File may be corrupted."))
		sb.WriteString("\n")
	}

	if !result.MetadataRemoved {
		message := fmt.Sprintf("[!] Found %d remaining fields that were not removed.",
			len(result.RemainingFields))
		sb.WriteString(util.LBL.Render(message))
		sb.WriteString("\n")

		for _, field := range result.RemainingFields {
			sb.WriteString("  ")
			sb.WriteString(util.NSH.Render("• " + field))
			sb.WriteString("\n")
		}
	}

	if len(result.DecoderFindings) > 0 {
		message := fmt.Sprintf("[!] Independent decoders still report %d fields.",
			len(result.DecoderFindings))
		sb.WriteString(util.LBL.Render(message))
		sb.WriteString("\n")

		for _, field := range result.DecoderFindings {
			sb.WriteString("  ")
			sb.WriteString(util.NSH.Render("• " + field))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
