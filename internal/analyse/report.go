// BYZRA ⸻ internal/analyse/report.go
// format analysis reports

package analyse

import (
	"encoding/json"
	"fmt"
	"strings"

	"metaclean/internal/meta"
	"metaclean/internal/util"
)

// styled console report
func GenerateReport(report *AnalysisReport) string {
	var sb strings.Builder

	// info header
	sb.WriteString(util.NSH.Render(fmt.Sprintf("File: %s", report.Path)) + "\n")

	if report.Err != nil {
		sb.WriteString(fmt.Sprintf("%s %s\n", util.ErrorSymbol(), util.BRH.Render(report.Err.Error())))
		return sb.String()
	}

	sb.WriteString(util.NSH.Render(fmt.Sprintf("Type: %s (%s)", report.FileType.Format, report.FileType.MimeType)) + "\n")
	sb.WriteString(util.Divider + "\n")

	// scalar fields
	for _, f := range report.View.Fields {
		value := f.Value
		if value == meta.NotAvailable {
			value = util.SUB.Render(value)
		}
		sb.WriteString(fmt.Sprintf(" %s %s: %s\n", util.Ornament, util.LBL.Render(f.Label), value))
	}

	// tag groups
	for _, g := range report.View.Groups {
		sb.WriteString("\n")
		if g.Empty() {
			sb.WriteString(fmt.Sprintf("%s: %s\n", util.SEC.Render(g.Title), util.SUB.Render(meta.NotAvailable)))
			continue
		}
		sb.WriteString(util.SEC.Render(g.Label()) + "\n")
		for _, t := range g.Tags {
			if util.IsSensitiveField(t.Name) {
				sb.WriteString(fmt.Sprintf(" %s %s = %s\n",
					util.BRH.Render("!"),
					util.NSH.Render(t.Name),
					util.NSH.Render(t.Value)))
			} else {
				sb.WriteString(fmt.Sprintf(" %s %s = %s\n",
					util.ORN.Render("•"),
					util.NSH.Render(t.Name),
					t.Value))
			}
		}
	}

	// summary and recommendation
	sb.WriteString("\n")
	switch {
	case report.HasSensitive():
		sb.WriteString(util.BRH.Render(fmt.Sprintf(
			"[!] Found %d potentially sensitive metadata fields.", len(report.Sensitive))) + "\n")
		sb.WriteString(util.BRH.Render("[!] Consider using 'metaclean clear' to remove metadata.") + "\n")
	case report.TagCount() == 0:
		sb.WriteString(util.LBL.Render("✓ No metadata detected") + "\n")
	default:
		sb.WriteString(util.LBL.Render("✓ No sensitive metadata detected") + "\n")
	}

	return sb.String()
}

// unstyled report: the plain view plus a sensitivity summary
func GenerateSimplifiedReport(report *AnalysisReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("file: %s\n", report.Path))
	if report.Err != nil {
		sb.WriteString(fmt.Sprintf("error: %s\n", report.Err))
		return sb.String()
	}

	sb.WriteString(report.View.Text())

	for _, t := range report.Sensitive {
		sb.WriteString(fmt.Sprintf("sensitive:%s: %s\n", t.Name, t.Value))
	}
	sb.WriteString(fmt.Sprintf("sensitive_count: %d\n", len(report.Sensitive)))

	return sb.String()
}

type jsonReport struct {
	Path      string          `json:"path"`
	MediaType meta.MediaType  `json:"media_type,omitempty"`
	Fields    []meta.Field    `json:"fields,omitempty"`
	Groups    []meta.TagGroup `json:"groups,omitempty"`
	Sensitive []string        `json:"sensitive"`
	Error     string          `json:"error,omitempty"`
}

// machine-readable array, one object per report
func GenerateJSON(reports []*AnalysisReport) ([]byte, error) {
	out := make([]jsonReport, 0, len(reports))

	for _, r := range reports {
		jr := jsonReport{Path: r.Path, Sensitive: []string{}}
		if r.Err != nil {
			jr.Error = r.Err.Error()
			out = append(out, jr)
			continue
		}
		jr.MediaType = r.FileType.MimeType
		jr.Fields = r.View.Fields
		jr.Groups = r.View.Groups[:]
		for _, t := range r.Sensitive {
			jr.Sensitive = append(jr.Sensitive, t.Name)
		}
		out = append(out, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}
