// BYZRA ⸻ internal/wipe/wipe.go
// main wipe orchestration

package wipe

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"metaclean/internal/analyse"
	"metaclean/internal/formats"
	"metaclean/internal/meta"
	"metaclean/internal/util"
)

type WipeOptions struct {
	// create a clean copy instead of modifying the original?
	CreateCopy bool

	// keep the .bak taken before an in-place wipe?
	KeepBackup bool

	// securely overwrite the backup before deletion?
	SecureDelete bool

	// re-read the result and check it with independent decoders?
	Verify bool

	// no spinner; for callers that own the terminal, like watch mode
	Quiet bool
}

func DefaultWipeOptions() *WipeOptions {
	return &WipeOptions{
		CreateCopy:   false,
		KeepBackup:   false,
		SecureDelete: false,
		Verify:       true,
	}
}

type WipeResult struct {
	Success       bool
	OriginalPath  string
	OutputPath    string
	BackupPath    string
	// the cleared file failed the integrity check and was put back
	Restored      bool
	SensitiveData []string
	RemovedCount  int
	WipeErrors    []string
	Verification  *VerificationResult
}

// removes every metadata field from a file
//
// A failed clear returns the *meta.WriteError untouched; the target file
// is left as it was.
func WipeFile(src meta.Source, path string, options *WipeOptions) (*WipeResult, error) {
	if options == nil {
		options = DefaultWipeOptions()
	}

	result := &WipeResult{
		OriginalPath: path,
		OutputPath:   path,
		WipeErrors:   []string{},
	}

	validate := util.ValidatePath
	if options.CreateCopy {
		validate = util.ValidateReadable
	}
	if err := validate(path); err != nil {
		return result, fmt.Errorf("invalid input file: %w", err)
	}

	// get metadata before wiping
	report, err := analyse.Analyze(src, path)
	if err != nil {
		return result, err
	}
	for _, t := range report.Sensitive {
		result.SensitiveData = append(result.SensitiveData, t.Name)
	}
	result.RemovedCount = report.TagCount()

	// nothing to copy or back up for a format the native writer cannot handle
	if src.Name() == formats.BackendNative && !formats.IsWritable(report.FileType.Extension) {
		return result, &meta.WriteError{
			Path: path,
			Err:  fmt.Errorf("%w: %s", meta.ErrUnsupportedWrite, report.FileType.MimeType),
		}
	}

	workingPath := path
	if options.CreateCopy {
		workingPath = util.GenerateOutputPath(path)
		result.OutputPath = workingPath

		if err := util.SafeCopy(path, workingPath); err != nil {
			return result, fmt.Errorf("failed to create output file: %w", err)
		}
	} else {
		backupPath, err := util.CreateBackup(path)
		if err != nil {
			return result, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupPath = backupPath
	}

	// wipe metadata
	if options.Quiet {
		err = meta.ClearAndSave(src, workingPath)
	} else {
		_, err = util.SpinWhile(fmt.Sprintf("[~] Wiping metadata from %s", filepath.Base(workingPath)), func() (struct{}, error) {
			return struct{}{}, meta.ClearAndSave(src, workingPath)
		})
	}
	if err != nil {
		if options.CreateCopy {
			_ = util.RemoveFile(workingPath)
			result.OutputPath = ""
		}
		discardBackup(result, options)
		return result, err
	}

	log.Debug().
		Str("path", workingPath).
		Int("removed", result.RemovedCount).
		Int("sensitive", len(result.SensitiveData)).
		Msg("wiped")

	if options.Verify {
		verifyResult, err := VerifyFile(src, workingPath)
		if err != nil {
			result.WipeErrors = append(result.WipeErrors, fmt.Sprintf("[X] Verification failed: %s", err))
		}
		result.Verification = verifyResult

		// a damaged image is worse than one with metadata left in it
		if verifyResult != nil && !verifyResult.FileIntact && result.BackupPath != "" {
			if err := util.RestoreBackup(result.BackupPath, path); err != nil {
				result.WipeErrors = append(result.WipeErrors, fmt.Sprintf("[X] Restore failed: %s", err))
			} else {
				result.Restored = true
				log.Warn().Str("path", path).Msg("cleared file failed integrity check, original restored")
			}
		}
	}

	// a failed verification keeps the backup around, unless the original is back in place
	if result.Restored ||
		(len(result.WipeErrors) == 0 && (result.Verification == nil || result.Verification.Success)) {
		discardBackup(result, options)
	}

	// set success based on errors and verification
	result.Success = len(result.WipeErrors) == 0 &&
		(result.Verification == nil || result.Verification.Success)

	return result, nil
}

// option-based clean up
func discardBackup(result *WipeResult, options *WipeOptions) {
	if options.KeepBackup || result.BackupPath == "" {
		return
	}

	var err error
	if options.SecureDelete {
		err = util.SecureOverwriteFile(result.BackupPath)
	} else {
		err = util.RemoveFile(result.BackupPath)
	}
	if err != nil {
		log.Warn().Err(err).Str("backup", result.BackupPath).Msg("backup cleanup failed")
		return
	}
	result.BackupPath = ""
}

// report of the wipe operation
func FormatWipeResult(result *WipeResult) string {
	var sb strings.Builder

	if len(result.SensitiveData) > 0 {
		message := fmt.Sprintf("[!] Found %d sensitive metadata fields", len(result.SensitiveData))
		sb.WriteString(util.BRH.Render(message))
		sb.WriteString("\n")
	} else {
		message := "[i] No sensitive metadata detected"
		sb.WriteString(util.SEC.Render(message))
		sb.WriteString("\n")
	}

	if result.Success {
		message := fmt.Sprintf("✓ Metadata cleared (%d tags removed)", result.RemovedCount)
		sb.WriteString(util.SEC.Render(message))
		sb.WriteString("\n")

		if result.OutputPath != "" && result.OutputPath != result.OriginalPath {
			message := fmt.Sprintf("[i] Output saved to: %s", result.OutputPath)
			sb.WriteString(util.NSH.Render(message))
			sb.WriteString("\n")
		}

		if result.BackupPath != "" {
			message := fmt.Sprintf("[i] Backup created at: %s", result.BackupPath)
			sb.WriteString(util.NSH.Render(message))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(util.BRH.Render("[!] Processing completed with issues..."))
		sb.WriteString("\n")

		for _, err := range result.WipeErrors {
			message := fmt.Sprintf("  • %s", err)
			sb.WriteString(util.NSH.Render(message))
			sb.WriteString("\n")
		}

		if result.Restored {
			sb.WriteString(util.SEC.Render("[i] Original restored, the file was not changed"))
			sb.WriteString("\n")
		}

		if result.BackupPath != "" {
			message := fmt.Sprintf("[i] Original preserved at: %s", result.BackupPath)
			sb.WriteString(util.SEC.Render(message))
			sb.WriteString("\n")
		}
	}

	// verification details
	if result.Verification != nil && !result.Verification.Success {
		sb.WriteString("\n")
		sb.WriteString(FormatVerificationResult(result.Verification))
	}

	return sb.String()
}
