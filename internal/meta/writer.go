// BYZRA ⸻ internal/meta/writer.go
// clear + persist

package meta

import (
	"github.com/rs/zerolog/log"
)

// ClearAndSave opens a fresh handle on path, erases every metadata field
// and writes the stripped file back over path. The handle is always closed.
func ClearAndSave(src Source, path string) error {
	h, err := src.Open(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer h.Close()

	h.Clear()

	if err := h.SaveToFile(path); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("save failed")
		return &WriteError{Path: path, Err: err}
	}

	log.Debug().Str("path", path).Str("source", src.Name()).Msg("metadata cleared")
	return nil
}
