// BYZRA ⸻ cmd/metaclean/session.go
// interactive read -> display -> erase loop

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"metaclean/internal/meta"
	"metaclean/internal/util"
)

// asks for a file until one can be read, shows its metadata and erases it
// on confirmation. End of input before a file was chosen is not an error.
func runInteractive(src meta.Source, in io.Reader, out io.Writer) error {
	p := util.NewPrompter(in, out)

	for {
		path, err := p.Input("Targetted file path: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		session := meta.NewSession(src, path)
		if _, err := session.Read(); err != nil {
			var readErr *meta.ReadError
			if errors.As(err, &readErr) {
				fmt.Fprintln(out, util.BRH.Render(err.Error()))
				continue
			}
			return err
		}

		view, err := session.Render()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, view.Text())

		erase, err := p.Confirm("Do you want to erase all metadata above? (y/n) ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !erase {
			return nil
		}

		if err := session.Clear(); err != nil {
			return err
		}
		log.Debug().Str("path", path).Str("state", session.State().String()).Msg("session done")
		fmt.Fprintln(out, util.SEC.Render(util.SuccessSymbol()+" Metadata erased"))
		return nil
	}
}
