// BYZRA ⸻ internal/util/style.go
// defines CLI visual style, color roles, ornaments, and motion

package util

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// hex colors for each role, loaded from [colors]
type Palette struct {
	CHRM string `toml:"chrm"`
	HEAT string `toml:"heat"`
	HOTP string `toml:"hotp"`
	GUNM string `toml:"gunm"`
	VBLK string `toml:"vblk"`
	CSTL string `toml:"cstl"`
}

func DefaultPalette() Palette {
	return Palette{
		CHRM: "#C0C0C0",
		HEAT: "#FF5C00",
		HOTP: "#FF007F",
		GUNM: "#444444",
		VBLK: "#121212",
		CSTL: "#88AABB",
	}
}

// empty roles fall back to the default
func (p Palette) withDefaults() Palette {
	d := DefaultPalette()
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Palette{
		CHRM: pick(p.CHRM, d.CHRM),
		HEAT: pick(p.HEAT, d.HEAT),
		HOTP: pick(p.HOTP, d.HOTP),
		GUNM: pick(p.GUNM, d.GUNM),
		VBLK: pick(p.VBLK, d.VBLK),
		CSTL: pick(p.CSTL, d.CSTL),
	}
}

// ╭─ COLOR ROLES ───────────────────────────────╮
var (
	CHRM lipgloss.Color
	HEAT lipgloss.Color
	HOTP lipgloss.Color
	GUNM lipgloss.Color
	VBLK lipgloss.Color
	CSTL lipgloss.Color
)

// ╭─ STYLE DEFINITIONS ─────────────────────────╮
var (
	BRH lipgloss.Style
	BRU lipgloss.Style
	LBL lipgloss.Style
	SUB lipgloss.Style
	NSH lipgloss.Style
	SHE lipgloss.Style
	SEC lipgloss.Style
	NLL lipgloss.Style
	ORN lipgloss.Style
)

// ╭─ ORNAMENT ──────────────────────────────────╮
var (
	Ornament string // prefix UX lines
	Divider  string
)

func init() {
	ApplyPalette(DefaultPalette())
}

// rebuilds every style from p; call once config is loaded
func ApplyPalette(p Palette) {
	p = p.withDefaults()

	CHRM = lipgloss.Color(p.CHRM)
	HEAT = lipgloss.Color(p.HEAT)
	HOTP = lipgloss.Color(p.HOTP)
	GUNM = lipgloss.Color(p.GUNM)
	VBLK = lipgloss.Color(p.VBLK)
	CSTL = lipgloss.Color(p.CSTL)

	BRH = lipgloss.NewStyle().Foreground(HOTP).Bold(true)
	BRU = lipgloss.NewStyle().Foreground(HOTP).Bold(true).Underline(true)
	LBL = lipgloss.NewStyle().Foreground(HEAT).Bold(true)
	SUB = lipgloss.NewStyle().Foreground(GUNM)
	NSH = lipgloss.NewStyle().Foreground(CHRM).Bold(true)
	SHE = lipgloss.NewStyle().Foreground(CHRM).Bold(true).Underline(true)
	SEC = lipgloss.NewStyle().Foreground(CSTL).Bold(true)
	NLL = lipgloss.NewStyle().Foreground(VBLK).Faint(true)
	ORN = lipgloss.NewStyle().Foreground(GUNM).Bold(true)

	Ornament = ORN.Render("›")
	Divider = SUB.Render(strings.Repeat("─", 48))
}

// true when stdout is a terminal
func Interactive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ╭─ SPINNER ───────────────────────────────────╮

// runs fn behind a spinner; no animation when stdout is piped
func SpinWhile[T any](label string, fn func() (T, error)) (T, error) {
	if !Interactive() {
		return fn()
	}

	s := spinner.New(spinner.WithSpinner(spinner.Meter))
	ticker := time.NewTicker(s.Spinner.FPS)
	defer ticker.Stop()

	type outcome struct {
		out T
		err error
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	result := make(chan outcome, 1)

	go func() {
		defer close(stopped)
		frame := 0
		frames := s.Spinner.Frames
		for {
			select {
			case <-ticker.C:
				fmt.Printf("\r%s %s", ORN.Render(frames[frame]), LBL.Render(label))
				frame = (frame + 1) % len(frames)
			case <-done:
				return
			}
		}
	}()

	go func() {
		out, err := fn()
		result <- outcome{out, err}
	}()

	res := <-result
	close(done)
	<-stopped
	clearLine()
	return res.out, res.err
}

func clearLine() {
	fmt.Print("\r\033[K")
}

func SuccessSymbol() string {
	return LBL.Render("[✓]")
}

func WarningSymbol() string {
	return SEC.Render("[!]")
}

func InfoSymbol() string {
	return NSH.Render("[i]")
}

func ErrorSymbol() string {
	return BRH.Render("[X]")
}

// ╭─ CLEAR ─────────────────────────────────────╮
func Wiper() {
	if !Interactive() {
		return
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	cmd.Run()
}
