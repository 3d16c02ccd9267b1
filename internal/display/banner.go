package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerArt string

const fallbackWidth = 80

// RenderBanner returns the startup banner centred for the current
// terminal. The art renders at its native size; on terminals narrower
// than the art it is left-aligned instead.
func RenderBanner() string {
	lines := strings.Split(strings.TrimRight(bannerArt, "\n"), "\n")

	artWidth := 0
	for _, l := range lines {
		if len(l) > artWidth {
			artWidth = len(l)
		}
	}

	indent := ""
	if cols := termWidth(); cols > artWidth {
		indent = strings.Repeat(" ", (cols-artWidth)/2)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(indent)
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	return b.String()
}

func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return fallbackWidth
}
