package exchange

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// SVG renders the tour as a static overlay: every path as a stroked
// polyline, every POI as a circle with its label above.
func SVG(t *tour.Tour, opts Options) string {
	w, h := num(t.BackgroundImage.Width), num(t.BackgroundImage.Height)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`, w, h, w, h)

	if opts.IncludeBackground && t.BackgroundImage.URL != "" {
		fmt.Fprintf(&b, `<image href="%s" width="%s" height="%s" />`, html.EscapeString(t.BackgroundImage.URL), w, h)
	}

	b.WriteString(`<g id="paths">`)
	for _, s := range t.Paths {
		b.WriteString(pathElement(s))
	}
	b.WriteString(`</g>`)

	b.WriteString(`<g id="pois">`)
	for _, p := range t.POIs {
		fmt.Fprintf(&b, `<g><circle cx="%s" cy="%s" r="8" fill="#ff6b6b" stroke="#fff" stroke-width="2" />`, num(p.Position.X), num(p.Position.Y))
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="12" fill="#333">%s</text></g>`,
			num(p.Position.X), num(p.Position.Y-15), html.EscapeString(p.Label))
	}
	b.WriteString(`</g>`)

	b.WriteString(`</svg>`)
	return b.String()
}

func pathElement(s tour.PathSegment) string {
	if !s.Traversable() {
		return ""
	}
	parts := make([]string, 0, len(s.Points))
	for i, p := range s.Points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		parts = append(parts, cmd+" "+num(p.X)+" "+num(p.Y))
	}

	color := s.Color
	if color == "" {
		color = "#000"
	}
	width := s.Width
	if width <= 0 {
		width = 2
	}
	return fmt.Sprintf(`<path d="%s" stroke="%s" stroke-width="%s" fill="none" stroke-dasharray="%s" />`,
		strings.Join(parts, " "), html.EscapeString(color), num(width), s.Style.DashArray())
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
