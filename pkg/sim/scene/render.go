package scene

import (
	"math"
	"sync"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"
)

// LinkPoint is the world position of a link origin.
type LinkPoint struct {
	Name string
	Pos  r3.Vec
}

// Bone connects a parent link origin to a child link origin.
type Bone struct {
	From r3.Vec
	To   r3.Vec
}

// Frame is a snapshot of a scene published by UpdateRender.
type Frame struct {
	Time     float64
	Links    []LinkPoint
	Bones    []Bone
	Lights   []Light
	Ground   bool
	Altitude float64
}

// Glyph kinds in increasing drawing priority.
const (
	glyphGround = iota
	glyphLight
	glyphBone
	glyphLink
)

var glyphRunes = [...]rune{
	glyphGround: '·',
	glyphLight:  '✦',
	glyphBone:   '•',
	glyphLink:   '●',
}

type glyph struct {
	kind  int
	depth float64
	shade float64 // 0..1
}

// raster is a depth-tested cell buffer.
type raster struct {
	w, h  int
	cells []glyph
	set   []bool
}

func newRaster(w, h int) *raster {
	return &raster{w: w, h: h, cells: make([]glyph, w*h), set: make([]bool, w*h)}
}

func (r *raster) plot(x, y int, g glyph) {
	if x < 0 || x >= r.w || y < 0 || y >= r.h {
		return
	}
	i := y*r.w + x
	if r.set[i] {
		cur := r.cells[i]
		if cur.kind > g.kind || (cur.kind == g.kind && cur.depth <= g.depth) {
			return
		}
	}
	r.cells[i] = g
	r.set[i] = true
}

func (r *raster) at(x, y int) (glyph, bool) {
	i := y*r.w + x
	return r.cells[i], r.set[i]
}

// line plots a segment between two projected points, interpolating depth.
func (r *raster) line(x0, y0, x1, y1 int, d0, d1 float64, g glyph) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := max(dx, -dy)
	e := dx + dy
	for i := 0; ; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		g.depth = d0 + (d1-d0)*t
		r.plot(x0, y0, g)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// shade estimates how brightly lit p is.
func shade(p r3.Vec, lights []Light) float64 {
	const ambient = 0.2
	v := ambient
	for _, l := range lights {
		intensity := (l.Color[0] + l.Color[1] + l.Color[2]) / 3
		switch l.Kind {
		case DirectionalLight:
			v += 0.5 * intensity
		case PointLight:
			d := r3.Norm(r3.Sub(l.Vec, p))
			v += intensity / (1 + d*d) / 2
		}
	}
	return math.Min(v, 1)
}

// groundExtent is the half size, in meters, of the drawn ground grid.
const (
	groundExtent  = 1.0
	groundSpacing = 0.1
)

func rasterize(f Frame, cam Camera, w, h int) *raster {
	r := newRaster(w, h)

	if f.Ground {
		n := int(math.Round(groundExtent / groundSpacing))
		for i := -n; i <= n; i++ {
			for j := -n; j <= n; j++ {
				p := r3.Vec{X: float64(i) * groundSpacing, Y: float64(j) * groundSpacing, Z: f.Altitude}
				if x, y, d, ok := cam.Project(p, w, h); ok {
					r.plot(x, y, glyph{kind: glyphGround, depth: d, shade: ambientShade})
				}
			}
		}
	}

	for _, l := range f.Lights {
		if l.Kind != PointLight {
			continue
		}
		if x, y, d, ok := cam.Project(l.Vec, w, h); ok {
			r.plot(x, y, glyph{kind: glyphLight, depth: d, shade: 1})
		}
	}

	for _, b := range f.Bones {
		x0, y0, d0, ok0 := cam.Project(b.From, w, h)
		x1, y1, d1, ok1 := cam.Project(b.To, w, h)
		if !ok0 || !ok1 {
			continue
		}
		mid := r3.Scale(0.5, r3.Add(b.From, b.To))
		r.line(x0, y0, x1, y1, d0, d1, glyph{kind: glyphBone, shade: shade(mid, f.Lights)})
	}

	for _, l := range f.Links {
		if x, y, d, ok := cam.Project(l.Pos, w, h); ok {
			r.plot(x, y, glyph{kind: glyphLink, depth: d, shade: shade(l.Pos, f.Lights)})
		}
	}
	return r
}

const ambientShade = 0.2

var (
	groundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	lightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	shadeStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
	}
)

func (g glyph) style() lipgloss.Style {
	switch g.kind {
	case glyphGround:
		return groundStyle
	case glyphLight:
		return lightStyle
	}
	i := int(g.shade * float64(len(shadeStyles)))
	return shadeStyles[min(max(i, 0), len(shadeStyles)-1)]
}

// Renderer draws the latest published frame.
type Renderer struct {
	mu     sync.Mutex
	frame  Frame
	ready  bool
	frames uint64
}

// NewRenderer creates a renderer with no frame.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) submit(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = f
	r.ready = true
	r.frames++
}

// Frame returns the latest published frame.
func (r *Renderer) Frame() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame, r.ready
}

// Frames returns how many frames have been published.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Render draws the latest frame seen from cam into a w×h block of text.
func (r *Renderer) Render(cam Camera, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	f, _ := r.Frame()
	ras := rasterize(f, cam, w, h)

	c := canvas.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g, ok := ras.at(x, y)
			if !ok {
				continue
			}
			c.SetCell(canvas.Point{X: x, Y: y}, canvas.NewCellWithStyle(glyphRunes[g.kind], g.style()))
		}
	}
	return c.View()
}
