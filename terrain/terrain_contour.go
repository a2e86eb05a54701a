package terrain

import (
	"image"

	"github.com/noorus/hivemind-sub000/common"
)

// Component label values. Positive labels are component ids.
const (
	LabelBackground int32 = 0
	LabelMarked     int32 = -1
)

// Contour is a closed boundary of one component, in tile coordinates.
type Contour struct {
	Label    int32
	Internal bool
	Points   []image.Point
}

// ContourSet is the result of a labeling pass.
type ContourSet struct {
	Width, Height int
	// Labels holds one label per tile: 0 background, -1 background next to a
	// traced boundary, >0 component id in raster order.
	Labels     []int32
	Contours   []Contour
	Components int
	Holes      int
}

func (s *ContourSet) Label(x, y int) int32 {
	if !common.InGrid(x, y, s.Width, s.Height) {
		return LabelBackground
	}
	return s.Labels[common.GridIndex(x, y, s.Width)]
}

// Euler returns the Euler number of the foreground: components minus holes.
func (s *ContourSet) Euler() int {
	return s.Components - s.Holes
}

// Clockwise search directions, y pointing down: E, SE, S, SW, W, NW, N, NE.
var traceDirs = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

type contourTracer struct {
	w, h      int // padded size
	img       []uint8
	labels    []int32
	offsets   [8]int
	maxPoints int
}

// TraceContours labels the 8-connected components of mask (non-zero is
// foreground) and traces their external and hole boundaries in one raster
// pass. Hole points are only kept when cfg.ExtractInternal is set; holes are
// counted either way.
func TraceContours(mask []uint8, width, height int, cfg *Config) (*ContourSet, error) {
	if width <= 0 || height <= 0 || len(mask) != width*height {
		return nil, analysisError("contour", ErrInvalidInput, "mask %d for %dx%d", len(mask), width, height)
	}
	t := &contourTracer{
		w:         width + 2,
		h:         height + 2,
		maxPoints: cfg.MaxContourPoints,
	}
	t.img = make([]uint8, t.w*t.h)
	t.labels = make([]int32, t.w*t.h)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[common.GridIndex(x, y, width)] != 0 {
				t.img[common.GridIndex(x+1, y+1, t.w)] = 1
			}
		}
	}
	for i, d := range traceDirs {
		t.offsets[i] = d[1]*t.w + d[0]
	}

	set := &ContourSet{Width: width, Height: height}
	var next int32 = 1
	for y := 1; y < t.h-1; y++ {
		for x := 1; x < t.w-1; x++ {
			idx := y*t.w + x
			if t.img[idx] == 0 {
				continue
			}
			if t.labels[idx] == 0 && t.img[idx-t.w] == 0 {
				label := next
				next++
				t.labels[idx] = label
				pts, err := t.trace(idx, 7, label, true)
				if err != nil {
					return nil, err
				}
				set.Contours = append(set.Contours, Contour{Label: label, Points: pts})
				set.Components++
			}
			if below := idx + t.w; t.img[below] == 0 && t.labels[below] == LabelBackground {
				if t.labels[idx] == 0 {
					t.labels[idx] = t.labels[idx-1]
				}
				label := t.labels[idx]
				pts, err := t.trace(idx, 3, label, cfg.ExtractInternal)
				if err != nil {
					return nil, err
				}
				if cfg.ExtractInternal {
					set.Contours = append(set.Contours, Contour{Label: label, Internal: true, Points: pts})
				}
				set.Holes++
			}
			if t.labels[idx] == 0 {
				t.labels[idx] = t.labels[idx-1]
			}
		}
	}

	set.Labels = make([]int32, width*height)
	for y := 0; y < height; y++ {
		copy(set.Labels[y*width:(y+1)*width], t.labels[(y+1)*t.w+1:(y+1)*t.w+1+width])
	}
	return set, nil
}

// step searches clockwise from dir for the next foreground neighbour of idx,
// marking every background pixel it passes. ok is false for an isolated pixel.
func (t *contourTracer) step(idx, dir int) (next, ndir int, ok bool) {
	for i := 0; i < 8; i++ {
		d := (dir + i) % 8
		n := idx + t.offsets[d]
		if t.img[n] != 0 {
			return n, d, true
		}
		t.labels[n] = LabelMarked
	}
	return idx, dir, false
}

func (t *contourTracer) point(idx int) image.Point {
	return image.Point{X: idx%t.w - 1, Y: idx/t.w - 1}
}

// trace follows the contour through start until it comes back to start
// heading for the same second pixel.
func (t *contourTracer) trace(start, dir int, label int32, store bool) ([]image.Point, error) {
	var pts []image.Point
	add := func(idx int) error {
		t.labels[idx] = label
		if !store {
			return nil
		}
		if len(pts) >= t.maxPoints {
			p := t.point(start)
			return analysisError("contour", ErrContourOverflow, "component %d at (%d,%d) exceeds %d points", label, p.X, p.Y, t.maxPoints)
		}
		pts = append(pts, t.point(idx))
		return nil
	}

	if err := add(start); err != nil {
		return nil, err
	}
	second, d, ok := t.step(start, dir)
	if !ok {
		return pts, nil
	}
	cur := second
	for {
		nxt, nd, _ := t.step(cur, (d+6)%8)
		if cur == start && nxt == second {
			break
		}
		if err := add(cur); err != nil {
			return nil, err
		}
		cur, d = nxt, nd
	}
	return pts, nil
}
