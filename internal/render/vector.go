package render

import (
	"sync"

	"SyncBoard/internal/state"
)

// Path is a run of contiguous segments of one stroke group.
type Path struct {
	GroupID  string
	OriginID string
	Color    string
	Width    float64
	Mode     state.Mode
	Points   []state.Point
}

// Dot reports whether the path is a single point.
func (p Path) Dot() bool { return len(p.Points) == 1 }

// VectorPath keeps the snapshot as polylines, for output that scales.
type VectorPath struct {
	mu    sync.RWMutex
	paths []Path
}

func NewVectorPath() *VectorPath { return &VectorPath{} }

func (v *VectorPath) Render(snapshot []state.StrokeEvent) {
	paths := BuildPaths(snapshot)
	v.mu.Lock()
	v.paths = paths
	v.mu.Unlock()
}

func (v *VectorPath) Paths() []Path {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Path(nil), v.paths...)
}

// BuildPaths joins consecutive visible events of a group into polylines.
// Events from different peers interleave in the log, so one group may yield
// several paths.
func BuildPaths(snapshot []state.StrokeEvent) []Path {
	var out []Path
	for _, ev := range snapshot {
		if !ev.Visible {
			continue
		}
		if n := len(out); n > 0 {
			cur := &out[n-1]
			if cur.GroupID == ev.GroupID && cur.Points[len(cur.Points)-1] == ev.From {
				if ev.From != ev.To {
					cur.Points = append(cur.Points, ev.To)
				}
				continue
			}
		}
		p := Path{
			GroupID:  ev.GroupID,
			OriginID: ev.OriginID,
			Color:    ev.Color,
			Width:    ev.Width,
			Mode:     ev.Mode,
			Points:   []state.Point{ev.From},
		}
		if ev.From != ev.To {
			p.Points = append(p.Points, ev.To)
		}
		out = append(out, p)
	}
	return out
}

// Bounds returns the largest coordinates reached by any path, including
// half its width.
func Bounds(paths []Path) (maxX, maxY float64) {
	for _, p := range paths {
		for _, pt := range p.Points {
			maxX = max(maxX, pt.X+p.Width/2)
			maxY = max(maxY, pt.Y+p.Width/2)
		}
	}
	return maxX, maxY
}
