package topology

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"geotrek_core/internal/geometry"
)

// SnapEndpoints returns ls with each endpoint moved exactly onto the nearest
// endpoint of another live path when it lies within SnapDistance. exclude is
// the path being edited, if any.
func (n *Network) SnapEndpoints(ls *geom.LineString, exclude PathRef) *geom.LineString {
	if n.opts.SnapDistance <= 0 || ls == nil || ls.NumCoords() < 2 {
		return ls
	}
	start, startOK := n.nearestEndpoint(geometry.Start(ls), exclude)
	end, endOK := n.nearestEndpoint(geometry.End(ls), exclude)
	if !startOK && !endOK {
		return ls
	}
	if !startOK {
		start = geometry.Start(ls)
	}
	if !endOK {
		end = geometry.End(ls)
	}
	return geometry.WithEndpoints(ls, start, end)
}

func (n *Network) nearestEndpoint(c geom.Coord, exclude PathRef) (geom.Coord, bool) {
	best := math.Inf(1)
	var found geom.Coord
	for _, ref := range n.PathRefs() {
		if ref == exclude {
			continue
		}
		p := n.Path(ref)
		for _, e := range []geom.Coord{geometry.Start(p.Geom), geometry.End(p.Geom)} {
			if d := xy.Distance(c, e); d <= n.opts.SnapDistance && d < best {
				best, found = d, e
			}
		}
	}
	return found, found != nil
}

// Location is a position on the path network.
type Location struct {
	Path     PathRef
	Fraction float64
	Distance float64
}

// Locate finds the live path nearest to (x, y) and the fraction of the
// projected position along it.
func (n *Network) Locate(x, y float64) (Location, error) {
	best := Location{Distance: math.Inf(1)}
	for _, ref := range n.PathRefs() {
		f, d := geometry.Locate(n.Path(ref).Geom, x, y)
		if d < best.Distance {
			best = Location{Path: ref, Fraction: f, Distance: d}
		}
	}
	if best.Path == 0 {
		return Location{}, ErrPathNotFound
	}
	return best, nil
}
