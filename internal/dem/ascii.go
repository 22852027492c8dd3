package dem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoadFile reads an ESRI ASCII grid (.asc) from disk.
func LoadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dem %s: %w", path, err)
	}
	defer f.Close()

	g, err := ReadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("read dem %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"file":      path,
		"cols":      g.Cols,
		"rows":      g.Rows,
		"cell_size": g.CellSize,
	}).Info("DEM loaded")
	return g, nil
}

// ReadASCIIGrid parses the ESRI ASCII grid format: a header of ncols, nrows,
// xllcorner|xllcenter, yllcorner|yllcenter, cellsize and an optional
// nodata_value, followed by nrows lines of values from north to south.
func ReadASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	sc.Split(bufio.ScanWords)

	g := &Grid{NoData: -9999}
	var centerX, centerY bool
	header := map[string]bool{}
	var pending string

	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			pending = key
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("header %q has no value", key)
		}
		val, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", key, err)
		}
		header[key] = true
		switch key {
		case "ncols":
			g.Cols = int(val)
		case "nrows":
			g.Rows = int(val)
		case "xllcorner":
			g.XLL = val
		case "xllcenter":
			g.XLL, centerX = val, true
		case "yllcorner":
			g.YLL = val
		case "yllcenter":
			g.YLL, centerY = val, true
		case "cellsize":
			g.CellSize = val
		case "nodata_value":
			g.NoData = val
		default:
			return nil, fmt.Errorf("unknown header %q", key)
		}
	}
	for _, k := range []string{"ncols", "nrows", "cellsize"} {
		if !header[k] {
			return nil, fmt.Errorf("missing header %q", k)
		}
	}
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d cell %v", g.Cols, g.Rows, g.CellSize)
	}
	if centerX {
		g.XLL -= g.CellSize / 2
	}
	if centerY {
		g.YLL -= g.CellSize / 2
	}

	g.Values = make([]float64, 0, g.Cols*g.Rows)
	if pending != "" {
		v, _ := strconv.ParseFloat(pending, 64)
		g.Values = append(g.Values, v)
	}
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(g.Values), err)
		}
		g.Values = append(g.Values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(g.Values) != g.Cols*g.Rows {
		return nil, fmt.Errorf("expected %d values, got %d", g.Cols*g.Rows, len(g.Values))
	}
	return g, nil
}
