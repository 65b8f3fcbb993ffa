package takens

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-takens/embed"
	"github.com/aouyang1/go-takens/timeseries"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var (
	ErrEmptyPointCloud = errors.New("point cloud has no points")
	ErrCoordOutOfRange = errors.New("coordinate index is out of range for the point cloud")
)

// LineSeries generates an echart line chart of every feature of a series
// against its observation index.
func LineSeries(title string, s *timeseries.Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	line = line.SetXAxis(idx)

	for j := 0; j < s.Dims(); j++ {
		col, err := s.Column(j)
		if err != nil {
			continue
		}
		lineData := make([]opts.LineData, 0, len(col))
		for _, v := range col {
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(fmt.Sprintf("feature_%d", j), lineData)
	}
	return line
}

// ScatterPointCloud generates an echart scatter chart of two coordinates of
// an embedded point cloud.
func ScatterPointCloud(title string, pc embed.PointCloud, i, j int) (*charts.Scatter, error) {
	if pc.Len() == 0 {
		return nil, ErrEmptyPointCloud
	}
	if i < 0 || i >= pc.Dim() || j < 0 || j >= pc.Dim() {
		return nil, fmt.Errorf("coordinates (%d, %d) with %d available, %w", i, j, pc.Dim(), ErrCoordOutOfRange)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	xs := make([]float64, 0, pc.Len())
	scatterData := make([]opts.ScatterData, 0, pc.Len())
	for _, p := range pc {
		xs = append(xs, p[i])
		scatterData = append(scatterData, opts.ScatterData{Value: p[j]})
	}
	scatter = scatter.SetXAxis(xs)
	scatter.AddSeries("embedding", scatterData)
	return scatter, nil
}

// PlotEmbedding renders an html page with the input series and the first two
// coordinates of its embedded point cloud.
func PlotEmbedding(w io.Writer, s *timeseries.Series, pc embed.PointCloud) error {
	scatter, err := ScatterPointCloud("Delay Embedding", pc, 0, 1)
	if err != nil {
		return fmt.Errorf("unable to chart point cloud, %w", err)
	}

	page := components.NewPage()
	page.AddCharts(
		LineSeries("Input Series", s),
		scatter,
	)
	return page.Render(w)
}
