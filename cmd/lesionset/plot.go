package main

import (
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Noofbiz/lesionset/config"
	"github.com/Noofbiz/lesionset/loader"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var plotOut string

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw the class distribution of every split as a bar chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return plotDistribution(cfg, plotOut)
	},
}

func init() {
	plotCmd.Flags().StringVarP(&plotOut, "out", "o", "plots/class_distribution.png", "output PNG path")
}

var splitColors = map[loader.Split]color.Color{
	loader.Train: color.RGBA{R: 20, G: 80, B: 200, A: 220},
	loader.Val:   color.RGBA{R: 40, G: 160, B: 40, A: 220},
	loader.Test:  color.RGBA{R: 200, G: 30, B: 30, A: 220},
}

func plotDistribution(cfg *config.Config, outPath string) error {
	sets, err := cfg.IsicDatasets(fsys)
	if err != nil {
		return err
	}
	dists := make(map[loader.Split]map[int]int, len(sets))
	for split, ds := range sets {
		dists[split] = ds.ClassDistribution()
	}
	p, err := distributionPlot(dists)
	if err != nil {
		return err
	}

	w, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
		return err
	}
	f, err := fsys.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("path", outPath).Msg("class distribution written")
	return nil
}

// distributionPlot draws one group of bars per class, one bar per split.
func distributionPlot(dists map[loader.Split]map[int]int) (*plot.Plot, error) {
	classSet := map[int]bool{}
	for _, d := range dists {
		for c := range d {
			classSet[c] = true
		}
	}
	classes := make([]int, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = "class " + strconv.Itoa(c)
	}

	p := plot.New()
	p.Title.Text = "Samples per class"
	p.Y.Label.Text = "samples"
	p.Legend.Top = true

	width := vg.Points(18)
	for i, split := range loader.Splits {
		d, ok := dists[split]
		if !ok {
			continue
		}
		values := make(plotter.Values, len(classes))
		for j, c := range classes {
			values[j] = float64(d[c])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, err
		}
		bars.Color = splitColors[split]
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(i-1) * width
		p.Add(bars)
		p.Legend.Add(string(split), bars)
	}
	p.Add(plotter.NewGrid())
	p.NominalX(names...)
	return p, nil
}
