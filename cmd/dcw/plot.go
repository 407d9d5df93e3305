package main

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"polylog-dcw/dcw"
	"polylog-dcw/params"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the criterion valuations as an HTML bar chart",
	RunE:  runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&plotOut, "out", "criterion.html", "output HTML file")
	plotCmd.Flags().Int64Var(&lPrime, "l", params.DefaultL, "fixed prime l")
	plotCmd.Flags().BoolVar(&generic, "generic", false, "use the generic p-adic evaluator even for p=3")
}

func toBarItems(vals []int, prec int) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		// v(0) is drawn at the precision ceiling
		out[i] = opts.BarData{Value: min(v, prec)}
	}
	return out
}

func newCriterionChart(cr *dcw.CriterionResult) *charts.Bar {
	xLabels := make([]string, len(cr.Rows))
	va := make([]int, len(cr.Rows))
	vb := make([]int, len(cr.Rows))
	exp := make([]int, len(cr.Rows))
	for i, row := range cr.Rows {
		xLabels[i] = fmt.Sprintf("%d (%s)", row.Q, row.Verdict)
		va[i], vb[i], exp[i] = row.VA, row.VB, row.Expected
	}
	title := fmt.Sprintf("DCW valuations, l=%d p=%d", cr.L, cr.P)
	subtitle := fmt.Sprintf("prec=%d, extrapoint=%v, noextrapoint=%v, undecided=%v",
		cr.Prec, cr.Extrapoint, cr.NoExtrapoint, cr.Undecided)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("v(a)", toBarItems(va, cr.Prec)).
		AddSeries("v(b)", toBarItems(vb, cr.Prec)).
		AddSeries("expected", toBarItems(exp, cr.Prec)).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return bar
}

func runPlot(cmd *cobra.Command, args []string) error {
	cr, err := criterion(cmd)
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.AddCharts(newCriterionChart(cr))
	f, err := os.Create(plotOut)
	if err != nil {
		return fmt.Errorf("create html: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	logger.Info("criterion chart written", zap.String("path", plotOut))
	fmt.Fprintln(cmd.OutOrStdout(), "Criterion chart:", plotOut)
	return nil
}
