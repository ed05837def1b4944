package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/causalest/causalest/core/bootstrap"
	"github.com/causalest/causalest/core/ranker"
)

const notAvailable = "N/A"

// writeReport prints the point estimates of one report and, when present,
// their bootstrap intervals and standard errors.
func writeReport(out io.Writer, rep ranker.Report) error {
	fmt.Fprintf(out, "Estimator: %s (%s)\n\n", rep.Estimator, rep.Elapsed.Round(time.Millisecond))

	ciHeader := "CI"
	if rep.Bootstrap != nil {
		ciHeader = fmt.Sprintf("%g%% CI", rep.Bootstrap.Level)
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	fmt.Fprintf(w, "ESTIMAND\tESTIMATE\t%s\tSTD. ERR\n", ciHeader)
	fmt.Fprintln(w, "--------\t--------\t--\t--------")

	rows := []struct {
		name   string
		value  float64
		ci     func(*bootstrap.Result) bootstrap.Interval
		stdErr func(*bootstrap.Result) float64
	}{
		{"ATE", rep.Effect.ATE, func(r *bootstrap.Result) bootstrap.Interval { return r.ATE }, func(r *bootstrap.Result) float64 { return r.StdErr.ATE }},
		{"ATT", rep.Effect.ATT, func(r *bootstrap.Result) bootstrap.Interval { return r.ATT }, func(r *bootstrap.Result) float64 { return r.StdErr.ATT }},
		{"ATC", rep.Effect.ATC, func(r *bootstrap.Result) bootstrap.Interval { return r.ATC }, func(r *bootstrap.Result) float64 { return r.StdErr.ATC }},
	}
	for _, row := range rows {
		ci, se := notAvailable, notAvailable
		if rep.Bootstrap != nil {
			ci = row.ci(rep.Bootstrap).String()
			se = fmt.Sprintf("%.4f", row.stdErr(rep.Bootstrap))
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\t%s\n", row.name, row.value, ci, se)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if rep.Bootstrap != nil && rep.Bootstrap.Retries > 0 {
		fmt.Fprintf(out, "\n%d bootstrap iterations were redrawn after failed estimates.\n", rep.Bootstrap.Retries)
	}
	return nil
}

// writeRanking prints reports in the order the ranker returned them.
func writeRanking(out io.Writer, reports []ranker.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	fmt.Fprintln(w, "RANK\tESTIMATOR\tATE\tATE CI\tWIDTH\tATT\tATC\tSTATUS\tELAPSED")
	fmt.Fprintln(w, "----\t---------\t---\t------\t-----\t---\t---\t------\t-------")

	for i, rep := range reports {
		elapsed := rep.Elapsed.Round(time.Millisecond).String()
		if !rep.Success() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\tFAIL: %v\t%s\n", i+1, rep.Estimator,
				notAvailable, notAvailable, notAvailable, notAvailable, notAvailable, rep.Err, elapsed)
			continue
		}
		ci, width := notAvailable, notAvailable
		if rep.Bootstrap != nil {
			ci = rep.Bootstrap.ATE.String()
			width = fmt.Sprintf("%.4f", rep.Bootstrap.ATE.Width())
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\t%s\t%.4f\t%.4f\tSUCCESS\t%s\n", i+1, rep.Estimator,
			rep.Effect.ATE, ci, width, rep.Effect.ATT, rep.Effect.ATC, elapsed)
	}
	return w.Flush()
}
