package writer

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/gobacktest/core/internal/order"
	"github.com/gobacktest/core/internal/store"
)

// PrintRunSummary renders one completed run's parameter/summary
// snapshot as a table.
func PrintRunSummary(out io.Writer, run store.Run) {
	fmt.Fprintf(out, "\nrun %s (%s) — %s, %d ticks\n", run.ID, run.StrategyID, run.StopReason, run.Ticks)

	table := tablewriter.NewWriter(out)
	table.Header("Parameter", "Value")
	for _, name := range sortedKeys(run.Params) {
		table.Append(name, fmt.Sprintf("%.6g", run.Params[name]))
	}
	table.Render()

	table = tablewriter.NewWriter(out)
	table.Header("Metric", "Value")
	for _, name := range sortedKeys(run.Summary) {
		table.Append(name, fmt.Sprintf("%.6g", run.Summary[name]))
	}
	table.Render()
}

// PrintOrderBlotter renders a list of orders (filled or otherwise) as a
// table, the order-level detail behind a run's summary.
func PrintOrderBlotter(out io.Writer, orders []*order.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "\nno orders")
		return
	}

	table := tablewriter.NewWriter(out)
	table.Header("#", "Data", "Side", "Size", "Price", "Status", "Exec Size", "Exec Price")
	for i, o := range orders {
		table.Append(
			fmt.Sprintf("%d", i+1),
			o.Data,
			o.Side.String(),
			fmt.Sprintf("%.4f", o.Size),
			fmt.Sprintf("%.4f", o.Price),
			o.Status.String(),
			fmt.Sprintf("%.4f", o.ExecutedSize),
			fmt.Sprintf("%.4f", o.ExecutedPrice),
		)
	}
	table.Render()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
