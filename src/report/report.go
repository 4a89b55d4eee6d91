package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mkmccarty/IdleResearchPlanner/src/ranking"
	"github.com/mkmccarty/IdleResearchPlanner/src/research"
	"github.com/mkmccarty/IdleResearchPlanner/src/units"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const unknownValue = "???"

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}

// FormatCost renders a cost in display units, marking estimates with "* ".
func FormatCost(cost decimal.Decimal, isEstimate bool) string {
	s := units.Format(cost)
	if isEstimate {
		return "* " + s
	}
	return s
}

// FormatPrice renders an optional price, "???" when unknown.
func FormatPrice(price decimal.NullDecimal) string {
	if !price.Valid {
		return unknownValue
	}
	return units.Format(price.Decimal)
}

// RenderRanking writes the ranked entries as a table.
func RenderRanking(w io.Writer, entries []research.PaybackEntry) {
	table := newTable(w, []string{"#", "Research", "Level", "Cost", "Payback"})
	for i, e := range entries {
		table.Append([]string{
			strconv.Itoa(i + 1),
			e.Research.Name,
			strconv.Itoa(e.Level),
			FormatCost(e.Cost, e.IsEstimate),
			FormatPrice(e.Payback),
		})
	}
	table.Render()
}

// RenderRequests writes the researches waiting for a price observation.
func RenderRequests(w io.Writer, discount int, requests []ranking.DataRequest) {
	if len(requests) == 0 {
		fmt.Fprintln(w, "All current levels are priced.")
		return
	}
	fmt.Fprintf(w, "Prices needed at discount level %d:\n", discount)
	table := newTable(w, []string{"Research", "Level", "Gap", "Estimate", "Last level"})
	for _, req := range requests {
		last := "unknown"
		if req.LastLevelKnown {
			last = strconv.Itoa(*req.Research.Elem.LastLevel)
		}
		table.Append([]string{
			req.Research.Name,
			strconv.Itoa(req.Research.Level),
			string(req.Kind),
			FormatPrice(req.EstimatedPrice),
			last,
		})
	}
	table.Render()
}

// RenderQuote writes a single research level quote.
func RenderQuote(w io.Writer, entry research.PaybackEntry) {
	fmt.Fprintf(w, "%s level %d: cost %s, payback %s\n",
		entry.Research.Name, entry.Level, FormatCost(entry.Cost, entry.IsEstimate), FormatPrice(entry.Payback))
}
