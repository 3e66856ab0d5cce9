package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"

	"supplykpi/internal/dashboard"
	"supplykpi/internal/kpi"
	"supplykpi/internal/metrics"
)

func newTableWriter(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(false)
	table.SetHeader(header)
	return table
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float32, float64:
		return metrics.FormatNumber(cast.ToFloat64(x), 2)
	default:
		return cast.ToString(x)
	}
}

func printTable(w io.Writer, t *kpi.Table) {
	if t.IsEmpty() {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	table := newTableWriter(w, t.Columns())
	for _, row := range t.Rows() {
		cells := make([]string, 0, len(t.Columns()))
		for _, col := range t.Columns() {
			cells = append(cells, cell(row[col]))
		}
		table.Append(cells)
	}
	table.Render()
}

func printReport(w io.Writer, d *dashboard.Dashboard) {
	fmt.Fprintf(w, "Dashboard %s to %s (limit %d): %s\n", d.From, d.To, d.Limit, d.Status)
	if d.Message != "" {
		fmt.Fprintln(w, d.Message)
	}

	headlines := newTableWriter(w, []string{"Metric", "Value"})
	for _, item := range d.Display {
		headlines.Append([]string{item.Label, item.Value})
	}
	headlines.Render()

	fmt.Fprintf(w, "\n%s\n", d.TopClient.Title)
	printTable(w, d.TopClient.Table)

	fmt.Fprintln(w)
	widgets := newTableWriter(w, []string{"Tab", "KPI", "Status", "Rows", "Message"})
	for _, tab := range d.Tabs {
		widgets.Append([]string{tab.Title, tab.KPI, string(tab.Status), cast.ToString(tab.Table.Len()), tab.Message})
	}
	widgets.Render()

	for _, e := range d.Errors {
		fmt.Fprintf(w, "error: %s: %s\n", e.KPI, e.Error)
	}
	if d.Debug != nil {
		fmt.Fprintln(w, d.Debug.Advice)
	}
}

func printDealsCheck(w io.Writer, c dashboard.DealsCheck) {
	for _, m := range c.Messages {
		fmt.Fprintln(w, m)
	}
	if c.TotalRecords == 0 {
		return
	}

	table := newTableWriter(w, []string{"Check", "Value"})
	table.AppendBulk([][]string{
		{"Total records", metrics.FormatCount(c.TotalRecords)},
		{"With stock group", metrics.FormatCount(c.RecordsWithStockGroupID)},
		{"With buying group", metrics.FormatCount(c.RecordsWithBuyingGroupID)},
		{"With discount", metrics.FormatCount(c.RecordsWithDiscount)},
		{"Min discount %", metrics.FormatNumber(c.MinDiscountPct, 2)},
		{"Avg discount %", metrics.FormatNumber(c.AvgDiscountPct, 2)},
		{"Max discount %", metrics.FormatNumber(c.MaxDiscountPct, 2)},
		{"Unique stock groups", metrics.FormatCount(c.UniqueStockGroups)},
		{"Unique buying groups", metrics.FormatCount(c.UniqueBuyingGroups)},
	})
	table.Render()
}
