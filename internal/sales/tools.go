package sales

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tmc/langchaingo/tools"
	"github.com/xuri/excelize/v2"

	"github.com/smallnest/agentcases/log"
	"github.com/smallnest/agentcases/tool"
)

// ChartTypes lists the chart types Visualize accepts.
var ChartTypes = []string{"bar", "line", "scatter", "pie"}

// Analyst answers questions about a table. Charts are written to OutDir,
// or to the system temp directory when it is empty.
type Analyst struct {
	Table  *Table
	OutDir string
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func statsTable(t *Table, columns []string) string {
	tb := table.New().Border(lipgloss.NormalBorder()).Headers(append([]string{""}, columns...)...)
	stats := make([]tool.Stats, len(columns))
	for i, c := range columns {
		values, _ := t.Numbers(c)
		stats[i] = tool.Describe(values)
	}
	for _, line := range []struct {
		label string
		get   func(tool.Stats) float64
	}{
		{"count", func(s tool.Stats) float64 { return float64(s.Count) }},
		{"mean", func(s tool.Stats) float64 { return s.Mean }},
		{"std", func(s tool.Stats) float64 { return s.StdDev }},
		{"min", func(s tool.Stats) float64 { return s.Min }},
		{"50%", func(s tool.Stats) float64 { return s.Median }},
		{"max", func(s tool.Stats) float64 { return s.Max }},
	} {
		row := []string{line.label}
		for _, s := range stats {
			row = append(row, strconv.FormatFloat(line.get(s), 'f', 2, 64))
		}
		tb.Row(row...)
	}
	return tb.String()
}

func (a *Analyst) numericColumns() []string {
	var out []string
	for _, c := range a.Table.columns {
		if k, _ := a.Table.Kind(c); k == Numeric {
			out = append(out, c)
		}
	}
	return out
}

// Summary describes the shape, column kinds, numeric statistics and missing
// values of the table.
func (a *Analyst) Summary() string {
	t := a.Table
	var b strings.Builder
	b.WriteString("Dataset Summary:\n\n")
	fmt.Fprintf(&b, "Number of rows: %d\n", t.Len())
	fmt.Fprintf(&b, "Number of columns: %d\n", len(t.columns))
	fmt.Fprintf(&b, "Column names: %s\n\n", strings.Join(t.columns, ", "))

	b.WriteString("Data types:\n")
	for i, c := range t.columns {
		fmt.Fprintf(&b, "- %s: %s\n", c, t.kinds[i])
	}
	b.WriteString("\n")

	if numeric := a.numericColumns(); len(numeric) > 0 {
		fmt.Fprintf(&b, "Numerical Summary Statistics:\n%s\n\n", statsTable(t, numeric))
	}

	missing := t.Missing()
	if len(missing) == 0 {
		b.WriteString("No missing values found.\n")
		return b.String()
	}
	b.WriteString("Missing Values:\n")
	for _, c := range t.columns {
		if n := missing[c]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d missing values\n", c, n)
		}
	}
	return b.String()
}

// AnalyzeColumn reports statistics for a numeric column, the range of a date
// column, or the most frequent values of a categorical one.
func (a *Analyst) AnalyzeColumn(name string) string {
	name = strings.TrimSpace(name)
	kind, err := a.Table.Kind(name)
	if err != nil {
		return fmt.Sprintf("Column '%s' not found in the dataset.", name)
	}
	cells, _ := a.Table.Column(name)
	missing := a.Table.Missing()[name]

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of column '%s':\n\n", name)
	switch kind {
	case Numeric:
		b.WriteString("Data type: Numerical\n")
		fmt.Fprintf(&b, "Summary statistics:\n%s\n\n", statsTable(a.Table, []string{name}))
		fmt.Fprintf(&b, "Number of unique values: %d\n", len(counts(cells)))
		fmt.Fprintf(&b, "Number of missing values: %d\n", missing)
	case Datetime:
		var dates []time.Time
		for _, c := range cells {
			if d, err := time.Parse(DateLayout, c); err == nil {
				dates = append(dates, d)
			}
		}
		first, last := slices.MinFunc(dates, time.Time.Compare), slices.MaxFunc(dates, time.Time.Compare)
		b.WriteString("Data type: Datetime\n")
		fmt.Fprintf(&b, "Earliest date: %s\n", first.Format(DateLayout))
		fmt.Fprintf(&b, "Latest date: %s\n", last.Format(DateLayout))
		fmt.Fprintf(&b, "Date range: %d days\n", int(last.Sub(first).Hours()/24))
	default:
		freq := counts(cells)
		b.WriteString("Data type: Categorical/Text\n")
		fmt.Fprintf(&b, "Number of unique values: %d\n", len(freq))
		fmt.Fprintf(&b, "Number of missing values: %d\n", missing)
		b.WriteString("Top values:\n")
		for i, v := range freq {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "%s: %d\n", v.value, v.n)
		}
	}
	return b.String()
}

type valueCount struct {
	value string
	n     int
}

// counts tallies the non-empty cells, most frequent first and then in order
// of first appearance.
func counts(cells []string) []valueCount {
	var out []valueCount
	pos := map[string]int{}
	for _, c := range cells {
		if c == "" {
			continue
		}
		if i, ok := pos[c]; ok {
			out[i].n++
			continue
		}
		pos[c] = len(out)
		out = append(out, valueCount{c, 1})
	}
	slices.SortStableFunc(out, func(a, b valueCount) int { return b.n - a.n })
	return out
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Visualize writes a chart workbook for input "<type>:<col>[,<col>...]" and
// returns where it was saved. Invalid requests are answered in plain text.
func (a *Analyst) Visualize(input string) (string, error) {
	kind, cols, ok := strings.Cut(input, ":")
	if !ok {
		return "Invalid format. Use 'type:columns', for example 'bar:Product,Sales'.", nil
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	var columns []string
	for _, c := range strings.Split(cols, ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}
	for _, c := range columns {
		if _, err := a.Table.Kind(c); err != nil {
			return fmt.Sprintf("Column '%s' not found in the dataset.", c), nil
		}
	}

	var (
		sheet chartSheet
		msg   string
	)
	switch kind {
	case "bar":
		sheet, msg = a.barSheet(columns)
	case "pie":
		sheet, msg = a.pieSheet(columns)
	case "line":
		sheet, msg = a.lineSheet(columns)
	case "scatter":
		sheet, msg = a.scatterSheet(columns)
	default:
		return fmt.Sprintf("Visualization type '%s' not supported. Use one of: %s.", kind, strings.Join(ChartTypes, ", ")), nil
	}
	if msg != "" {
		return msg, nil
	}

	dir := a.OutDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := kind + "_" + unsafeFileChars.ReplaceAllString(strings.Join(columns, "_"), "_") + ".xlsx"
	path := filepath.Join(dir, name)
	if err := sheet.save(path); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	log.Debug("wrote %s chart to %s", kind, path)
	return "Visualization saved to " + path, nil
}

func (a *Analyst) isNumeric(c string) bool {
	k, _ := a.Table.Kind(c)
	return k == Numeric
}

// groupBy reduces value cells by the categories in key, in order of first appearance.
func (a *Analyst) groupBy(key, value string, mean bool) ([]string, []float64) {
	keys, _ := a.Table.Column(key)
	vals, _ := a.Table.Column(value)
	var order []string
	sums, ns := map[string]float64{}, map[string]int{}
	for i, k := range keys {
		v, err := strconv.ParseFloat(vals[i], 64)
		if k == "" || err != nil {
			continue
		}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += v
		ns[k]++
	}
	out := make([]float64, len(order))
	for i, k := range order {
		out[i] = sums[k]
		if mean {
			out[i] /= float64(ns[k])
		}
	}
	return order, out
}

func (a *Analyst) barSheet(columns []string) (chartSheet, string) {
	if len(columns) != 2 {
		return chartSheet{}, "Bar chart requires exactly two columns (one categorical, one numerical)."
	}
	if !a.isNumeric(columns[1]) {
		return chartSheet{}, fmt.Sprintf("Column '%s' must be numerical for a bar chart.", columns[1])
	}
	labels, means := a.groupBy(columns[0], columns[1], true)
	return chartSheet{
		chartType: excelize.Col,
		title:     fmt.Sprintf("Average %s by %s", columns[1], columns[0]),
		header:    []string{columns[0], "Average " + columns[1]},
		labels:    labels,
		series:    [][]float64{means},
	}, ""
}

func (a *Analyst) pieSheet(columns []string) (chartSheet, string) {
	switch len(columns) {
	case 1:
		freq := counts(must(a.Table.Column(columns[0])))
		s := chartSheet{chartType: excelize.Pie, title: "Share of " + columns[0], header: []string{columns[0], "Count"}}
		values := make([]float64, len(freq))
		for i, v := range freq {
			s.labels = append(s.labels, v.value)
			values[i] = float64(v.n)
		}
		s.series = [][]float64{values}
		return s, ""
	case 2:
		if !a.isNumeric(columns[1]) {
			return chartSheet{}, fmt.Sprintf("Column '%s' must be numerical for a pie chart.", columns[1])
		}
		labels, sums := a.groupBy(columns[0], columns[1], false)
		return chartSheet{
			chartType: excelize.Pie,
			title:     fmt.Sprintf("Total %s by %s", columns[1], columns[0]),
			header:    []string{columns[0], "Total " + columns[1]},
			labels:    labels,
			series:    [][]float64{sums},
		}, ""
	}
	return chartSheet{}, "Pie chart requires one categorical column, optionally followed by a numerical column."
}

func (a *Analyst) lineSheet(columns []string) (chartSheet, string) {
	if len(columns) < 2 {
		return chartSheet{}, "Line chart requires at least two columns (one for x-axis, one for y-axis)."
	}
	s := chartSheet{
		chartType: excelize.Line,
		title:     fmt.Sprintf("Line Chart with %s on x-axis", columns[0]),
		header:    columns,
		labels:    must(a.Table.Column(columns[0])),
	}
	for _, c := range columns[1:] {
		if !a.isNumeric(c) {
			return chartSheet{}, fmt.Sprintf("Column '%s' must be numerical for a line chart.", c)
		}
		s.series = append(s.series, a.dense(c))
	}
	return s, ""
}

func (a *Analyst) scatterSheet(columns []string) (chartSheet, string) {
	if len(columns) != 2 {
		return chartSheet{}, "Scatter chart requires exactly two numerical columns."
	}
	if !a.isNumeric(columns[0]) || !a.isNumeric(columns[1]) {
		return chartSheet{}, "Both columns must be numerical for a scatter chart."
	}
	return chartSheet{
		chartType: excelize.Scatter,
		title:     fmt.Sprintf("Scatter Chart: %s vs %s", columns[0], columns[1]),
		header:    columns,
		numericX:  a.dense(columns[0]),
		series:    [][]float64{a.dense(columns[1])},
	}, ""
}

// dense returns a numeric column with one value per row; empty cells become 0.
func (a *Analyst) dense(c string) []float64 {
	cells := must(a.Table.Column(c))
	out := make([]float64, len(cells))
	for i, cell := range cells {
		out[i], _ = strconv.ParseFloat(cell, 64)
	}
	return out
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// chartSheet is the data behind one chart: an x column (labels or numericX)
// followed by one column per series.
type chartSheet struct {
	chartType excelize.ChartType
	title     string
	header    []string
	labels    []string
	numericX  []float64
	series    [][]float64
}

const dataSheet = "Data"

func (s chartSheet) rows() int {
	if s.numericX != nil {
		return len(s.numericX)
	}
	return len(s.labels)
}

func (s chartSheet) save(path string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return err
	}

	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return err
	}
	for r := range s.rows() {
		row := make([]any, 0, len(s.series)+1)
		if s.numericX != nil {
			row = append(row, s.numericX[r])
		} else {
			row = append(row, s.labels[r])
		}
		for _, values := range s.series {
			row = append(row, values[r])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return err
		}
	}

	last := s.rows() + 1
	chart := &excelize.Chart{
		Type:      s.chartType,
		Title:     []excelize.RichTextRun{{Text: s.title}},
		Dimension: excelize.ChartDimension{Width: 720, Height: 480},
		Legend:    excelize.ChartLegend{Position: "bottom"},
	}
	for i := range s.series {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", dataSheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", dataSheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", dataSheet, col, col, last),
		})
	}
	anchor, err := excelize.ColumnNumberToName(len(s.series) + 3)
	if err != nil {
		return err
	}
	if err := f.AddChart(dataSheet, anchor+"2", chart); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// Question answers simple questions about maximums, minimums, averages,
// unique values, correlations and trends of the columns it names.
func (a *Analyst) Question(question string) string {
	q := strings.ToLower(question)
	has := func(words ...string) bool {
		return slices.ContainsFunc(words, func(w string) bool { return strings.Contains(q, w) })
	}
	named := func(numeric bool) []string {
		var out []string
		for _, c := range a.Table.columns {
			if strings.Contains(q, strings.ToLower(c)) && (!numeric || a.isNumeric(c)) {
				out = append(out, c)
			}
		}
		return out
	}
	details := has("which", "when", "where")

	switch {
	case has("maximum", "highest"):
		if cols := named(true); len(cols) > 0 {
			return a.extreme(cols[0], "maximum", details, func(x, best float64) bool { return x > best })
		}
	case has("minimum", "lowest"):
		if cols := named(true); len(cols) > 0 {
			return a.extreme(cols[0], "minimum", details, func(x, best float64) bool { return x < best })
		}
	case has("average", "mean"):
		if cols := named(true); len(cols) > 0 {
			values, _ := a.Table.Numbers(cols[0])
			return fmt.Sprintf("The average (mean) value for %s is %.2f.", cols[0], tool.Describe(values).Mean)
		}
	case has("unique"):
		if cols := named(false); len(cols) > 0 {
			return fmt.Sprintf("There are %d unique values in the %s column.", len(counts(must(a.Table.Column(cols[0])))), cols[0])
		}
	case has("correlation"):
		if cols := named(true); len(cols) > 1 {
			r := correlation(a.dense(cols[0]), a.dense(cols[1]))
			return fmt.Sprintf("The correlation between %s and %s is %.4f.", cols[0], cols[1], r)
		}
	case has("trend", "pattern"):
		if cols := named(true); len(cols) > 0 {
			if answer, ok := a.trend(cols[0]); ok {
				return answer
			}
		}
	}
	return "I don't have enough information to answer that question about the data. " +
		"Try asking about maximums, minimums, averages, correlations, or trends in specific columns."
}

func (a *Analyst) extreme(col, label string, details bool, better func(x, best float64) bool) string {
	cells := must(a.Table.Column(col))
	best, at := 0.0, -1
	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			continue
		}
		if at < 0 || better(v, best) {
			best, at = v, i
		}
	}
	if at < 0 {
		return fmt.Sprintf("Column %s has no values.", col)
	}
	answer := fmt.Sprintf("The %s value for %s is %s.", label, col, num(best))
	if details {
		row := a.Table.Row(at)
		parts := make([]string, len(a.Table.columns))
		for i, c := range a.Table.columns {
			parts[i] = c + "=" + row[c]
		}
		answer += " Details for this entry: " + strings.Join(parts, ", ")
	}
	return answer
}

// trend compares the mean of the first third of a column with the last third.
func (a *Analyst) trend(col string) (string, bool) {
	values, _ := a.Table.Numbers(col)
	n := len(values)
	if n <= 2 {
		return "", false
	}
	start := tool.Describe(values[:n/3]).Mean
	end := tool.Describe(values[n-n/3:]).Mean
	change := end - start
	pct := math.Inf(1)
	if start != 0 {
		pct = change / start * 100
	}
	switch {
	case change > 0:
		return fmt.Sprintf("%s shows an upward trend. The average increased from %.2f to %.2f, a change of %.2f%%.", col, start, end, pct), true
	case change < 0:
		return fmt.Sprintf("%s shows a downward trend. The average decreased from %.2f to %.2f, a change of %.2f%%.", col, start, end, pct), true
	}
	return fmt.Sprintf("%s shows no significant trend. The average remained around %.2f.", col, start), true
}

// correlation is the Pearson correlation coefficient of x and y.
func correlation(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return math.NaN()
	}
	mx, my := tool.Describe(x[:n]).Mean, tool.Describe(y[:n]).Mean
	var sxy, sxx, syy float64
	for i := range n {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	return sxy / math.Sqrt(sxx*syy)
}

// Tools returns data_summary, column_analysis, data_visualization and data_question.
func (a *Analyst) Tools() []tools.Tool {
	return []tools.Tool{
		tool.Pure("data_summary",
			"Provides a summary of the dataset, including basic statistics, data types, and missing values. Input is ignored.",
			func(string) string { return a.Summary() }),
		tool.Pure("column_analysis",
			"Analyzes a specific column in the dataset. Input should be a column name.",
			a.AnalyzeColumn),
		tool.NewFunc("data_visualization",
			"Creates a chart workbook. Input should be in the format 'type:columns' where type is one of 'bar', 'line', "+
				"'scatter', or 'pie', and columns is a comma-separated list of column names.",
			func(_ context.Context, input string) (string, error) { return a.Visualize(input) }),
		tool.Pure("data_question",
			"Answers questions about the data. Input should be a natural language question about the dataset.",
			a.Question),
	}
}
