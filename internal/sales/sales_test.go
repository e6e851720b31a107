package sales

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerate(t *testing.T) {
	tb := Generate(DefaultRows)
	require.Equal(t, 100, tb.Len())
	assert.Equal(t, []string{"Date", "Product", "Region", "Sales", "Units", "Customer_Satisfaction"}, tb.Columns())

	first := tb.Row(0)
	assert.Equal(t, "2023-01-01", first["Date"])
	assert.Equal(t, "Product A", first["Product"])
	assert.Equal(t, "North", first["Region"])
	assert.Equal(t, "100", first["Sales"])
	assert.Equal(t, "5", first["Units"])
	assert.Equal(t, "3.5", first["Customer_Satisfaction"])

	row := tb.Row(23)
	assert.Equal(t, "2023-01-24", row["Date"])
	assert.Equal(t, "Product D", row["Product"])
	assert.Equal(t, "West", row["Region"])
	assert.Equal(t, "153", row["Sales"])
	assert.Equal(t, "8", row["Units"])
	assert.Equal(t, "5.8", row["Customer_Satisfaction"])

	for col, want := range map[string]Kind{"Date": Datetime, "Product": Categorical, "Sales": Numeric, "Customer_Satisfaction": Numeric} {
		got, err := tb.Kind(col)
		require.NoError(t, err)
		assert.Equal(t, want, got, col)
	}
	_, err := tb.Kind("Profit")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sales_data.csv")

	tb, err := LoadOrGenerate(path, 10)
	require.NoError(t, err)
	require.FileExists(t, path)

	loaded, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, tb.Columns(), loaded.Columns())
	require.Equal(t, tb.Len(), loaded.Len())
	for i := range tb.Len() {
		assert.Equal(t, tb.Row(i), loaded.Row(i))
	}

	again, err := LoadOrGenerate(path, 500)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Len(), "existing file is reused")
}

func TestMissingValues(t *testing.T) {
	tb := NewTable([]string{"name", "score"}, [][]string{{"a", "1"}, {"b"}, {"", "3"}})
	assert.Equal(t, map[string]int{"name": 1, "score": 1}, tb.Missing())

	values, err := tb.Numbers("score")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, values)

	summary := (&Analyst{Table: tb}).Summary()
	assert.Contains(t, summary, "- name: 1 missing values")
	assert.NotContains(t, summary, "No missing values found.")
}

func TestSummaryAndColumns(t *testing.T) {
	a := &Analyst{Table: Generate(DefaultRows)}

	summary := a.Summary()
	assert.Contains(t, summary, "Number of rows: 100")
	assert.Contains(t, summary, "Number of columns: 6")
	assert.Contains(t, summary, "- Date: datetime")
	assert.Contains(t, summary, "- Region: categorical")
	assert.Contains(t, summary, "- Units: numeric")
	assert.Contains(t, summary, "389.00")
	assert.Contains(t, summary, "No missing values found.")

	sales := a.AnalyzeColumn("Sales")
	assert.Contains(t, sales, "Data type: Numerical")
	assert.Contains(t, sales, "Number of missing values: 0")

	dates := a.AnalyzeColumn(" Date ")
	assert.Contains(t, dates, "Earliest date: 2023-01-01")
	assert.Contains(t, dates, "Latest date: 2023-04-10")
	assert.Contains(t, dates, "Date range: 99 days")

	products := a.AnalyzeColumn("Product")
	assert.Contains(t, products, "Number of unique values: 4")
	assert.Contains(t, products, "Product A: 25")

	assert.Equal(t, "Column 'Profit' not found in the dataset.", a.AnalyzeColumn("Profit"))
}

func TestQuestion(t *testing.T) {
	a := &Analyst{Table: Generate(DefaultRows)}

	tests := []struct {
		question string
		want     string
	}{
		{"What is the highest Sales?", "The maximum value for Sales is 389."},
		{"What is the lowest units value?", "The minimum value for Units is 5."},
		{"What is the average Units?", "The average (mean) value for Units is 9.50."},
		{"How many unique regions are in the Region column?", "There are 4 unique values in the Region column."},
		{"Is there a correlation between Sales and Units?", "The correlation between Sales and Units is"},
		{"What is the trend in Sales?", "Sales shows an upward trend."},
		{"Who is the best salesperson?", "I don't have enough information"},
		{"What is the highest Region?", "I don't have enough information"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(a.Question(tt.question), tt.want), a.Question(tt.question))
		})
	}

	answer := a.Question("Which day had the highest Sales?")
	assert.Contains(t, answer, "Date=2023-04-10")
	assert.Contains(t, answer, "Product=Product D")
}

func TestCorrelation(t *testing.T) {
	assert.InDelta(t, 1.0, correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
}

func TestVisualize(t *testing.T) {
	dir := t.TempDir()
	a := &Analyst{Table: Generate(DefaultRows), OutDir: dir}

	out, err := a.Visualize("bar: Product, Sales")
	require.NoError(t, err)
	path := filepath.Join(dir, "bar_Product_Sales.xlsx")
	assert.Equal(t, "Visualization saved to "+path, out)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	header, err := f.GetCellValue("Data", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Average Sales", header)
	label, err := f.GetCellValue("Data", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Product D", label)

	for _, input := range []string{"line:Date,Sales,Units", "scatter:Units,Sales", "pie:Region", "pie:Region,Sales"} {
		out, err := a.Visualize(input)
		require.NoError(t, err, input)
		require.True(t, strings.HasPrefix(out, "Visualization saved to "), out)
		_, err = os.Stat(strings.TrimPrefix(out, "Visualization saved to "))
		assert.NoError(t, err, input)
	}

	for input, want := range map[string]string{
		"Sales":                 "Invalid format. Use 'type:columns', for example 'bar:Product,Sales'.",
		"histogram:Sales":       "Visualization type 'histogram' not supported. Use one of: bar, line, scatter, pie.",
		"bar:Product,Profit":    "Column 'Profit' not found in the dataset.",
		"bar:Sales,Product":     "Column 'Product' must be numerical for a bar chart.",
		"scatter:Product,Sales": "Both columns must be numerical for a scatter chart.",
		"line:Date":             "Line chart requires at least two columns (one for x-axis, one for y-axis).",
	} {
		out, err := a.Visualize(input)
		require.NoError(t, err)
		assert.Equal(t, want, out, input)
	}
}

func TestTools(t *testing.T) {
	a := &Analyst{Table: Generate(20), OutDir: t.TempDir()}
	var names []string
	for _, tl := range a.Tools() {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{"data_summary", "column_analysis", "data_visualization", "data_question"}, names)

	out, err := a.Tools()[0].Call(t.Context(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "Number of rows: 20")
}
