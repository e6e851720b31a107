package tool

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// DataAnalysis reports summary statistics of comma-separated numbers.
type DataAnalysis struct{}

func (DataAnalysis) Name() string { return "data_analysis" }

func (DataAnalysis) Description() string {
	return "Useful for analyzing numerical data. Input should be a comma-separated list of numbers."
}

func (d DataAnalysis) Call(_ context.Context, input string) (string, error) {
	return d.Analyze(input), nil
}

// Stats holds the statistics of a sample.
type Stats struct {
	Count  int
	Sum    float64
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes Stats; StdDev is the sample standard deviation.
func Describe(values []float64) Stats {
	s := Stats{Count: len(values)}
	if s.Count == 0 {
		return s
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	for _, v := range sorted {
		s.Sum += v
	}
	s.Mean = s.Sum / float64(s.Count)
	s.Min, s.Max = sorted[0], sorted[s.Count-1]
	if s.Count%2 == 1 {
		s.Median = sorted[s.Count/2]
	} else {
		s.Median = (sorted[s.Count/2-1] + sorted[s.Count/2]) / 2
	}
	if s.Count > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - s.Mean) * (v - s.Mean)
		}
		s.StdDev = math.Sqrt(sq / float64(s.Count-1))
	}
	return s
}

// Analyze formats Describe of the parsed input.
func (DataAnalysis) Analyze(input string) string {
	var values []float64
	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Sprintf("Data analysis error: %q is not a number", field)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return "Data analysis error: no valid numbers provided"
	}

	if len(values) == 1 {
		return fmt.Sprintf("Analysis results:\nCount: 1\nValue: %s", formatNumber(values[0]))
	}
	s := Describe(values)
	return fmt.Sprintf("Analysis results:\nCount: %d\nSum: %s\nMean: %.2f\nMedian: %.2f\nStd Dev: %.2f\nMin: %s\nMax: %s",
		s.Count, formatNumber(s.Sum), s.Mean, s.Median, s.StdDev, formatNumber(s.Min), formatNumber(s.Max))
}
