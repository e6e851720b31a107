package rag

import (
	"fmt"
	"os"
	"path/filepath"
)

// SampleDocument is a small financial report used by the document QA command.
const SampleDocument = `# Sample Company Financial Report 2023

## Executive Summary

Our company has experienced significant growth in the fiscal year 2023. Revenue increased by 15% compared to the previous year, reaching $15.2 million. Our net profit margin improved from 12% to 14%, resulting in a total profit of $2.1 million.

## Financial Highlights

- Total Revenue: $15.2 million
- Operating Expenses: $11.7 million
- Net Profit: $2.1 million
- Earnings Per Share (EPS): $3.27
- Return on Investment (ROI): 12.8%

## Revenue Breakdown

Revenue sources:
1. Product A: $7.3 million (48%)
2. Product B: $4.5 million (30%)
3. Product C: $2.1 million (14%)
4. Services: $1.3 million (8%)

## Market Analysis

The market for our products has grown by approximately 7% this year. We've increased our market share from 23% to 26%, primarily due to the success of Product A and our expanded services offering.

## Future Outlook

We project continued growth in the next fiscal year, with an estimated revenue increase of 10-12%. New product lines currently in development are expected to contribute an additional $2-3 million in revenue by Q3 2024.

## Risks and Challenges

Potential challenges include:
- Increasing competition in the Product B segment
- Rising supply chain costs, potentially affecting our gross margin
- Regulatory changes in our primary markets

## Conclusion

The management team is confident in our strategy and our ability to maintain growth in the coming year. We remain committed to innovation and expanding our market presence.
`

// SampleDocumentPath is where WriteSampleDocument puts the report, relative to its dir.
const SampleDocumentPath = "documents/sample_document.txt"

// WriteSampleDocument writes SampleDocument below dir unless the file
// already exists, and returns its path.
func WriteSampleDocument(dir string) (string, error) {
	path := filepath.Join(dir, SampleDocumentPath)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create documents dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(SampleDocument), 0o644); err != nil {
		return "", fmt.Errorf("failed to write sample document: %w", err)
	}
	return path, nil
}
