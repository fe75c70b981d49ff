package catalog

var sampleColumns = []string{
	"company_name", "website", "country", "employee_count", "industry",
	"travel_category", "page_title", "b2c_score", "b2c_reasoning", "source_file", "line_number",
}

// Sample returns the two-row demo catalog used when no file is configured.
func Sample() *Catalog {
	rows := []map[string]string{
		{
			"company_name":    "Sample Company 1",
			"website":         "https://example.com",
			"country":         "United States",
			"employee_count":  "100",
			"industry":        "Technology",
			"travel_category": "",
			"page_title":      "Sample Company 1",
			"b2c_score":       "Unknown",
			"b2c_reasoning":   "Demo data",
			"source_file":     "demo",
			"line_number":     "1",
		},
		{
			"company_name":    "Sample Company 2",
			"website":         "https://google.com",
			"country":         "United States",
			"employee_count":  "50",
			"industry":        "Technology",
			"travel_category": "",
			"page_title":      "Sample Company 2",
			"b2c_score":       "Unknown",
			"b2c_reasoning":   "Demo data",
			"source_file":     "demo",
			"line_number":     "2",
		},
	}
	return New(sampleColumns, rows, SourceSample)
}
