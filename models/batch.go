package models

// BatchResult is the outcome of one bulk reconciliation run. For every batch
// Inserted + Updated + len(Errors) == Total.
type BatchResult struct {
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Errors   []RowError `json:"errors"`
	Total    int        `json:"total"`
}

// RowError reports one rejected row. Row is 1-based so it matches the row
// numbering operators see in their spreadsheet.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}
