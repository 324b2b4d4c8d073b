package excel

// RawTable is a file's content before typing: a header row and data rows
type RawTable struct {
	Header []string   // Column headers
	Rows   [][]string // Data rows, possibly ragged
}
