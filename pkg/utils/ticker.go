package utils

import "strings"

// PriceColumn maps a snapshot directory name to its price-table column.
// Price tables key tickers in upper case.
func PriceColumn(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// IsHidden reports whether a directory entry should be ignored, such as
// ".DS_Store" or editor swap files.
func IsHidden(name string) bool {
	return name == "" || strings.HasPrefix(name, ".")
}
