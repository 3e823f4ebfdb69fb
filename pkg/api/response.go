package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// amount parses a numeric(78,0)/numeric(38,0)-backed column value into a
// decimal.Decimal for the response, rather than a float64, which would lose
// precision on uint256-range amounts. Falls back to the raw string if s is
// somehow not a valid decimal, which only a corrupted row would produce.
func amount(s string) any {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d
}
