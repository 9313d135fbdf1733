package growth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a raw input row as it arrives from an external source (CSV load,
// ad-hoc input) before period and amount normalisation.
type Record struct {
	AccountID    string
	AccountName  string
	BusinessUnit string
	Period       string
	Amount       string
}

// RowError reports a single rejected input row.
type RowError struct {
	Index  int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// ErrStrictRejected signals that strict normalisation found at least one bad row.
var ErrStrictRejected = errors.New("growth: input rejected in strict mode")

var periodLayouts = []string{"2006-01-02", "2006-01", time.RFC3339}

// ParsePeriod parses a calendar month from its common textual forms and
// normalises it to the first day of the month.
func ParsePeriod(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable period %q", s)
}

// NormalizeFacts converts raw records into monthly facts. Malformed rows are
// rejected individually and reported; the batch continues. In strict mode all
// rows are still examined, but any rejection fails the whole batch with
// ErrStrictRejected.
func NormalizeFacts(records []Record, strict bool) ([]MonthlyFact, []RowError, error) {
	facts := make([]MonthlyFact, 0, len(records))
	var rowErrs []RowError

	for i, rec := range records {
		if strings.TrimSpace(rec.AccountID) == "" {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: "empty account id"})
			continue
		}
		period, err := ParsePeriod(rec.Period)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: err.Error()})
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rec.Amount))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: fmt.Sprintf("unparseable amount %q", rec.Amount)})
			continue
		}
		facts = append(facts, MonthlyFact{
			AccountID:    rec.AccountID,
			AccountName:  rec.AccountName,
			BusinessUnit: rec.BusinessUnit,
			Period:       period,
			Amount:       amount,
		})
	}

	if strict && len(rowErrs) > 0 {
		return nil, rowErrs, fmt.Errorf("%w: %d of %d rows malformed", ErrStrictRejected, len(rowErrs), len(records))
	}
	return facts, rowErrs, nil
}
