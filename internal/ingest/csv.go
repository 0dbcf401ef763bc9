// Package ingest parses the two CSV boundary formats the posting engine
// accepts: Stripe settlement exports and bank statement exports.
package ingest

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StripeSettlementLine is one parsed row of a Stripe settlement export.
type StripeSettlementLine struct {
	PayoutID              string
	BalanceTransactionID  string
	GatewayTransactionID  string
	AvailableOn           time.Time
	Currency              string
	GrossMinor            int64
	FeeMinor              int64
	NetMinor              int64
	TransactionType       string
}

// BankStatementLine is one parsed row of a bank statement export.
type BankStatementLine struct {
	StatementID   string
	ValueDate     time.Time
	BankReference string
	Description   string
	Currency      string
	AmountMinor   int64
}

// IngestError is the structured failure shape every ingest error takes:
// a CSV-level error, a missing field, an unparsable date, or an unparsable
// amount, each carrying the 1-based line number.
type IngestError struct {
	Kind    string // "csv" | "missing_field" | "invalid_date" | "invalid_amount"
	Line    int
	Field   string
	Value   string
	Message string
}

func (e *IngestError) Error() string {
	switch e.Kind {
	case "csv":
		return fmt.Sprintf("csv parse error at line %d: %s", e.Line, e.Message)
	case "missing_field":
		return fmt.Sprintf("missing required field '%s' at line %d", e.Field, e.Line)
	case "invalid_date":
		return fmt.Sprintf("invalid date '%s' for field '%s' at line %d", e.Value, e.Field, e.Line)
	case "invalid_amount":
		return fmt.Sprintf("invalid amount '%s' for field '%s' at line %d", e.Value, e.Field, e.Line)
	default:
		return fmt.Sprintf("ingest error at line %d", e.Line)
	}
}

var stripeColumns = []string{
	"payout_id", "balance_transaction_id", "source_id", "available_on",
	"currency", "gross", "fee", "net", "type",
}

var bankColumns = []string{
	"statement_id", "value_date", "bank_reference", "description", "currency", "amount",
}

// ParseStripeSettlementCSV parses a Stripe settlement export. Column order
// is flexible (matched by header name); every field is required non-empty.
func ParseStripeSettlementCSV(input string) ([]StripeSettlementLine, error) {
	rows, err := readTrimmedCSV(input, stripeColumns)
	if err != nil {
		return nil, err
	}

	lines := make([]StripeSettlementLine, 0, len(rows))
	for _, row := range rows {
		payoutID, err := required(row.values, "payout_id", row.line)
		if err != nil {
			return nil, err
		}
		balanceTxnID, err := required(row.values, "balance_transaction_id", row.line)
		if err != nil {
			return nil, err
		}
		gatewayTxnID, err := required(row.values, "source_id", row.line)
		if err != nil {
			return nil, err
		}
		availableOnRaw, err := required(row.values, "available_on", row.line)
		if err != nil {
			return nil, err
		}
		availableOn, err := parseDate(availableOnRaw, "available_on", row.line)
		if err != nil {
			return nil, err
		}
		currency, err := required(row.values, "currency", row.line)
		if err != nil {
			return nil, err
		}
		grossRaw, err := required(row.values, "gross", row.line)
		if err != nil {
			return nil, err
		}
		gross, err := parseMinorUnits(grossRaw, "gross", row.line)
		if err != nil {
			return nil, err
		}
		feeRaw, err := required(row.values, "fee", row.line)
		if err != nil {
			return nil, err
		}
		fee, err := parseMinorUnits(feeRaw, "fee", row.line)
		if err != nil {
			return nil, err
		}
		netRaw, err := required(row.values, "net", row.line)
		if err != nil {
			return nil, err
		}
		net, err := parseMinorUnits(netRaw, "net", row.line)
		if err != nil {
			return nil, err
		}
		txnType, err := required(row.values, "type", row.line)
		if err != nil {
			return nil, err
		}

		lines = append(lines, StripeSettlementLine{
			PayoutID:             payoutID,
			BalanceTransactionID: balanceTxnID,
			GatewayTransactionID: gatewayTxnID,
			AvailableOn:          availableOn,
			Currency:             strings.ToUpper(currency),
			GrossMinor:           gross,
			FeeMinor:             fee,
			NetMinor:             net,
			TransactionType:      txnType,
		})
	}
	return lines, nil
}

// ParseBankStatementCSV parses a bank statement export.
func ParseBankStatementCSV(input string) ([]BankStatementLine, error) {
	rows, err := readTrimmedCSV(input, bankColumns)
	if err != nil {
		return nil, err
	}

	lines := make([]BankStatementLine, 0, len(rows))
	for _, row := range rows {
		statementID, err := required(row.values, "statement_id", row.line)
		if err != nil {
			return nil, err
		}
		valueDateRaw, err := required(row.values, "value_date", row.line)
		if err != nil {
			return nil, err
		}
		valueDate, err := parseDate(valueDateRaw, "value_date", row.line)
		if err != nil {
			return nil, err
		}
		bankReference, err := required(row.values, "bank_reference", row.line)
		if err != nil {
			return nil, err
		}
		description, err := required(row.values, "description", row.line)
		if err != nil {
			return nil, err
		}
		currency, err := required(row.values, "currency", row.line)
		if err != nil {
			return nil, err
		}
		amountRaw, err := required(row.values, "amount", row.line)
		if err != nil {
			return nil, err
		}
		amount, err := parseMinorUnits(amountRaw, "amount", row.line)
		if err != nil {
			return nil, err
		}

		lines = append(lines, BankStatementLine{
			StatementID:   statementID,
			ValueDate:     valueDate,
			BankReference: bankReference,
			Description:   description,
			Currency:      strings.ToUpper(currency),
			AmountMinor:   amount,
		})
	}
	return lines, nil
}

type csvRow struct {
	line   int
	values map[string]string
}

func readTrimmedCSV(input string, expectedColumns []string) ([]csvRow, error) {
	reader := csv.NewReader(strings.NewReader(input))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &IngestError{Kind: "csv", Line: 1, Message: err.Error()}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []csvRow
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			lineNum++
			return nil, &IngestError{Kind: "csv", Line: lineNum, Message: err.Error()}
		}
		lineNum++
		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				values[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, csvRow{line: lineNum, values: values})
	}
	_ = expectedColumns // header names are matched by key, not position
	return rows, nil
}

func required(values map[string]string, field string, line int) (string, error) {
	v, ok := values[field]
	if !ok || strings.TrimSpace(v) == "" {
		return "", &IngestError{Kind: "missing_field", Line: line, Field: field}
	}
	return strings.TrimSpace(v), nil
}

func parseDate(input, field string, line int) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, input); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &IngestError{Kind: "invalid_date", Line: line, Field: field, Value: input}
}

func parseMinorUnits(input, field string, line int) (int64, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
	}

	negative := false
	magnitude := value
	switch {
	case strings.HasPrefix(value, "-"):
		negative = true
		magnitude = value[1:]
	case strings.HasPrefix(value, "+"):
		magnitude = value[1:]
	}
	if magnitude == "" {
		return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
	}

	parts := strings.Split(magnitude, ".")
	if len(parts) > 2 {
		return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
	}

	whole := int64(0)
	if parts[0] != "" {
		w, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
		}
		whole = w
	}

	fractionalMinor := int64(0)
	if len(parts) == 2 {
		frac := parts[1]
		switch len(frac) {
		case 0:
			fractionalMinor = 0
		case 1:
			d, err := strconv.ParseInt(frac, 10, 64)
			if err != nil {
				return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
			}
			fractionalMinor = d * 10
		case 2:
			d, err := strconv.ParseInt(frac, 10, 64)
			if err != nil {
				return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
			}
			fractionalMinor = d
		default:
			return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
		}
	}

	total := whole*100 + fractionalMinor
	// Overflow check mirroring the original's checked_mul/checked_add.
	if whole != 0 && total/100 != whole {
		return 0, &IngestError{Kind: "invalid_amount", Line: line, Field: field, Value: input}
	}
	if negative {
		total = -total
	}
	return total, nil
}
