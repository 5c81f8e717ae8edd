package bot

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/internal/batches"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// parseHandle strips the leading @ from a handle argument.
func parseHandle(arg string) (string, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(arg), "@")
	if handle == "" {
		return "", apperrors.New(apperrors.CodeValidation, "a @handle is required")
	}
	return handle, nil
}

// parseBatchArg reads a batch id argument; "all" targets every unpriced
// batch the user has.
func parseBatchArg(arg string) (int64, error) {
	arg = strings.TrimSpace(arg)
	if strings.EqualFold(arg, "all") {
		return batches.AllUnpriced, nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "batch must be a positive number or \"all\"")
	}
	return id, nil
}

// parseAmount reads a positive money amount.
func parseAmount(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(arg))
	if err != nil {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "amount must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	return amount, nil
}

// splitArgs splits a command argument string into at most n fields, the
// last field keeping its internal whitespace.
func splitArgs(args string, n int) []string {
	fields := strings.Fields(args)
	if n <= 0 || len(fields) <= n {
		return fields
	}
	out := make([]string, 0, n)
	out = append(out, fields[:n-1]...)
	out = append(out, strings.Join(fields[n-1:], " "))
	return out
}
