package bot

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/internal/batches"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

func TestParseHandle(t *testing.T) {
	handle, err := parseHandle(" @seller ")
	if err != nil {
		t.Fatalf("parseHandle returned error: %v", err)
	}
	if handle != "seller" {
		t.Fatalf("expected seller, got %q", handle)
	}

	if _, err := parseHandle("   "); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseBatchArg(t *testing.T) {
	id, err := parseBatchArg("1717171717171")
	if err != nil {
		t.Fatalf("parseBatchArg returned error: %v", err)
	}
	if id != 1717171717171 {
		t.Fatalf("unexpected id %d", id)
	}

	id, err = parseBatchArg("ALL")
	if err != nil {
		t.Fatalf("parseBatchArg(all) returned error: %v", err)
	}
	if id != batches.AllUnpriced {
		t.Fatalf("expected the all sentinel, got %d", id)
	}

	for _, bad := range []string{"", "abc", "-5", "0"} {
		if _, err := parseBatchArg(bad); !apperrors.IsCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount(" 7.50 ")
	if err != nil {
		t.Fatalf("parseAmount returned error: %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unexpected amount %s", amount)
	}

	for _, bad := range []string{"", "abc", "0", "-1"} {
		if _, err := parseAmount(bad); !apperrors.IsCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestSplitArgs(t *testing.T) {
	got := splitArgs("@seller 12345 some long note", 3)
	want := []string{"@seller", "12345", "some long note"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = splitArgs("@seller", 3)
	if !reflect.DeepEqual(got, []string{"@seller"}) {
		t.Fatalf("unexpected short split %v", got)
	}

	if got := splitArgs("   ", 2); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("CODE-ONE\n\n  CODE-TWO  \nCODE-THREE")
	want := []string{"CODE-ONE", "CODE-TWO", "CODE-THREE"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
