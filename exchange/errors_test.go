package exchange

import (
	"errors"
	"testing"
)

func TestClassifyTransient(t *testing.T) {
	err := Classify("get_price", errors.New("read tcp: i/o timeout"))
	if err.Kind != KindTransient {
		t.Errorf("Kind = %v, want transient", err.Kind)
	}
}

func TestClassifyAuth(t *testing.T) {
	err := Classify("get_balance", errors.New("Signature for this request is not valid."))
	if err.Kind != KindAuth {
		t.Errorf("Kind = %v, want auth", err.Kind)
	}
}

func TestClassifyBadSymbol(t *testing.T) {
	err := Classify("get_klines", errors.New("Invalid symbol."))
	if err.Kind != KindBadSymbol {
		t.Errorf("Kind = %v, want bad_symbol", err.Kind)
	}
}

func TestClassifyFilterReject(t *testing.T) {
	err := Classify("market_order", errors.New("Filter failure: LOT_SIZE"))
	if err.Kind != KindFilterReject {
		t.Errorf("Kind = %v, want filter_reject", err.Kind)
	}
}

func TestClassifyPreservesAlreadyClassified(t *testing.T) {
	original := &Error{Kind: KindOverAllocation, Op: "allocate", Err: errors.New("boom")}
	got := Classify("allocate", original)
	if got != original {
		t.Errorf("expected Classify to pass through an already-classified error unchanged")
	}
}

func TestClassifyUnknownDefaultsToUnknown(t *testing.T) {
	err := Classify("get_price", errors.New("something weird happened"))
	if err.Kind != KindUnknown {
		t.Errorf("Kind = %v, want unknown", err.Kind)
	}
}
