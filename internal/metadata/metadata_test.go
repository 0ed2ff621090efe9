package metadata

import (
	"testing"

	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

func TestInsertGetRoundTrip(t *testing.T) {
	s := New()
	Insert(s, PrimeModulo{Prime: DefaultPrime()})
	got, ok := Get[PrimeModulo](s)
	if !ok {
		t.Fatal("expected PrimeModulo to be present")
	}
	if got.Prime.Cmp(DefaultPrime()) != 0 {
		t.Errorf("prime mismatch: got %s", got.Prime)
	}
}

func TestGetMissingReturnsZeroValue(t *testing.T) {
	s := New()
	got, ok := Get[GasCosts](s)
	if ok {
		t.Fatal("expected GasCosts to be absent")
	}
	if got.ByStatement != nil {
		t.Errorf("expected zero value, got %#v", got)
	}
}

func TestDefaultPrime(t *testing.T) {
	// P = 2^251 + 17*2^192 + 1, the canonical STARK field prime.
	want := "3618502788666131213697322783095070105623107215331596699973092056135872020481"
	if got := DefaultPrime().String(); got != want {
		t.Errorf("DefaultPrime() = %s, want %s", got, want)
	}
}

func TestGasCostsCostOf(t *testing.T) {
	g := GasCosts{ByStatement: map[sierra.StatementIdx]uint64{5: 100}}
	if g.CostOf(5) != 100 {
		t.Errorf("CostOf(5) = %d, want 100", g.CostOf(5))
	}
	if g.CostOf(6) != 0 {
		t.Errorf("CostOf(6) = %d, want 0 (unmetered default)", g.CostOf(6))
	}
}

func TestDefaultRuntimeSymbolsAreFixed(t *testing.T) {
	rt := DefaultRuntimeSymbols()
	if rt.Pedersen != "cairo_native__libfunc__pedersen" {
		t.Errorf("Pedersen symbol = %s", rt.Pedersen)
	}
	if rt.FeltInverse == "" {
		t.Error("FeltInverse symbol must not be empty")
	}
}
