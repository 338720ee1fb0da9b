package solver

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$120,000", 120000, true},
		{"120000", 120000, true},
		{"1.5m", 1.5e6, true},
		{"250k", 250000, true},
		{"3 million", 3e6, true},
		{"40 thousand", 40000, true},
		{"$0.99", 0.99, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseAmount(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCorporateTaxRates(t *testing.T) {
	de := CorporateTax(500000, "DE")
	if de.Rate != 0.30 || de.Tax != 150000 || de.AfterTax != 350000 {
		t.Errorf("DE result = %+v", de)
	}

	blank := CorporateTax(100000, "")
	if blank.Jurisdiction != "US" || blank.Rate != 0.21 {
		t.Errorf("blank jurisdiction should default to US: %+v", blank)
	}

	unknown := CorporateTax(100000, "ZZ")
	if unknown.Jurisdiction != "US" {
		t.Errorf("unknown jurisdiction should default to US: %+v", unknown)
	}
}

func TestCorporateTaxExtraction(t *testing.T) {
	results := Dispatch("Estimate the corporate tax for income of $500,000 in Germany")

	out, ok := results["corporate_tax"].(CorporateTaxResult)
	if !ok {
		t.Fatalf("corporate_tax did not fire: %v", results)
	}
	if out.Jurisdiction != "DE" || out.TaxableIncome != 500000 {
		t.Errorf("result = %+v", out)
	}
}

func TestNPV(t *testing.T) {
	got := NPV(0.08, []float64{-1000, 500, 700, 900})
	if got.Value != 777.55 {
		t.Errorf("NPV = %v, want 777.55", got.Value)
	}

	flat := NPV(0, []float64{-1000, 500, 700})
	if flat.Value != 200 {
		t.Errorf("zero-rate NPV = %v, want 200", flat.Value)
	}

	empty := NPV(0.1, nil)
	if empty.Value != 0 {
		t.Errorf("empty NPV = %v, want 0", empty.Value)
	}
}

func TestNPVExtraction(t *testing.T) {
	results := Dispatch("What is the NPV with a discount rate of 8%, initial investment of 1000, and cash flows of 500, 700 and 900?")

	out, ok := results["npv"].(NPVResult)
	if !ok {
		t.Fatalf("npv did not fire: %v", results)
	}
	if out.Rate != 0.08 {
		t.Errorf("rate = %v, want 0.08", out.Rate)
	}
	if len(out.CashFlows) != 4 || out.CashFlows[0] != -1000 {
		t.Errorf("flows = %v", out.CashFlows)
	}
	if out.Value != 777.55 {
		t.Errorf("value = %v, want 777.55", out.Value)
	}
}

func TestIRRConverges(t *testing.T) {
	got := IRR([]float64{-1000, 500, 600})
	if !got.Converged {
		t.Fatal("IRR should converge for a standard investment profile")
	}
	if math.Abs(got.Rate-0.0639) > 0.001 {
		t.Errorf("rate = %v, want ~0.0639", got.Rate)
	}
}

func TestIRRWithoutSignChange(t *testing.T) {
	for _, flows := range [][]float64{
		{100, 200, 300},
		{-100, -200},
		{500},
		nil,
	} {
		got := IRR(flows)
		if got.Converged {
			t.Errorf("IRR(%v) should not converge", flows)
		}
	}
}

func TestIRRExtraction(t *testing.T) {
	results := Dispatch("Compute the IRR for an initial investment of 1000 with cash flows of 500 and 600")

	out, ok := results["irr"].(IRRResult)
	if !ok {
		t.Fatalf("irr did not fire: %v", results)
	}
	if !out.Converged || math.Abs(out.Rate-0.0639) > 0.001 {
		t.Errorf("result = %+v", out)
	}
}

func TestDepreciateStraightLine(t *testing.T) {
	got := Depreciate(120000, 20000, 5, MethodStraightLine)

	if got.AnnualExpense != 20000 {
		t.Errorf("annual = %v, want 20000", got.AnnualExpense)
	}
	if len(got.Schedule) != 5 {
		t.Fatalf("schedule length = %d", len(got.Schedule))
	}
	last := got.Schedule[4]
	if last.BookValue != 20000 || last.Accumulated != 100000 {
		t.Errorf("final year = %+v", last)
	}
}

func TestDepreciateDoubleDeclining(t *testing.T) {
	got := Depreciate(10000, 1000, 3, MethodDoubleDeclining)

	if got.Schedule[0].Expense != 6666.67 {
		t.Errorf("year 1 expense = %v, want 6666.67", got.Schedule[0].Expense)
	}
	last := got.Schedule[2]
	if last.BookValue != 1000 {
		t.Errorf("book value must land on salvage, got %v", last.BookValue)
	}
}

func TestDepreciateDegenerateInputs(t *testing.T) {
	zeroLife := Depreciate(5000, 0, 0, MethodStraightLine)
	if len(zeroLife.Schedule) != 0 {
		t.Errorf("zero life should yield empty schedule: %+v", zeroLife)
	}

	clamped := Depreciate(1000, 5000, 3, MethodStraightLine)
	if clamped.Salvage != 1000 {
		t.Errorf("salvage should clamp to cost, got %v", clamped.Salvage)
	}
	if clamped.Schedule[2].BookValue != 1000 {
		t.Errorf("book value = %v, want 1000", clamped.Schedule[2].BookValue)
	}
}

func TestAmortize(t *testing.T) {
	got := Amortize(300000, 0.06, 30)
	if got.MonthlyPayment != 1798.65 {
		t.Errorf("payment = %v, want 1798.65", got.MonthlyPayment)
	}
	if got.TotalInterest <= 0 {
		t.Errorf("interest = %v, want positive", got.TotalInterest)
	}

	zeroRate := Amortize(12000, 0, 4)
	if zeroRate.MonthlyPayment != 250 || zeroRate.TotalInterest != 0 {
		t.Errorf("zero-rate result = %+v", zeroRate)
	}

	degenerate := Amortize(1000, 0.05, 0)
	if degenerate.MonthlyPayment != 0 {
		t.Errorf("zero-term payment = %v, want 0", degenerate.MonthlyPayment)
	}
}
