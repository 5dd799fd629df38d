package services

import (
	"strings"
	"testing"
)

func TestOptimizeBudget(t *testing.T) {
	p := OptimizeBudget(d("4000"), DefaultFoodBudget, d("97.1"))

	want := []struct {
		category string
		amount   string
	}{
		{BudgetGroceries, "200"},
		{BudgetDiningOut, "80"},
		{BudgetTransport, "120"},
		{BudgetEntertainment, "80"},
		{BudgetSavings, "600"},
	}
	if len(p.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(p.Lines))
	}
	for i, w := range want {
		if p.Lines[i].Category != w.category || !p.Lines[i].Amount.Equal(d(w.amount)) {
			t.Errorf("line %d = %+v, want %s %s", i, p.Lines[i], w.category, w.amount)
		}
	}

	wantAck := "New budget applied! You're now on track to save **$600/month** (97% rate)"
	if p.Acknowledgment != wantAck {
		t.Errorf("Acknowledgment = %q, want %q", p.Acknowledgment, wantAck)
	}
}

func TestOptimizeBudget_SavingsIsFifteenPercent(t *testing.T) {
	for _, income := range []string{"1", "2000", "4000", "4321.55", "100000"} {
		p := OptimizeBudget(d(income), DefaultFoodBudget, d("0"))
		want := d(income).Mul(d("0.15"))
		if !p.Amount(BudgetSavings).Equal(want) {
			t.Errorf("income %s: savings = %s, want %s", income, p.Amount(BudgetSavings), want)
		}
		if !p.SavingsTarget.Equal(want) {
			t.Errorf("income %s: target = %s, want %s", income, p.SavingsTarget, want)
		}
	}
}

func TestOptimizeBudget_NonPositiveIncome(t *testing.T) {
	tests := []struct {
		income  string
		savings string
		ack     string
	}{
		{"0", "0", "**$0/month**"},
		{"-1000", "-150", "**$-150/month**"},
	}
	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			p := OptimizeBudget(d(tt.income), DefaultFoodBudget, d("0"))
			if got := p.Amount(BudgetSavings); !got.Equal(d(tt.savings)) {
				t.Errorf("savings = %s, want %s", got, tt.savings)
			}
			if !p.SavingsTarget.Equal(d(tt.savings)) {
				t.Errorf("SavingsTarget = %s, want %s", p.SavingsTarget, tt.savings)
			}
			if !strings.Contains(p.Acknowledgment, tt.ack) {
				t.Errorf("ack = %q, want containing %q", p.Acknowledgment, tt.ack)
			}
		})
	}
	if !OptimizeBudget(d("0"), DefaultFoodBudget, d("0")).Amount("Unknown").IsZero() {
		t.Error("unknown category should be zero")
	}
}
