package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString(" 29.994 ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if m.String() != "29.99" {
		t.Fatalf("expected 29.99, got %s", m.String())
	}

	if _, err := NewMoneyFromString("abc"); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
	if _, err := NewMoneyFromString(""); err == nil {
		t.Fatalf("expected error for empty amount")
	}
}

func TestMoneyAdd(t *testing.T) {
	a := NewMoneyFromDecimal(decimal.NewFromFloat(10.005))
	b := NewMoneyFromDecimal(decimal.NewFromFloat(19.99))
	if got := a.Add(b).String(); got != "30.00" {
		t.Fatalf("expected 30.00, got %s", got)
	}
	if got := ZeroMoney().Add(ZeroMoney()).String(); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
}
