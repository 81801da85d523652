package model

import "testing"

func TestCanCancel(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{StatusDraft, true},
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusPreparing, true},
		{StatusReady, true},
		{StatusDispatched, false},
		{StatusDelivered, false},
		{StatusCancelled, false},
		{StatusRejected, false},
	}
	for _, tt := range tests {
		o := &Order{Status: tt.status}
		if got := o.CanCancel(); got != tt.want {
			t.Errorf("CanCancel() in %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusGroups(t *testing.T) {
	tests := []struct {
		status    OrderStatus
		pending   bool
		confirmed bool
		completed bool
		cancelled bool
	}{
		{StatusDraft, true, false, false, false},
		{StatusPending, true, false, false, false},
		{StatusConfirmed, false, true, false, false},
		{StatusPreparing, false, true, false, false},
		{StatusReady, false, true, false, false},
		{StatusDispatched, false, true, false, false},
		{StatusDelivered, false, false, true, false},
		{StatusCancelled, false, false, false, true},
		{StatusRejected, false, false, false, true},
	}
	for _, tt := range tests {
		o := &Order{Status: tt.status}
		if o.IsPending() != tt.pending {
			t.Errorf("IsPending() in %s = %v, want %v", tt.status, o.IsPending(), tt.pending)
		}
		if o.IsConfirmed() != tt.confirmed {
			t.Errorf("IsConfirmed() in %s = %v, want %v", tt.status, o.IsConfirmed(), tt.confirmed)
		}
		if o.IsCompleted() != tt.completed {
			t.Errorf("IsCompleted() in %s = %v, want %v", tt.status, o.IsCompleted(), tt.completed)
		}
		if o.IsCancelled() != tt.cancelled {
			t.Errorf("IsCancelled() in %s = %v, want %v", tt.status, o.IsCancelled(), tt.cancelled)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range OrderStatuses {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if OrderStatus("shipped").Valid() {
		t.Error("shipped should not be valid")
	}
	if OrderStatus("").Valid() {
		t.Error("empty status should not be valid")
	}
}

func TestRecalculateTotals(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{QuantityRequested: 10, UnitPrice: 2.50, TaxRate: 5},
			{QuantityRequested: 3, UnitPrice: 5.00, TaxRate: 5},
		},
	}
	o.RecalculateTotals()

	if o.Subtotal != 40.00 {
		t.Errorf("Subtotal = %v, want 40.00", o.Subtotal)
	}
	if o.TaxAmount != 2.00 {
		t.Errorf("TaxAmount = %v, want 2.00", o.TaxAmount)
	}
	if o.TotalAmount != 42.00 {
		t.Errorf("TotalAmount = %v, want 42.00", o.TotalAmount)
	}
	if o.Items[0].LineTotal != 25.00 {
		t.Errorf("Items[0].LineTotal = %v, want 25.00", o.Items[0].LineTotal)
	}
	if o.Items[1].LineTotal != 15.00 {
		t.Errorf("Items[1].LineTotal = %v, want 15.00", o.Items[1].LineTotal)
	}
}

func TestRecalculateTotalsIdempotent(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{QuantityRequested: 7, UnitPrice: 1.99, TaxRate: 12.5},
			{QuantityRequested: 2, UnitPrice: 0.33, TaxRate: 0},
		},
	}
	o.RecalculateTotals()
	sub, tax, total := o.Subtotal, o.TaxAmount, o.TotalAmount

	o.RecalculateTotals()
	if o.Subtotal != sub || o.TaxAmount != tax || o.TotalAmount != total {
		t.Errorf("totals changed on second run: %v/%v/%v vs %v/%v/%v",
			o.Subtotal, o.TaxAmount, o.TotalAmount, sub, tax, total)
	}
}

func TestRecalculateTotalsRounding(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{QuantityRequested: 3, UnitPrice: 0.10, TaxRate: 7},
		},
	}
	o.RecalculateTotals()
	if o.Subtotal != 0.30 {
		t.Errorf("Subtotal = %v, want 0.30", o.Subtotal)
	}
	if o.TaxAmount != 0.02 {
		t.Errorf("TaxAmount = %v, want 0.02", o.TaxAmount)
	}
	if o.TotalAmount != 0.32 {
		t.Errorf("TotalAmount = %v, want 0.32", o.TotalAmount)
	}
}

func TestRecalculateTotalsEmpty(t *testing.T) {
	o := &Order{Subtotal: 99, TaxAmount: 9, TotalAmount: 108}
	o.RecalculateTotals()
	if o.Subtotal != 0 || o.TaxAmount != 0 || o.TotalAmount != 0 {
		t.Errorf("empty order should zero totals, got %v/%v/%v", o.Subtotal, o.TaxAmount, o.TotalAmount)
	}
}
