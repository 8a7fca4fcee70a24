package domain

// LedgerInput is everything the checkout ledger needs to settle a sale:
// the cart, the single exchange rate that applies to the whole checkout,
// the method catalog and the tendered payments and change payments.
type LedgerInput struct {
	Lines          []CartLine
	Rate           float64
	Methods        map[string]PaymentMethod
	Payments       []Payment
	ChangePayments []ChangePayment
}

// Snapshot is the derived state of a checkout at one point in time. It is
// recomputed from scratch on every mutation; nothing in it is cached.
type Snapshot struct {
	Subtotal         Cents `json:"subtotal_cents"`
	TotalPaid        Cents `json:"total_paid_cents"`
	Balance          Cents `json:"balance_cents"`
	ChangeToGive     Cents `json:"change_to_give_cents"`
	TotalChangeGiven Cents `json:"total_change_given_cents"`
	RemainingChange  Cents `json:"remaining_change_cents"`
	// RateMissing reports that at least one secondary-currency amount could
	// not be normalized because no usable exchange rate exists. Such amounts
	// contribute zero and the sale cannot complete until a rate is set.
	RateMissing bool `json:"rate_missing"`
}

// ComputeSnapshot settles the checkout ledger. It is a pure function of its
// input: identical inputs always produce identical snapshots and no error is
// ever raised. Unpayable states are ordinary positive balances.
func ComputeSnapshot(in LedgerInput) Snapshot {
	var snap Snapshot

	for _, line := range in.Lines {
		snap.Subtotal += line.Total()
	}

	for _, p := range in.Payments {
		contributed, missing := normalizePayment(p.MethodID, p.Amount, in)
		snap.TotalPaid += contributed
		snap.RateMissing = snap.RateMissing || missing
	}

	snap.Balance = snap.Subtotal - snap.TotalPaid
	if snap.Balance < 0 {
		snap.ChangeToGive = -snap.Balance
	}

	for _, cp := range in.ChangePayments {
		contributed, missing := normalizePayment(cp.MethodID, cp.Amount, in)
		snap.TotalChangeGiven += contributed
		snap.RateMissing = snap.RateMissing || missing
	}

	snap.RemainingChange = snap.ChangeToGive - snap.TotalChangeGiven
	return snap
}

// normalizePayment converts one tendered amount to reference cents using the
// currency of its method. Amounts that cannot be normalized (unknown method,
// no usable rate for a secondary amount) contribute zero.
func normalizePayment(methodID string, amount Cents, in LedgerInput) (Cents, bool) {
	method, ok := in.Methods[methodID]
	if !ok {
		return 0, false
	}
	normalized, err := NormalizeToReference(amount, method.Currency, in.Rate)
	if err != nil {
		return 0, true
	}
	return normalized, false
}

// CanComplete reports whether the sale may be finalized: fully paid, all
// change owed accounted for, and nothing blocked on a missing rate. Amounts
// are integer cents, so the comparisons are exact.
func (s Snapshot) CanComplete() bool {
	return s.Balance <= 0 && s.RemainingChange == 0 && !s.RateMissing
}
