package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_SetQuantityBelowOneRemovesLine(t *testing.T) {
	cart := Cart{}
	cart.Upsert(CartLine{ProductID: "p1", Name: "Harina", UnitPrice: 150, Quantity: 2})
	cart.Upsert(CartLine{ProductID: "p2", Name: "Arroz", UnitPrice: 120, Quantity: 1})
	assert.Equal(t, Cents(420), cart.Subtotal())

	cart.SetQuantity("p1", 0)
	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, Cents(120), cart.Subtotal(), "subtotal recomputed without the removed line")

	cart.SetQuantity("p2", -3)
	assert.True(t, cart.IsEmpty())
}

func TestCart_UpsertAccumulatesQuantity(t *testing.T) {
	cart := Cart{}
	cart.Upsert(CartLine{ProductID: "p1", UnitPrice: 150, Quantity: 1})
	cart.Upsert(CartLine{ProductID: "p1", UnitPrice: 150, Quantity: 2})

	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
}

func TestSession_ForwardGuards(t *testing.T) {
	session := &Session{ID: "s1", Stage: StageProductSelection}

	err := session.Advance(Snapshot{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	session.Cart.Upsert(CartLine{ProductID: "p1", UnitPrice: 1000, Quantity: 1})
	assert.NoError(t, session.Advance(Snapshot{}))
	assert.Equal(t, StageCustomerSelection, session.Stage)

	err = session.Advance(Snapshot{})
	assert.ErrorIs(t, err, ErrNoCustomer)

	session.CustomerID = "walk-in"
	assert.NoError(t, session.Advance(Snapshot{}))
	assert.Equal(t, StagePayment, session.Stage)

	err = session.Advance(Snapshot{Subtotal: 1000, TotalPaid: 400, Balance: 600})
	assert.ErrorIs(t, err, ErrNotPayable)

	assert.NoError(t, session.Advance(Snapshot{Subtotal: 1000, TotalPaid: 1000}))
	assert.Equal(t, StageCompleted, session.Stage)

	err = session.Advance(Snapshot{})
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestSession_BackPreservesData(t *testing.T) {
	session := &Session{
		Stage:      StagePayment,
		CustomerID: "c1",
		Payments:   []Payment{{MethodID: "cash-usd", Amount: 500}},
	}
	session.Cart.Upsert(CartLine{ProductID: "p1", UnitPrice: 100, Quantity: 1})

	assert.NoError(t, session.Back())
	assert.Equal(t, StageCustomerSelection, session.Stage)
	assert.NoError(t, session.Back())
	assert.Equal(t, StageProductSelection, session.Stage)
	assert.NoError(t, session.Back(), "backing out of the first stage is a no-op")
	assert.Equal(t, StageProductSelection, session.Stage)

	assert.Equal(t, "c1", session.CustomerID)
	assert.Len(t, session.Payments, 1)
	assert.False(t, session.Cart.IsEmpty())
}

func TestSession_BackFromCompletedIsRejected(t *testing.T) {
	session := &Session{Stage: StageCompleted}
	assert.ErrorIs(t, session.Back(), ErrSessionCompleted)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "product_selection", StageProductSelection.String())
	assert.Equal(t, "customer_selection", StageCustomerSelection.String())
	assert.Equal(t, "payment", StagePayment.String())
	assert.Equal(t, "completed", StageCompleted.String())
}
