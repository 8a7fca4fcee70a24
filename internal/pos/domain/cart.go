package domain

// CartLine is one product row in the checkout cart. UnitPrice is a snapshot
// of the product price in reference currency at the moment the line was added.
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice Cents  `json:"unit_price_cents"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Total() Cents {
	return l.UnitPrice * Cents(l.Quantity)
}

// Cart holds the lines of an in-progress checkout session.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Upsert adds quantity to an existing line or appends a new one.
func (c *Cart) Upsert(line CartLine) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity replaces the quantity of a line. Any quantity below 1 removes
// the line instead of storing a non-positive quantity.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity < 1 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Subtotal() Cents {
	var total Cents
	for _, line := range c.Lines {
		total += line.Total()
	}
	return total
}

// Payment is one tendered amount, denominated in the currency of its method.
// Several payments may reference the same method.
type Payment struct {
	MethodID string `json:"method_id"`
	Amount   Cents  `json:"amount_cents"`
}

// ChangePayment is change handed back to the customer through a
// change-capable method, denominated in the currency of that method.
type ChangePayment struct {
	MethodID string `json:"method_id"`
	Amount   Cents  `json:"amount_cents"`
}
