package model

// MaxLineQuantity caps the quantity of a single line.
const MaxLineQuantity = 99

// CartLine is one cart entry: a product snapshot and a quantity >= 1.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l CartLine) Subtotal() int64 { return l.Product.Price * int64(l.Quantity) }

// Savings is (originalPrice - price) * quantity, or 0 when no original price is set.
func (l CartLine) Savings() int64 {
	if l.Product.OriginalPrice == nil {
		return 0
	}
	return (*l.Product.OriginalPrice - l.Product.Price) * int64(l.Quantity)
}

// Cart is an ordered set of lines, unique by product id.
// Totals are always derived from the lines; nothing is cached.
type Cart struct {
	lines []CartLine
}

// NewCart rebuilds a cart from persisted lines, enforcing the line invariants:
// lines with quantity < 1 are dropped, duplicate ids are merged into the first occurrence
// and quantities are capped at MaxLineQuantity.
func NewCart(lines []CartLine) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.Quantity < 1 || l.Product.ID == "" {
			continue
		}
		if i := c.index(l.Product.ID); i >= 0 {
			c.lines[i].Quantity = min(c.lines[i].Quantity+l.Quantity, MaxLineQuantity)
			continue
		}
		l.Quantity = min(l.Quantity, MaxLineQuantity)
		c.lines = append(c.lines, l)
	}
	return c
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add increments the line for p.ID, or appends a new line with quantity 1.
// A line already at MaxLineQuantity stays there. It returns the resulting quantity.
func (c *Cart) Add(p Product) int {
	if i := c.index(p.ID); i >= 0 {
		if c.lines[i].Quantity < MaxLineQuantity {
			c.lines[i].Quantity++
		}
		return c.lines[i].Quantity
	}
	c.lines = append(c.lines, CartLine{Product: p, Quantity: 1})
	return 1
}

// Remove deletes the line for productID and reports whether one existed.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// SetQuantity sets the quantity of an existing line. A quantity below 1 removes the line,
// one above MaxLineQuantity is capped. It reports whether the cart changed.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	if quantity < 1 {
		return c.Remove(productID)
	}
	quantity = min(quantity, MaxLineQuantity)
	i := c.index(productID)
	if i < 0 || c.lines[i].Quantity == quantity {
		return false
	}
	c.lines[i].Quantity = quantity
	return true
}

func (c *Cart) Clear() { c.lines = nil }

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Line(productID string) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Count() int { return CountOf(c.lines) }

func (c *Cart) Total() int64 { return TotalOf(c.lines) }

func (c *Cart) Savings() int64 { return SavingsOf(c.lines) }

func CountOf(lines []CartLine) int {
	var n int
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func TotalOf(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

func SavingsOf(lines []CartLine) int64 {
	var s int64
	for _, l := range lines {
		s += l.Savings()
	}
	return s
}
