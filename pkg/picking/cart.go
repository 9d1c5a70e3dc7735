package picking

import (
	"Smart-Picking/domain"
)

// PickItem is a verified product+location pair with its confirmed quantity.
type PickItem struct {
	Barcode          string
	DisplayName      string
	ExpectedLocation string
	ScannedLocation  string
	Quantity         int
}

// Cart keeps the verified items of one order in pick order. The same barcode may be
// added more than once; each add is a distinct pick.
type Cart struct {
	items []PickItem
}

func (c *Cart) Add(item PickItem) error {
	if item.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	c.items = append(c.items, item)
	return nil
}

func (c *Cart) Remove(index int) (PickItem, error) {
	if index < 0 || index >= len(c.items) {
		return PickItem{}, domain.ErrCartItemNotFound
	}
	item := c.items[index]
	c.items = append(c.items[:index], c.items[index+1:]...)
	return item, nil
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Count() int {
	return len(c.items)
}

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []PickItem {
	out := make([]PickItem, len(c.items))
	copy(out, c.items)
	return out
}
