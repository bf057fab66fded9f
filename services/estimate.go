package services

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a line item position does not exist.
var ErrIndexOutOfRange = errors.New("line item index out of range")

// LineItem is one row of an estimate. UnitPrice and Amount are fixed when
// the item is added and never recomputed.
type LineItem struct {
	Process   string  `json:"process"`
	ItemName  string  `json:"item_name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	UnitPrice int64   `json:"unit_price"`
	Amount    int64   `json:"amount"`
	Note      string  `json:"note"`
}

// EstimateList is the ordered list of line items a user has added.
// Position is the only identity an item has. It is not safe for concurrent
// use; Session serializes access.
type EstimateList struct {
	items []LineItem
}

// NewLineItem prices entry with the given margin and quantity. A unit price
// or amount above MaxAmount yields ErrAmountTooLarge.
func NewLineItem(entry CatalogEntry, quantity, marginPercent float64, note string) (LineItem, error) {
	unitPrice, err := CheckedRoundWon(UnitPrice(entry.BasePrice, marginPercent))
	if err != nil {
		return LineItem{}, fmt.Errorf("unit price of %s: %w", entry.ItemName, err)
	}
	amount, err := LineAmount(quantity, unitPrice)
	if err != nil {
		return LineItem{}, fmt.Errorf("amount of %s: %w", entry.ItemName, err)
	}
	return LineItem{
		Process:   entry.Process,
		ItemName:  entry.ItemName,
		Unit:      entry.Unit,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    amount,
		Note:      note,
	}, nil
}

// Add prices entry and appends the resulting line item. The list is left
// unchanged if the item or the new subtotal would exceed MaxAmount.
func (l *EstimateList) Add(entry CatalogEntry, quantity, marginPercent float64, note string) (LineItem, error) {
	item, err := NewLineItem(entry, quantity, marginPercent, note)
	if err != nil {
		return LineItem{}, err
	}
	if subtotal := CalcSummary(l.items).Subtotal; item.Amount > MaxAmount-subtotal {
		return LineItem{}, fmt.Errorf("subtotal with %s: %w", entry.ItemName, ErrAmountTooLarge)
	}
	l.items = append(l.items, item)
	return item, nil
}

// RemoveAt deletes the item at index. Later items shift down by one.
func (l *EstimateList) RemoveAt(index int) (LineItem, error) {
	if index < 0 || index >= len(l.items) {
		return LineItem{}, fmt.Errorf("remove %d of %d: %w", index, len(l.items), ErrIndexOutOfRange)
	}
	removed := l.items[index]
	l.items = append(l.items[:index:index], l.items[index+1:]...)
	return removed, nil
}

func (l *EstimateList) Clear() {
	l.items = nil
}

func (l *EstimateList) Len() int {
	return len(l.items)
}

// Items returns a copy of the line items in display order.
func (l *EstimateList) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *EstimateList) Summary() Summary {
	return CalcSummary(l.items)
}
