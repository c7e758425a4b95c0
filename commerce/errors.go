package commerce

import (
	"errors"
	"fmt"
)

// Domain failures. The tool layer renders these as conversational text;
// they never cross the state machine as raw errors.
var ErrNoPendingOrder = errors.New("no pending order found")

type ProductNotFoundError struct {
	Query string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.Query)
}

type SizeUnavailableError struct {
	Product string
	Size    string
}

func (e *SizeUnavailableError) Error() string {
	return fmt.Sprintf("size %q not available for %q", e.Size, e.Product)
}

type InsufficientStockError struct {
	Product   string
	Size      string
	Requested int
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, only %d left",
		e.Product, e.Size, e.Requested, e.Remaining)
}
