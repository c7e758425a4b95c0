package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/apparelbot/concierge/agent/contract"
	"github.com/apparelbot/concierge/commerce"
)

// NewSalesTools builds the order-mutating tools. The executor injects the
// session identifier into every invocation; the model never supplies it.
func NewSalesTools(orders *commerce.OrderService) []*Tool {
	return []*Tool{
		{
			Name:     ToolCreateDraftOrder,
			Mutating: true,
			Info: &schema.ToolInfo{
				Name: ToolCreateDraftOrder,
				Desc: "Add an item to the customer's draft order.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"product_name": {Type: schema.String, Desc: "Product name, partial names are fine", Required: true},
					"size":         {Type: schema.String, Desc: "Size label, e.g. S, M, L", Required: true},
					"quantity":     {Type: schema.Integer, Desc: "Units to add", Required: true},
				}),
			},
			Run: func(ctx context.Context, inv Invocation) (string, error) {
				args, err := decodeArgs[struct {
					ProductName string `json:"product_name"`
					Size        string `json:"size"`
					Quantity    int    `json:"quantity"`
				}](inv.Args)
				if err != nil {
					return "", err
				}
				name, err := requireString(args.ProductName, "product_name")
				if err != nil {
					return "", err
				}
				size, err := requireString(args.Size, "size")
				if err != nil {
					return "", err
				}
				if args.Quantity <= 0 {
					return "Error: quantity must be a positive number.", nil
				}

				result, err := orders.AddItem(ctx, inv.SessionID, name, size, args.Quantity)
				if err != nil {
					return renderOrderFailure(err)
				}
				return fmt.Sprintf("SUCCESS: Added %dx %s (%s). Total: %s. Ask for delivery details.",
					result.Quantity, result.ProductName, result.Size, formatAmount(result.OrderTotal)), nil
			},
		},
		{
			Name:     ToolConfirmOrder,
			Mutating: true,
			Info: &schema.ToolInfo{
				Name: ToolConfirmOrder,
				Desc: "Confirm the draft order with the customer's name, address, and phone.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"customer_name": {Type: schema.String, Desc: "Customer's full name", Required: true},
					"address":       {Type: schema.String, Desc: "Shipping address", Required: true},
					"phone":         {Type: schema.String, Desc: "Contact phone number", Required: true},
				}),
			},
			Run: func(ctx context.Context, inv Invocation) (string, error) {
				args, err := decodeArgs[struct {
					CustomerName string `json:"customer_name"`
					Address      string `json:"address"`
					Phone        string `json:"phone"`
				}](inv.Args)
				if err != nil {
					return "", err
				}
				name, err := requireString(args.CustomerName, "customer_name")
				if err != nil {
					return "", err
				}
				address, err := requireString(args.Address, "address")
				if err != nil {
					return "", err
				}
				phone, err := requireString(args.Phone, "phone")
				if err != nil {
					return "", err
				}

				order, err := orders.Confirm(ctx, inv.SessionID, name, address, phone)
				if err != nil {
					return renderOrderFailure(err)
				}
				return fmt.Sprintf("COD_SUCCESS: Order %s confirmed. Total: %s.",
					order.OrderID, formatAmount(order.TotalAmount)), nil
			},
		},
		{
			Name:     ToolRestockNotify,
			Mutating: true,
			Info: &schema.ToolInfo{
				Name: ToolRestockNotify,
				Desc: "Subscribe the customer for a restock notification. Requires a real email address, never a placeholder.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"product_name": {Type: schema.String, Desc: "Product to watch", Required: true},
					"email":        {Type: schema.String, Desc: "Customer's email address", Required: true},
					"size":         {Type: schema.String, Desc: "Size to watch", Required: true},
				}),
			},
			Run: func(ctx context.Context, inv Invocation) (string, error) {
				args, err := decodeArgs[struct {
					ProductName string `json:"product_name"`
					Email       string `json:"email"`
					Size        string `json:"size"`
				}](inv.Args)
				if err != nil {
					return "", err
				}
				name, err := requireString(args.ProductName, "product_name")
				if err != nil {
					return "", err
				}
				email, err := requireString(args.Email, "email")
				if err != nil {
					return "Error: a real email address is required before subscribing.", nil
				}

				if _, err := orders.SubscribeRestock(ctx, name, email, args.Size); err != nil {
					return renderOrderFailure(err)
				}
				return fmt.Sprintf("SUCCESS: %s will be notified when %s (%s) is back in stock.",
					email, name, args.Size), nil
			},
		},
	}
}

// renderOrderFailure converts domain failures into conversational
// observations the sales worker can relay; unexpected errors pass through
// for the executor to stringify.
func renderOrderFailure(err error) (string, error) {
	var notFound *commerce.ProductNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("Error: Product '%s' not found.", notFound.Query), nil
	}
	var noSize *commerce.SizeUnavailableError
	if errors.As(err, &noSize) {
		return fmt.Sprintf("Error: Size '%s' is not available for %s.", noSize.Size, noSize.Product), nil
	}
	var noStock *commerce.InsufficientStockError
	if errors.As(err, &noStock) {
		return fmt.Sprintf("Error: Not enough stock for %s (%s): only %d left.",
			noStock.Product, noStock.Size, noStock.Remaining), nil
	}
	if errors.Is(err, commerce.ErrNoPendingOrder) {
		return "Error: No pending order found to confirm. Please add items first.", nil
	}
	if errors.Is(err, contractx.ErrTransientStorage) {
		return "Error: The system is busy right now, please try again in a moment.", nil
	}
	return "", err
}
