package counter

import (
	"context"
	"errors"
)

// MockOrderWriter implements OrderWriter for testing.
type MockOrderWriter struct {
	CreateOrderFunc func(ctx context.Context, payload CreateOrderRequest) (*OrderReceipt, error)
	AppendItemsFunc func(ctx context.Context, orderID int64, payload AppendItemsRequest) (*OrderReceipt, error)

	CreateCalls []CreateOrderRequest
	AppendCalls []int64
}

func (m *MockOrderWriter) CreateOrder(ctx context.Context, payload CreateOrderRequest) (*OrderReceipt, error) {
	m.CreateCalls = append(m.CreateCalls, payload)
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, payload)
	}
	return nil, errors.New("not implemented")
}

func (m *MockOrderWriter) AppendItems(ctx context.Context, orderID int64, payload AppendItemsRequest) (*OrderReceipt, error) {
	m.AppendCalls = append(m.AppendCalls, orderID)
	if m.AppendItemsFunc != nil {
		return m.AppendItemsFunc(ctx, orderID, payload)
	}
	return nil, errors.New("not implemented")
}
