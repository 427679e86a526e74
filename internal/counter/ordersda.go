package counter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobaclub/counter/internal/apiclient"
)

// OrderItemPayload is one cart line as the order service accepts it.
type OrderItemPayload struct {
	MenuID    int64  `json:"menu_id"`
	SizeID    int64  `json:"size_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Note      string `json:"note,omitempty"`
}

// CreateOrderRequest opens a new order on a table.
type CreateOrderRequest struct {
	TableID int64              `json:"table_id"`
	Items   []OrderItemPayload `json:"items"`
}

// AppendItemsRequest adds items to an order that is already open.
type AppendItemsRequest struct {
	Items []OrderItemPayload `json:"items"`
}

// OrderReceipt mirrors the order aggregate returned by the order
// service.
type OrderReceipt struct {
	ID         int64     `json:"id"`
	TableID    int64     `json:"table_id"`
	Status     string    `json:"status"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderDataAccess centralizes decoding of order service responses.
type OrderDataAccess struct {
	client *apiclient.Client
}

var _ OrderWriter = (*OrderDataAccess)(nil)

func NewOrderDataAccess(client *apiclient.Client) *OrderDataAccess {
	return &OrderDataAccess{client: client}
}

func (da *OrderDataAccess) CreateOrder(ctx context.Context, payload CreateOrderRequest) (*OrderReceipt, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	env, err := da.client.Create(ctx, "orders", payload)
	if err != nil {
		return nil, err
	}

	var receipt OrderReceipt
	if err := env.DecodeData(&receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (da *OrderDataAccess) AppendItems(ctx context.Context, orderID int64, payload AppendItemsRequest) (*OrderReceipt, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}
	if orderID <= 0 {
		return nil, fmt.Errorf("missing order id")
	}

	path := fmt.Sprintf("/orders/%d/items", orderID)
	env, err := da.client.Do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var receipt OrderReceipt
	if err := env.DecodeData(&receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (da *OrderDataAccess) GetOrder(ctx context.Context, orderID int64) (*OrderReceipt, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	env, err := da.client.Get(ctx, "orders", fmt.Sprintf("%d", orderID))
	if err != nil {
		return nil, err
	}

	var receipt OrderReceipt
	if err := env.DecodeData(&receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListOpenOrders feeds the status screen and the append-mode picker.
func (da *OrderDataAccess) ListOpenOrders(ctx context.Context) ([]OrderReceipt, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	env, err := da.client.Do(ctx, http.MethodGet, "/orders?status=open", nil)
	if err != nil {
		return nil, err
	}

	var orders []OrderReceipt
	if err := env.DecodeData(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}
