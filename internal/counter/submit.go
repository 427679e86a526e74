package counter

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/aquamarinepk/aqm"

	"github.com/bobaclub/counter/internal/apiclient"
)

// codeEmptyItems is the order service's "items list empty" rejection.
const codeEmptyItems = "E0036"

// itemScopedFields are the error fields that can be pinned to one
// cart line when the payload also identifies a (menu, size) pair.
var itemScopedFields = map[string]bool{
	"menu":     true,
	"size":     true,
	"quantity": true,
	"note":     true,
}

// SubmitErrorKind tags the three ways a rejected submission reaches
// the UI: a blocking alert, one annotated line, or several.
type SubmitErrorKind string

const (
	SubmitAlert      SubmitErrorKind = "alert"
	SubmitSingleItem SubmitErrorKind = "single-item"
	SubmitMultiItem  SubmitErrorKind = "multi-item"
)

// ItemError annotates one cart line with a resolved message.
type ItemError struct {
	MenuID  int64  `json:"menu_id"`
	SizeID  int64  `json:"size_id"`
	Message string `json:"message"`
}

// SubmitError is the decoded, tagged form of a rejected submission.
type SubmitError struct {
	Kind  SubmitErrorKind `json:"kind"`
	Alert string          `json:"alert,omitempty"`
	Items []ItemError     `json:"items"`
}

func (e *SubmitError) Error() string {
	if e.Alert != "" {
		return e.Alert
	}
	if len(e.Items) > 0 {
		return e.Items[0].Message
	}
	return GenericErrorMessage
}

// OrderWriter is the slice of OrderDataAccess the submitter needs.
type OrderWriter interface {
	CreateOrder(ctx context.Context, payload CreateOrderRequest) (*OrderReceipt, error)
	AppendItems(ctx context.Context, orderID int64, payload AppendItemsRequest) (*OrderReceipt, error)
}

// OrderSubmitter turns the cart snapshot into a create or append call
// and routes structured failures back to the right UI surface. Local
// preconditions are checked before any network call.
type OrderSubmitter struct {
	cart   *CartStore
	orders OrderWriter
	logger aqm.Logger
}

func NewOrderSubmitter(cart *CartStore, orders OrderWriter, logger aqm.Logger) *OrderSubmitter {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &OrderSubmitter{cart: cart, orders: orders, logger: logger}
}

// Submit sends the current cart. On success the cart is cleared and
// the receipt returned. Rejections come back as *SubmitError.
func (s *OrderSubmitter) Submit(ctx context.Context) (*OrderReceipt, error) {
	if s == nil || s.cart == nil || s.orders == nil {
		return nil, errors.New("submitter not configured")
	}

	snap := s.cart.Snapshot()
	if err := preflight(snap); err != nil {
		s.logger.Debug("submission refused locally", "reason", err.Alert)
		return nil, err
	}

	items := make([]OrderItemPayload, 0, len(snap.Items))
	for _, line := range snap.Items {
		items = append(items, OrderItemPayload{
			MenuID:    line.MenuID,
			SizeID:    line.SizeID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Note:      line.Note,
		})
	}

	var receipt *OrderReceipt
	var err error
	if snap.Mode == ModeAppend {
		receipt, err = s.orders.AppendItems(ctx, snap.TargetOrderID, AppendItemsRequest{Items: items})
	} else {
		receipt, err = s.orders.CreateOrder(ctx, CreateOrderRequest{TableID: snap.Table.ID, Items: items})
	}
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			return nil, decodeSubmitError(apiErr)
		}
		return nil, err
	}

	s.cart.Clear()
	s.logger.Info("order submitted", "order_id", receipt.ID, "mode", string(snap.Mode))
	return receipt, nil
}

// preflight enforces the local guards: a table, a non-empty cart,
// and a target order in append mode.
func preflight(snap CartSnapshot) *SubmitError {
	if snap.Table == nil {
		return &SubmitError{Kind: SubmitAlert, Alert: "Select a table before sending the order."}
	}
	if snap.Mode == ModeAppend && snap.TargetOrderID <= 0 {
		return &SubmitError{Kind: SubmitAlert, Alert: "Pick the order to add these items to."}
	}
	if len(snap.Items) == 0 {
		return &SubmitError{Kind: SubmitAlert, Alert: "The order has no items to send."}
	}
	return nil
}

// decodeSubmitError walks the error envelope once, at the boundary,
// and produces one of the three tagged variants. The envelope data
// maps error codes to field names, plus an optional meta entry that
// can pin the failure to one or several (menu, size) pairs.
func decodeSubmitError(apiErr *apiclient.APIError) *SubmitError {
	code, field := firstErrorCode(apiErr.Data)
	if code == "" {
		return &SubmitError{Kind: SubmitAlert, Alert: fallbackAlert(apiErr)}
	}

	message := Resolve(DomainOrder, code, field)

	if code == codeEmptyItems {
		return &SubmitError{Kind: SubmitMultiItem, Alert: message, Items: []ItemError{}}
	}

	meta, _ := apiErr.Data["meta"].(map[string]interface{})

	if pairs := metaItemPairs(meta); len(pairs) > 0 {
		itemErrs := make([]ItemError, 0, len(pairs))
		for _, p := range pairs {
			itemErrs = append(itemErrs, ItemError{MenuID: p.MenuID, SizeID: p.SizeID, Message: message})
		}
		return &SubmitError{Kind: SubmitMultiItem, Items: itemErrs}
	}

	if menuID, sizeID, ok := metaSinglePair(meta); ok && itemScopedFields[strings.ToLower(field)] {
		return &SubmitError{
			Kind:  SubmitSingleItem,
			Items: []ItemError{{MenuID: menuID, SizeID: sizeID, Message: message}},
		}
	}

	return &SubmitError{Kind: SubmitAlert, Alert: message}
}

// firstErrorCode picks the first applicable code key, skipping the
// meta entry. Keys are visited in sorted order so the choice is
// deterministic.
func firstErrorCode(data map[string]interface{}) (code, field string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "meta" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			return k, v
		case []interface{}:
			if len(v) > 0 {
				if f, ok := v[0].(string); ok {
					return k, f
				}
			}
			return k, ""
		}
	}
	return "", ""
}

type itemPair struct {
	MenuID int64
	SizeID int64
}

// metaSinglePair extracts meta: {menuId, sizeId}.
func metaSinglePair(meta map[string]interface{}) (menuID, sizeID int64, ok bool) {
	if meta == nil {
		return 0, 0, false
	}
	menuID, okMenu := metaInt(meta, "menuId")
	sizeID, okSize := metaInt(meta, "sizeId")
	if !okMenu || !okSize {
		return 0, 0, false
	}
	return menuID, sizeID, true
}

// metaItemPairs extracts meta: {items: [{menuId, sizeId}, ...]}.
func metaItemPairs(meta map[string]interface{}) []itemPair {
	if meta == nil {
		return nil
	}
	list, ok := meta["items"].([]interface{})
	if !ok {
		return nil
	}

	pairs := make([]itemPair, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		menuID, okMenu := metaInt(m, "menuId")
		sizeID, okSize := metaInt(m, "sizeId")
		if okMenu && okSize {
			pairs = append(pairs, itemPair{MenuID: menuID, SizeID: sizeID})
		}
	}
	return pairs
}

func metaInt(m map[string]interface{}, key string) (int64, bool) {
	switch v := m[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func fallbackAlert(apiErr *apiclient.APIError) string {
	if apiErr != nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericErrorMessage
}
