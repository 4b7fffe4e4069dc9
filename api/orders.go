package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"bookstore-cli/model"
)

// CreateOrder submits the selected-for-checkout set.
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (model.OrderConfirmation, error) {
	rec, err := c.getRecord(ctx, http.MethodPost, "/orders", nil, req)
	if err != nil {
		return model.OrderConfirmation{}, err
	}
	return model.OrderConfirmationFromRecord(rec), nil
}

// ListOrders lists orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, page, size int, status *int) (model.OrderPage, error) {
	q := pageQuery(page, size)
	if status != nil {
		q.Set("status", strconv.Itoa(*status))
	}
	recs, p, err := c.getList(ctx, "/orders", q)
	if err != nil {
		return model.OrderPage{}, err
	}
	return model.OrderPage{Page: p, Orders: model.NormalizeOrders(recs)}, nil
}

// GetOrder fetches one order by number.
func (c *Client) GetOrder(ctx context.Context, orderNo string) (model.OrderDetail, error) {
	rec, err := c.getRecord(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderNo), nil, nil)
	if err != nil {
		return model.OrderDetail{}, err
	}
	d := model.OrderDetailFromRecord(rec)
	if d.OrderNo == "" {
		d.OrderNo = orderNo
	}
	return d, nil
}

// CancelOrder cancels an unpaid order.
func (c *Client) CancelOrder(ctx context.Context, orderNo string) error {
	return c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderNo)+"/cancel", nil, nil, nil)
}
