package adminsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListOptions are the paging and search parameters every admin list
// endpoint accepts. Zero values are omitted from the query.
type ListOptions struct {
	Page   int
	Limit  int
	Search string
	Status string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Resource is typed CRUD access to one admin collection. All calls go
// through the authenticated pipeline.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds a collection path such as "/admin/orders".
func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{client: c, path: path}
}

// Path returns the collection path.
func (r Resource[T]) Path() string { return r.path }

func (r Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r Resource[T]) List(ctx context.Context, opts ListOptions) (*Page[T], error) {
	req := Request{Method: http.MethodGet, Path: r.path, Query: opts.query()}

	var page Page[T]
	if err := r.client.doRequestJSON(ctx, req, &page, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.path, err)
	}
	return &page, nil
}

func (r Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.client.doJSON(ctx, http.MethodGet, r.item(id), nil, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("get %s: %w", r.item(id), err)
	}
	return &out, nil
}

func (r Resource[T]) Create(ctx context.Context, v T) (*T, error) {
	var out T
	if err := r.client.doJSON(ctx, http.MethodPost, r.path, v, &out, http.StatusCreated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("create %s: %w", r.path, err)
	}
	return &out, nil
}

func (r Resource[T]) Update(ctx context.Context, id string, v T) (*T, error) {
	var out T
	if err := r.client.doJSON(ctx, http.MethodPut, r.item(id), v, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("update %s: %w", r.item(id), err)
	}
	return &out, nil
}

func (r Resource[T]) Delete(ctx context.Context, id string) error {
	resp, err := r.client.Do(ctx, Request{Method: http.MethodDelete, Path: r.item(id)})
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.item(id), err)
	}
	if err := checkStatus(resp, http.StatusNoContent, http.StatusOK); err != nil {
		return fmt.Errorf("delete %s: %w", r.item(id), err)
	}
	return nil
}

// Collections of the marketplace admin API.

func (c *Client) Orders() Resource[Order] { return NewResource[Order](c, "/admin/orders") }

func (c *Client) Merchants() Resource[Merchant] { return NewResource[Merchant](c, "/admin/merchants") }

func (c *Client) DeliveryAgents() Resource[DeliveryAgent] {
	return NewResource[DeliveryAgent](c, "/admin/delivery-agents")
}

func (c *Client) Customers() Resource[Customer] { return NewResource[Customer](c, "/admin/customers") }

func (c *Client) Promotions() Resource[Promotion] {
	return NewResource[Promotion](c, "/admin/promotions")
}

func (c *Client) Subscriptions() Resource[Subscription] {
	return NewResource[Subscription](c, "/admin/subscriptions")
}
