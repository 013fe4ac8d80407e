package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"storefront/internal/model"
)

// Categories lists the catalogue categories. No credential is required.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	data, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/categories/getallcategories",
		fallback: "Failed to load categories",
	})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Category](data, "categories")
}

// Products lists every product. No credential is required.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	data, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/products/getallproducts",
		fallback: "Failed to load products",
	})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Product](data, "products")
}

// CreateOrder submits an order. Online orders answer with the gateway order handle.
func (c *Client) CreateOrder(ctx context.Context, token string, sub model.OrderSubmission) (model.PlacedOrder, error) {
	fallback := "Failed to create order"
	if sub.PaymentMethod == model.PaymentCOD {
		fallback = "COD order failed"
	}

	data, err := c.sendJSON(ctx, http.MethodPost, "/api/orders/createOrderByCustomer", token, sub, fallback)
	if err != nil {
		return model.PlacedOrder{}, err
	}

	var placed model.PlacedOrder
	if err := decodeData(data, &placed); err != nil {
		return model.PlacedOrder{}, err
	}
	return placed, nil
}

// VerifyPayment submits the gateway's success payload for server-side verification.
func (c *Client) VerifyPayment(ctx context.Context, token string, v model.PaymentVerification) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/api/razorpay/verify", token, v, "Payment failed. Please contact support.")
	return err
}

// Orders lists the signed-in customer's orders.
func (c *Client) Orders(ctx context.Context, token string) ([]model.Order, error) {
	data, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/orders/customer",
		token:    token,
		fallback: "Unable to load orders",
	})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Order](data, "orders")
}

// CancelOrder asks the backend to cancel an order.
func (c *Client) CancelOrder(ctx context.Context, token, orderID string) error {
	path := "/api/orders/" + url.PathEscape(orderID) + "/cancel-by-customer"
	_, err := c.sendJSON(ctx, http.MethodPost, path, token, nil, "Failed to cancel order")
	return err
}

// RequestReturn uploads a return request with its evidence images.
func (c *Client) RequestReturn(ctx context.Context, token, orderID string, req model.ReturnRequest) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("reason", req.Reason); err != nil {
		return fmt.Errorf("failed to write reason: %w", err)
	}
	if err := mw.WriteField("reasonCategory", req.ReasonCategory); err != nil {
		return fmt.Errorf("failed to write reason category: %w", err)
	}
	for _, img := range req.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.FileName))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", img.FileName, err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return fmt.Errorf("failed to write image %s: %w", img.FileName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish return request: %w", err)
	}

	_, err := c.send(ctx, call{
		method:      http.MethodPost,
		path:        "/api/orders/" + url.PathEscape(orderID) + "/return-request",
		token:       token,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		fallback:    "Failed to submit return request",
	})
	return err
}

// Invoice downloads the order's invoice PDF.
func (c *Client) Invoice(ctx context.Context, token, orderID string) ([]byte, error) {
	return c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/orders/" + url.PathEscape(orderID) + "/invoice",
		token:    token,
		fallback: "Failed to download invoice",
	})
}

// Track fetches the carrier feed for a waybill.
func (c *Client) Track(ctx context.Context, token, waybill string) (model.TrackingFeed, error) {
	data, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/orders/public/track/" + url.PathEscape(waybill),
		token:    token,
		fallback: "Unable to load tracking",
	})
	if err != nil {
		return model.TrackingFeed{}, err
	}

	var feed model.TrackingFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return model.TrackingFeed{}, fmt.Errorf("failed to decode tracking feed: %w", err)
	}
	return feed, nil
}

// UpdateProfile saves the customer's profile. The returned user carries
// whatever fields the backend echoed back; callers fill the rest.
func (c *Client) UpdateProfile(ctx context.Context, token, userID string, upd model.ProfileUpdate) (model.User, error) {
	data, err := c.sendJSON(ctx, http.MethodPut, "/api/users/"+url.PathEscape(userID), token, upd, "Update failed")
	if err != nil {
		return model.User{}, err
	}

	var body struct {
		Customer model.User `json:"customer"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return model.User{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return body.Customer, nil
}

// ChangePassword changes the customer's password.
func (c *Client) ChangePassword(ctx context.Context, token string, pc model.PasswordChange) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/api/auth/change-password", token, pc, "Password change failed")
	return err
}

// Notifications fetches the notification history.
func (c *Client) Notifications(ctx context.Context, token string) (model.NotificationFeed, error) {
	data, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/notifications",
		token:    token,
		fallback: "Failed to fetch notifications",
	})
	if err != nil {
		return model.NotificationFeed{}, err
	}

	items, err := decodeList[model.Notification](data, "notifications")
	if err != nil {
		return model.NotificationFeed{}, err
	}

	var counts struct {
		UnreadCount int `json:"unreadCount"`
		Data        struct {
			UnreadCount int `json:"unreadCount"`
		} `json:"data"`
	}
	// data may be an array; the count is then only at the top level
	_ = json.Unmarshal(data, &counts)

	unread := counts.Data.UnreadCount
	if unread == 0 {
		unread = counts.UnreadCount
	}
	return model.NotificationFeed{Notifications: items, UnreadCount: unread}, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodPatch,
		path:     "/api/notifications/" + url.PathEscape(strings.TrimSpace(id)) + "/read",
		token:    token,
		fallback: "Failed to mark notification as read",
	})
	return err
}
