package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

// CartLine is one product-plus-quantity entry with its price snapshot.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderSubmission is the payload sent to create an order.
type OrderSubmission struct {
	Items           []SubmissionLine `json:"items"`
	TotalAmount     int64            `json:"totalAmount"`
	ShippingAddress ShippingAddress  `json:"shippingAddress"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod"`
}

// SubmissionLine is a line item in minor currency units.
type SubmissionLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// ShippingAddress is copied verbatim from the selected known address.
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// PlacedOrder is the backend's answer to an order submission.
type PlacedOrder struct {
	Order        OrderRef      `json:"order"`
	GatewayOrder *GatewayOrder `json:"razorpayOrder,omitempty"`
}

// OrderRef identifies a server-side order.
type OrderRef struct {
	ID string `json:"_id"`
}

// GatewayOrder is the payment gateway's order handle.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentVerification is submitted after the gateway reports success.
type PaymentVerification struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	OrderID        string `json:"orderId"`
}

// Order is a heterogeneous order record from the order-history endpoint.
// Status may appear under several field names.
type Order struct {
	ID              string           `json:"_id"`
	OrderStatus     string           `json:"orderStatus,omitempty"`
	Status          string           `json:"status,omitempty"`
	PaymentStatus   string           `json:"paymentStatus,omitempty"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	PaymentTotal    decimal.Decimal  `json:"paymentTotal"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
	DeliveredAt     *time.Time       `json:"deliveredAt,omitempty"`
	Waybill         string           `json:"waybill,omitempty"`
	AWB             string           `json:"awb,omitempty"`
	TrackingID      string           `json:"trackingId,omitempty"`
	ShipmentDetails *ShipmentDetails `json:"shipmentDetails,omitempty"`
	InvoiceDetails  []InvoiceDetail  `json:"invoiceDetails,omitempty"`
	InvoiceNo       string           `json:"invoiceNo,omitempty"`
	ReturnRequested bool             `json:"returnRequested,omitempty"`
	Items           []OrderLine      `json:"items,omitempty"`
}

// ShipmentDetails holds carrier data attached to an order.
type ShipmentDetails struct {
	Waybill string `json:"waybill,omitempty"`
}

// InvoiceDetail is one invoice record attached to an order.
type InvoiceDetail struct {
	InvoiceNo string `json:"invoiceNo"`
}

// OrderLine is an item of a historical order.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// ShipmentWaybill returns the first non-empty carrier tracking identifier.
func (o Order) ShipmentWaybill() string {
	for _, w := range []string{o.Waybill, o.AWB, o.TrackingID} {
		if w != "" {
			return w
		}
	}
	if o.ShipmentDetails != nil {
		return o.ShipmentDetails.Waybill
	}
	return ""
}

// DisplayTotal returns the paid total when known, else the order total.
func (o Order) DisplayTotal() decimal.Decimal {
	if !o.PaymentTotal.IsZero() {
		return o.PaymentTotal
	}
	return o.TotalAmount
}

// InvoiceNumber returns the invoice number shown to the customer.
func (o Order) InvoiceNumber() string {
	if len(o.InvoiceDetails) > 0 && o.InvoiceDetails[0].InvoiceNo != "" {
		return o.InvoiceDetails[0].InvoiceNo
	}
	if o.InvoiceNo != "" {
		return o.InvoiceNo
	}
	if o.ID == "" {
		return "N/A"
	}
	return "#" + strings.ToUpper(lastN(o.ID, 6))
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ReturnRequest is a customer return request with evidence images.
type ReturnRequest struct {
	Reason         string
	ReasonCategory string
	Images         []ReturnImage
}

// ReturnImage is one uploaded evidence file.
type ReturnImage struct {
	FileName    string
	ContentType string
	Data        []byte
}

// TrackingFeed is the raw tracking provider response.
type TrackingFeed struct {
	Success  bool            `json:"success"`
	Status   string          `json:"status,omitempty"`
	Message  string          `json:"message,omitempty"`
	Events   []ShipmentEvent `json:"events,omitempty"`
	Tracking []ShipmentEvent `json:"tracking,omitempty"`
}

// ShipmentEvent is one entry of a shipment timeline.
type ShipmentEvent struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Location string `json:"location,omitempty"`
	Datetime string `json:"datetime,omitempty"`
}
