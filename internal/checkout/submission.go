package checkout

import (
	"strings"

	"storefront/internal/cart"
	"storefront/internal/currency"
	"storefront/internal/model"
)

// MatchAddress finds the saved address with the given id. Exactly one
// address must match.
func MatchAddress(addresses []model.Address, id string) (model.Address, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Address{}, model.ErrAddressRequired
	}

	var (
		found model.Address
		n     int
	)
	for _, a := range addresses {
		if a.ID == id {
			found = a
			n++
		}
	}

	switch n {
	case 0:
		return model.Address{}, model.ErrAddressNotFound
	case 1:
		return found, nil
	default:
		return model.Address{}, model.ErrAddressAmbiguous
	}
}

// BuildSubmission converts cart lines into the order payload. Prices are
// sent in minor units and the total includes tax, both rounded half up.
func BuildSubmission(lines []model.CartLine, addr model.Address, method model.PaymentMethod, defaultCountry string) model.OrderSubmission {
	items := make([]model.SubmissionLine, 0, len(lines))
	for _, l := range lines {
		name := l.Name
		if name == "" {
			name = "Product"
		}
		price := currency.ToMinor(l.UnitPrice)
		items = append(items, model.SubmissionLine{
			ProductID: l.ProductID,
			Name:      name,
			Price:     price,
			Quantity:  l.Quantity,
			Subtotal:  price * int64(l.Quantity),
		})
	}

	country := addr.Country
	if country == "" {
		country = defaultCountry
	}

	return model.OrderSubmission{
		Items:       items,
		TotalAmount: cart.ComputeMinorTotals(lines).Total,
		ShippingAddress: model.ShippingAddress{
			Address: addr.Address,
			City:    addr.City,
			State:   addr.State,
			Pincode: addr.Pincode,
			Country: country,
		},
		PaymentMethod: method,
	}
}
