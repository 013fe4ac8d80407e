package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Redirect      string `json:"redirect,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeMissingField           = "MISSING_FIELD"
	ErrCodeInvalidFilter          = "INVALID_FILTER"
	ErrCodeInvalidToken           = "INVALID_TOKEN"
	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeProductNotFound        = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeAddressRequired        = "ADDRESS_REQUIRED"
	ErrCodeAddressNotFound        = "ADDRESS_NOT_FOUND"
	ErrCodeAddressAmbiguous       = "ADDRESS_AMBIGUOUS"
	ErrCodeEmptyCart              = "EMPTY_CART"
	ErrCodeLoginRequired          = "LOGIN_REQUIRED"
	ErrCodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	ErrCodeCheckoutInProgress     = "CHECKOUT_IN_PROGRESS"
	ErrCodeGatewayUnavailable     = "GATEWAY_UNAVAILABLE"
	ErrCodePaymentDetailsMissing  = "PAYMENT_DETAILS_MISSING"
	ErrCodePaymentFailed          = "PAYMENT_FAILED"
	ErrCodePaymentCancelled       = "PAYMENT_CANCELLED"
	ErrCodeVerificationFailed     = "PAYMENT_VERIFICATION_FAILED"
	ErrCodeNoPaymentPending       = "NO_PAYMENT_PENDING"
	ErrCodeOrderNotCancellable    = "ORDER_NOT_CANCELLABLE"
	ErrCodeOrderNotReturnable     = "ORDER_NOT_RETURNABLE"
	ErrCodeReturnReasonRequired   = "RETURN_REASON_REQUIRED"
	ErrCodeReturnImagesRequired   = "RETURN_IMAGES_REQUIRED"
	ErrCodeAddressListEmpty       = "ADDRESS_LIST_EMPTY"
	ErrCodeIncompleteAddress      = "INCOMPLETE_ADDRESS"
	ErrCodePasswordMismatch       = "PASSWORD_MISMATCH"
	ErrCodePasswordFieldsRequired = "PASSWORD_FIELDS_REQUIRED"
	ErrCodeUpstream               = "UPSTREAM_ERROR"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity        = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between 1 and 999")
	ErrProductNotFound        = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound          = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrAddressRequired        = NewDomainError(ErrCodeAddressRequired, "Please select a shipping address")
	ErrAddressNotFound        = NewDomainError(ErrCodeAddressNotFound, "Invalid address selected")
	ErrAddressAmbiguous       = NewDomainError(ErrCodeAddressAmbiguous, "Selected address matches more than one saved address")
	ErrEmptyCart              = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrLoginRequired          = NewDomainError(ErrCodeLoginRequired, "Please login again")
	ErrInvalidPaymentMethod   = NewDomainError(ErrCodeInvalidPaymentMethod, "Unknown payment method")
	ErrCheckoutInProgress     = NewDomainError(ErrCodeCheckoutInProgress, "An order is already being placed")
	ErrGatewayUnavailable     = NewDomainError(ErrCodeGatewayUnavailable, "Failed to load payment gateway")
	ErrPaymentDetailsMissing  = NewDomainError(ErrCodePaymentDetailsMissing, "Payment details missing")
	ErrPaymentFailed          = NewDomainError(ErrCodePaymentFailed, "Payment failed. Please try again.")
	ErrPaymentCancelled       = NewDomainError(ErrCodePaymentCancelled, "Payment was cancelled")
	ErrVerificationFailed     = NewDomainError(ErrCodeVerificationFailed, "Payment failed. Please contact support.")
	ErrNoPaymentPending       = NewDomainError(ErrCodeNoPaymentPending, "No payment is awaiting confirmation")
	ErrOrderNotCancellable    = NewDomainError(ErrCodeOrderNotCancellable, "Only pending orders can be cancelled")
	ErrOrderNotReturnable     = NewDomainError(ErrCodeOrderNotReturnable, "Returns are accepted within 7 days of delivery")
	ErrReturnReasonRequired   = NewDomainError(ErrCodeReturnReasonRequired, "Please write a reason")
	ErrReturnImagesRequired   = NewDomainError(ErrCodeReturnImagesRequired, "Upload at least one image")
	ErrAddressListEmpty       = NewDomainError(ErrCodeAddressListEmpty, "At least one address is required")
	ErrIncompleteAddress      = NewDomainError(ErrCodeIncompleteAddress, "Please fill all address fields")
	ErrPasswordMismatch       = NewDomainError(ErrCodePasswordMismatch, "New passwords do not match")
	ErrPasswordFieldsRequired = NewDomainError(ErrCodePasswordFieldsRequired, "Please fill all password fields")
)
