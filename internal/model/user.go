package model

import (
	"fmt"
	"strings"
	"time"
)

// User is the signed-in customer as known to the storefront.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

// DisplayName returns the full name, preferring the single name field.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Address is a saved shipping address.
type Address struct {
	ID        string `json:"_id,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country,omitempty"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
}

// String renders the address the way it is shown in an address picker.
func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s - %s", a.Address, a.City, a.State, a.Pincode)
}

// Complete reports whether every mandatory field is filled.
func (a Address) Complete() bool {
	return a.Address != "" && a.City != "" && a.State != "" && a.Pincode != ""
}

// ProfileUpdate is the payload for PUT /api/users/{id}.
type ProfileUpdate struct {
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Addresses       []Address `json:"addresses"`
	CurrentPassword string    `json:"currentPassword,omitempty"`
	NewPassword     string    `json:"newPassword,omitempty"`
	ConfirmPassword string    `json:"-"`
}

// PasswordChange is the payload for POST /api/auth/change-password.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"-"`
}

// Notification is an order notification from the backend history feed.
type Notification struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationFeed is the notification history with its unread count.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
