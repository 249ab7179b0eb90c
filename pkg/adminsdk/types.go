package adminsdk

import "time"

// ============================================================================
// Marketplace view models
// ============================================================================
//
// These mirror the API's JSON. They are transient: fetched per call, never
// cached by the client.

// Order is a customer order as the admin API reports it. Amounts are in
// minor units of Currency.
type Order struct {
	ID            string    `json:"id,omitempty"`
	CustomerID    string    `json:"customerId"`
	MerchantID    string    `json:"merchantId"`
	AgentID       string    `json:"agentId,omitempty"`
	Status        string    `json:"status"`
	TotalCents    int64     `json:"totalCents"`
	Currency      string    `json:"currency,omitempty"`
	PickupAddress string    `json:"pickupAddress,omitempty"`
	DropAddress   string    `json:"dropAddress,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

// Merchant is a store selling through the marketplace.
type Merchant struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Approved bool   `json:"approved"`
	Active   bool   `json:"active"`
}

// DeliveryAgent is a courier and their last reported position.
type DeliveryAgent struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone,omitempty"`
	Vehicle   string  `json:"vehicle,omitempty"`
	Online    bool    `json:"online"`
	Verified  bool    `json:"verified"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Customer is an end user account.
type Customer struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Blocked bool   `json:"blocked"`
}

// Promotion is a discount code, either a percentage or a fixed amount.
type Promotion struct {
	ID          string    `json:"id,omitempty"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	PercentOff  int       `json:"percentOff,omitempty"`
	AmountOff   int64     `json:"amountOffCents,omitempty"`
	StartsAt    time.Time `json:"startsAt,omitzero"`
	EndsAt      time.Time `json:"endsAt,omitzero"`
	Active      bool      `json:"active"`
}

// Subscription is a paid plan offered to customers.
type Subscription struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"priceCents"`
	Interval    string `json:"interval"` // "month", "year"
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}
