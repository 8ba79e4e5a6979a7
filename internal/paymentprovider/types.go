package paymentprovider

// CheckoutRequest: оплата одного плана за период.
type CheckoutRequest struct {
	UserID   int64
	Email    string
	Plan     string
	PlanName string
	Period   string
	Amount   int64
}

// Checkout: созданная платёжная сессия.
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Session: состояние платёжной сессии при возврате пользователя.
type Session struct {
	ID        string
	Paid      bool
	Reference string
	Plan      string
	Period    string
}
