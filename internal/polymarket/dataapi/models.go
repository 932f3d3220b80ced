package dataapi

// Trade represents a trade from the Data API
type Trade struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Side            string  `json:"side"` // BUY, SELL
	ConditionID     string  `json:"conditionId"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"` // Unix timestamp in seconds
	Outcome         string  `json:"outcome"`   // Yes, No, Up, Down
	OutcomeIndex    int     `json:"outcomeIndex"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	EventSlug       string  `json:"eventSlug"`
	Name            string  `json:"name"`
	Pseudonym       string  `json:"pseudonym"`
	TransactionHash string  `json:"transactionHash"`
	USDCSize        float64 `json:"usdcSize"` // Preferred notional
}

// Notional returns the trade's USD value, preferring the explicit USDC size
// over size times price.
func (t *Trade) Notional() float64 {
	if t.USDCSize > 0 {
		return t.USDCSize
	}
	return t.Size * t.Price
}

// DisplayName returns the trader's name, falling back to the pseudonym.
func (t *Trade) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Pseudonym
}

// Position is one market position held by a wallet
type Position struct {
	ProxyWallet  string  `json:"proxyWallet"`
	ConditionID  string  `json:"conditionId"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	CashPnL      float64 `json:"cashPnl"`
	PercentPnL   float64 `json:"percentPnl"` // already a percentage
}

// TokenHolders groups the top holders of one outcome token. The first token
// in the response tracks the YES outcome.
type TokenHolders struct {
	Token   string   `json:"token"`
	Holders []Holder `json:"holders"`
}

// Holder is one wallet's holding of an outcome token
type Holder struct {
	ProxyWallet  string  `json:"proxyWallet"`
	Name         string  `json:"name"`
	Pseudonym    string  `json:"pseudonym"`
	Amount       float64 `json:"amount"`
	OutcomeIndex int     `json:"outcomeIndex"`
	ProfileImage string  `json:"profileImage"`
}

// DisplayName returns the holder's name, falling back to the pseudonym and
// then to "Unknown".
func (h *Holder) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	if h.Pseudonym != "" {
		return h.Pseudonym
	}
	return "Unknown"
}

// ActivityEvent represents an activity event for a wallet
type ActivityEvent struct {
	ID        string `json:"id"`
	EventType string `json:"eventType"`
	User      string `json:"user"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp in seconds
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
