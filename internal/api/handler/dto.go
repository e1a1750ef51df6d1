package handler

// CreatePurchaseRequest represents a request to purchase a value added service.
// The category comes from the URL path, the idempotency key is derived server
// side, so neither appears here.
type CreatePurchaseRequest struct {
	WalletID  string            `json:"wallet_id" binding:"required,uuid"`
	Amount    int64             `json:"amount" binding:"required,gt=0"`
	Recipient string            `json:"recipient" binding:"required"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PurchaseResponse represents a VAS purchase in API responses
type PurchaseResponse struct {
	PurchaseID        string            `json:"purchase_id"`
	WalletID          string            `json:"wallet_id"`
	Category          string            `json:"category"`
	Amount            int64             `json:"amount"`
	Recipient         string            `json:"recipient"`
	Status            string            `json:"status"`
	DeliveryState     string            `json:"delivery_state"`
	ProviderReference string            `json:"provider_reference"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         string            `json:"created_at"`
}

// RequeryResponse represents the outcome of a delivery requery
type RequeryResponse struct {
	PurchaseID    string `json:"purchase_id"`
	DeliveryState string `json:"delivery_state"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            string `json:"id"`
	WalletID      string `json:"wallet_id"`
	Direction     string `json:"direction"`
	Category      string `json:"category"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	Status        string `json:"status"`
	Reference     string `json:"reference"`
	PurchaseID    string `json:"purchase_id,omitempty"`
	TripID        string `json:"trip_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// CreateTransferRequest represents a request to move money between wallets
type CreateTransferRequest struct {
	SenderWalletID   string `json:"sender_wallet_id" binding:"required,uuid"`
	ReceiverWalletID string `json:"receiver_wallet_id" binding:"required,uuid"`
	Amount           int64  `json:"amount" binding:"required,gt=0"`
	Narration        string `json:"narration" binding:"max=140"`
}

// TransferResponse represents a completed transfer in API responses
type TransferResponse struct {
	TransferID       string `json:"transfer_id"`
	SenderWalletID   string `json:"sender_wallet_id"`
	ReceiverWalletID string `json:"receiver_wallet_id"`
	Amount           int64  `json:"amount"`
	Narration        string `json:"narration,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// ApproveSettlementRequest represents an operator's approval of a computed
// settlement. The PIN is verified against the approver wallet's stored hash
// and never logged or persisted in clear.
type ApproveSettlementRequest struct {
	ApproverWalletID string `json:"approver_wallet_id" binding:"required,uuid"`
	Pin              string `json:"pin" binding:"required"`
}

// SettlementResponse represents a trip settlement in API responses
type SettlementResponse struct {
	SettlementID       string `json:"settlement_id"`
	TripID             string `json:"trip_id"`
	TotalAmount        int64  `json:"total_amount"`
	DriverPayout       int64  `json:"driver_payout"`
	OperatorCommission int64  `json:"operator_commission"`
	PlatformFee        int64  `json:"platform_fee"`
	Status             string `json:"status"`
	ApprovedAt         string `json:"approved_at,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
