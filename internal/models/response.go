package models

import "time"

type UploadResponse struct {
	ID                string    `json:"id"`
	SourceImageURL    string    `json:"image_url"`
	ProcessedImageURL string    `json:"processed_image_url,omitempty"`
	Status            string    `json:"status"`
	CreditConsumed    bool      `json:"credit_used"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type UploadListResponse struct {
	Uploads []UploadResponse `json:"uploads"`
}

type ProcessResponse struct {
	Upload            UploadResponse `json:"upload"`
	ProcessedImageURL string         `json:"processed_image_url"`
	CreditsRemaining  int            `json:"credits_remaining"`
	AlreadyProcessed  bool           `json:"already_processed"`
}

type CreditsResponse struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
	Added   int    `json:"added,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type PaymentResponse struct {
	ID                string    `json:"id"`
	ExternalPaymentID string    `json:"stripe_payment_id"`
	AmountMinorUnits  int64     `json:"amount"`
	CreditsGranted    int       `json:"credits_granted"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

type ExportResponse struct {
	ID          string    `json:"id"`
	ExportURL   string    `json:"export_url"`
	UploadID    string    `json:"upload_id,omitempty"`
	TextContent string    `json:"text_content"`
	FontSize    int       `json:"font_size"`
	FontColor   string    `json:"font_color"`
	Shadow      string    `json:"shadow,omitempty"`
	PositionX   float64   `json:"position_x"`
	PositionY   float64   `json:"position_y"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExportListResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type WebhookResponse struct {
	Received       bool `json:"received"`
	AlreadyHandled bool `json:"already_handled,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type CreditTransactionResponse struct {
	ID           string    `json:"id"`
	Amount       int       `json:"amount"`
	BalanceAfter int       `json:"balance_after"`
	Reason       string    `json:"reason"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreditTransactionListResponse struct {
	Transactions []CreditTransactionResponse `json:"transactions"`
}

type DailyActivity struct {
	Date    string `json:"date"`
	Exports int    `json:"exports"`
}

type ExportStatsResponse struct {
	TotalExports     int             `json:"total_exports"`
	ExportsThisMonth int             `json:"exports_this_month"`
	TotalCreditsUsed int             `json:"total_credits_used"`
	ActivityData     []DailyActivity `json:"activity_data"`
}
