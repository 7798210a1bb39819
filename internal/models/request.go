package models

type ProcessRequest struct {
	// Optional; the upload id in the path wins when both are present.
	UploadID string `json:"upload_id,omitempty" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
}

type AddCreditsRequest struct {
	// Amount must be a positive whole number of credits.
	Amount int `json:"amount" binding:"required" example:"10"`
}

type CheckoutRequest struct {
	CustomerEmail string `json:"customer_email,omitempty" example:"user@example.com"`
}

type TextLayer struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   int     `json:"fontSize"`
	Color      string  `json:"color"`
	ShadowBlur int     `json:"shadowBlur"`
}

type CreateExportRequest struct {
	// CanvasDataURL is the rendered PNG as a data URL (data:image/png;base64,...).
	CanvasDataURL string      `json:"canvasDataUrl" binding:"required"`
	UploadID      string      `json:"uploadId,omitempty"`
	TextLayers    []TextLayer `json:"textLayers,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
