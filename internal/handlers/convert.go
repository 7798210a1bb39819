package handlers

import (
	"time"

	"layertext-backend/internal/models"
)

func toUploadResponse(u *models.Upload) models.UploadResponse {
	return models.UploadResponse{
		ID:                u.ID.String(),
		SourceImageURL:    u.SourceImageURL,
		ProcessedImageURL: u.ProcessedImageURL.String,
		Status:            string(u.Status),
		CreditConsumed:    u.CreditConsumed,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toPaymentResponse(p *models.PaymentRecord) models.PaymentResponse {
	return models.PaymentResponse{
		ID:                p.ID.String(),
		ExternalPaymentID: p.ExternalPaymentID,
		AmountMinorUnits:  p.AmountMinorUnits,
		CreditsGranted:    p.CreditsGranted,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
	}
}

func toExportResponse(e *models.Export) models.ExportResponse {
	resp := models.ExportResponse{
		ID:          e.ID.String(),
		ExportURL:   e.ExportURL,
		TextContent: e.TextContent,
		FontSize:    e.FontSize,
		FontColor:   e.FontColor,
		Shadow:      e.Shadow,
		PositionX:   e.PositionX,
		PositionY:   e.PositionY,
		CreatedAt:   e.CreatedAt,
	}
	if e.UploadID.Valid {
		resp.UploadID = e.UploadID.UUID.String()
	}
	return resp
}

func toCreditTransactionResponse(t *models.CreditTransaction) models.CreditTransactionResponse {
	return models.CreditTransactionResponse{
		ID:           t.ID.String(),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Reason:       t.Reason,
		ReferenceID:  t.ReferenceID,
		CreatedAt:    t.CreatedAt,
	}
}

func toExportStatsResponse(s *models.ExportStats) models.ExportStatsResponse {
	activity := make([]models.DailyActivity, 0, len(s.Activity))
	for _, day := range s.Activity {
		activity = append(activity, models.DailyActivity{Date: day.Day.Format(time.DateOnly), Exports: day.Exports})
	}
	return models.ExportStatsResponse{
		TotalExports:     s.TotalExports,
		ExportsThisMonth: s.ExportsThisMonth,
		TotalCreditsUsed: s.CreditsUsed,
		ActivityData:     activity,
	}
}
