package index

import (
	"log/slog"

	"github.com/Sai2266/dealership-platform/internal/models"
)

// SyncList mirrors a list snapshot into the cache, replacing the document
// set wholesale.
func SyncList(db DocIndex, docs []models.Document, logger *slog.Logger) {
	rows := make([]DocRow, len(docs))
	for i, d := range docs {
		rows[i] = DocRow{
			ID:               d.ID,
			Filename:         d.Filename,
			OriginalFilename: d.OriginalFilename,
			FileType:         d.FileType,
			Status:           d.Status,
			UploadedAt:       d.UploadedAt.Time,
		}
	}
	if err := db.ReplaceAll(rows); err != nil {
		logger.Warn("index sync failed", slog.String("error", err.Error()))
	}
}

// SyncDetail mirrors a fetched detail into the cache.
func SyncDetail(db DocIndex, d models.DocumentDetail, logger *slog.Logger) {
	err := db.Enrich(DetailRow{
		ID:              d.ID,
		Notes:           d.Notes,
		VIN:             d.VIN,
		BuyerName:       d.BuyerName,
		SellerName:      d.SellerName,
		SaleDate:        d.SaleDate,
		SaleAmount:      d.SaleAmount,
		OdometerReading: d.OdometerReading,
		DocumentType:    d.DocumentType,
	})
	if err != nil {
		logger.Warn("index detail sync failed",
			slog.Int("id", d.ID),
			slog.String("error", err.Error()))
	}
}
