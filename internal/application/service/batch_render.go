package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/sangkips/foodbridge-api/pkg/archive"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// renderBatch renders every claimed receipt with at most RenderConcurrency
// documents in flight and adds them to bundle. Entries keep the order of receipts.
// A failed document is recorded in its entry and never aborts the batch.
func (s *ReceiptService) renderBatch(bundle *archive.Archive, receipts []entity.Receipt, orders map[uuid.UUID]*entity.Order, logger *log.Entry) []ManifestEntry {
	entries := make([]ManifestEntry, len(receipts))

	limit := s.cfg.RenderConcurrency
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i := range receipts {
		receipt := &receipts[i]
		order := orders[receipt.OrderID]
		entries[i] = ManifestEntry{
			OrderID:       receipt.OrderID.String(),
			ReceiptNumber: receipt.ReceiptNumber,
			Donor:         donorName(order),
			Servings:      receipt.Servings,
			Amount:        receipt.Amount,
			Status:        ManifestStatusFailed,
		}

		g.Go(func() error {
			entry := &entries[i]
			if order == nil {
				entry.Error = "order not loaded"
				return nil
			}

			doc := entity.NewReceiptDocument(order, receipt)
			data, err := s.render(doc)
			if err != nil {
				s.metrics.IncrementRenderFailure(string(enum.ReceiptTypeBatch))
				logger.WithError(err).WithField("order_id", receipt.OrderID).Error("Failed to render batch receipt")
				entry.Error = "failed to generate receipt document"
				return nil
			}

			if err := bundle.Add(doc.Filename(), data); err != nil {
				logger.WithError(err).WithField("order_id", receipt.OrderID).Error("Failed to add receipt to archive")
				entry.Error = err.Error()
				return nil
			}

			entry.Status = ManifestStatusGenerated
			entry.File = doc.Filename()
			return nil
		})
	}

	_ = g.Wait()
	return entries
}

func toDate(t time.Time) datatypes.Date {
	return datatypes.Date(t)
}
