package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/config"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/sangkips/foodbridge-api/internal/domain/repository"
	infraRepo "github.com/sangkips/foodbridge-api/internal/infrastructure/repository"
	"github.com/sangkips/foodbridge-api/internal/metrics"
	"github.com/sangkips/foodbridge-api/pkg/apperror"
	"github.com/sangkips/foodbridge-api/pkg/archive"
	"github.com/sangkips/foodbridge-api/pkg/email"
	"github.com/sangkips/foodbridge-api/pkg/events"
	"github.com/sangkips/foodbridge-api/pkg/pagination"
	"github.com/sangkips/foodbridge-api/pkg/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	dateLayout       = "2006-01-02"
	maxBatchIDLength = 64
	publishTimeout   = 5 * time.Second

	// EventReceiptIssued is published once per newly written receipt
	EventReceiptIssued = "receipt.issued"
)

// ReceiptMailer delivers receipt emails
type ReceiptMailer interface {
	Enabled() bool
	SendReceiptEmail(msg *email.ReceiptEmail) error
}

// ReceiptService issues, renders and packages donation receipts.
type ReceiptService struct {
	orderRepo   repository.OrderRepository
	receiptRepo repository.ReceiptRepository
	batchRepo   repository.BatchRunRepository
	renderer    Renderer
	publisher   events.Publisher
	mailer      ReceiptMailer
	metrics     *metrics.Metrics
	cfg         config.ReceiptConfig
	now         func() time.Time
	inflight    sync.WaitGroup
}

// NewReceiptService creates a new receipt service. publisher, mailer and m may be nil.
func NewReceiptService(
	orderRepo repository.OrderRepository,
	receiptRepo repository.ReceiptRepository,
	batchRepo repository.BatchRunRepository,
	renderer Renderer,
	publisher events.Publisher,
	mailer ReceiptMailer,
	m *metrics.Metrics,
	cfg config.ReceiptConfig,
) *ReceiptService {
	if publisher == nil {
		publisher = events.NewNullPublisher()
	}
	return &ReceiptService{
		orderRepo:   orderRepo,
		receiptRepo: receiptRepo,
		batchRepo:   batchRepo,
		renderer:    renderer,
		publisher:   publisher,
		mailer:      mailer,
		metrics:     m,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GeneratedReceipt is a rendered single receipt
type GeneratedReceipt struct {
	Receipt  *entity.Receipt
	Order    *entity.Order
	Document []byte
	Filename string
	Reissued bool
}

// ReceiptIssuedPayload is the body of a receipt.issued event
type ReceiptIssuedPayload struct {
	ReceiptID     string           `json:"receipt_id"`
	ReceiptNumber string           `json:"receipt_number"`
	ReceiptType   enum.ReceiptType `json:"receipt_type"`
	OrderID       string           `json:"order_id"`
	DonorID       string           `json:"donor_id"`
	BatchID       string           `json:"batch_id,omitempty"`
	Amount        string           `json:"amount"`
	Currency      string           `json:"currency"`
	IssuedAt      time.Time        `json:"issued_at"`
}

// GenerateReceipt issues (or reissues) the receipt for one order and renders it.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, orderID uuid.UUID) (*GeneratedReceipt, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.generateForOrder(ctx, order)
}

func (s *ReceiptService) loadOrder(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetWithRelations(ctx, orderID)
	if err != nil {
		return nil, apperror.NewUpstreamError("fetch order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

func (s *ReceiptService) generateForOrder(ctx context.Context, order *entity.Order) (*GeneratedReceipt, error) {
	logger := log.WithField("order_id", order.ID)

	receipt, err := s.receiptRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return nil, apperror.NewUpstreamError("fetch receipt", err)
	}

	reissued := receipt != nil
	issued := false
	if receipt == nil {
		receipt = s.newReceipt(order, enum.ReceiptTypeIndividual, nil)

		err = s.receiptRepo.IssueIndividual(ctx, receipt)
		switch {
		case err == nil:
			issued = true
		case errors.Is(err, repository.ErrReceiptExists):
			// lost the race to a concurrent request; serve the winner's receipt
			existing, lookupErr := s.receiptRepo.GetByOrderID(ctx, order.ID)
			if lookupErr != nil || existing == nil {
				return nil, apperror.NewUpstreamError("fetch receipt", errors.Join(err, lookupErr))
			}
			receipt, reissued = existing, true
		default:
			s.metrics.IncrementBookkeepingFailure("issue_individual")
			logger.WithError(err).Error("Failed to record receipt")
			if s.cfg.StrictBookkeeping {
				return nil, apperror.NewUpstreamError("record receipt", err)
			}
		}
	}

	if reissued {
		s.metrics.IncrementReissued()
		logger.WithField("receipt_number", receipt.ReceiptNumber).Info("Reissuing existing receipt")
	}

	doc := entity.NewReceiptDocument(order, receipt)
	doc.Reissued = reissued
	data, err := s.render(doc)
	if err != nil {
		s.metrics.IncrementRenderFailure(string(enum.ReceiptTypeIndividual))
		logger.WithError(err).Error("Failed to render receipt")
		return nil, apperror.NewRenderError(err)
	}

	if issued {
		s.metrics.IncrementIssued(string(enum.ReceiptTypeIndividual), 1)
		s.publish(ctx, []entity.Receipt{*receipt})
		logger.WithField("receipt_number", receipt.ReceiptNumber).Info("Receipt issued")
	}

	return &GeneratedReceipt{
		Receipt:  receipt,
		Order:    order,
		Document: data,
		Filename: doc.Filename(),
		Reissued: reissued,
	}, nil
}

func (s *ReceiptService) newReceipt(order *entity.Order, rt enum.ReceiptType, batchID *string) *entity.Receipt {
	now := s.now()
	number := utils.IndividualReceiptNumber(order.ID.String(), now)
	if rt == enum.ReceiptTypeBatch {
		number = utils.BatchReceiptNumber(order.ID.String(), *batchID)
	}
	return &entity.Receipt{
		OrderID:        order.ID,
		DonorID:        order.DonorID,
		ReceiptNumber:  number,
		ReceiptType:    rt,
		BatchID:        batchID,
		Servings:       order.Servings(),
		RatePerServing: s.cfg.RatePerServing,
		Amount:         CalculateAmount(order.Serves, s.cfg.RatePerServing),
		Currency:       s.cfg.Currency,
		IssuedAt:       now,
	}
}

func (s *ReceiptService) render(doc *entity.ReceiptDocument) ([]byte, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRender(time.Since(start)) }()
	return s.renderer.Render(doc)
}

// publish emits receipt.issued events in the background so a slow broker
// never holds up the response. Delivery failures are logged only.
func (s *ReceiptService) publish(ctx context.Context, receipts []entity.Receipt) {
	if len(receipts) == 0 {
		return
	}

	batch := make([]events.Event, 0, len(receipts))
	for _, r := range receipts {
		payload := ReceiptIssuedPayload{
			ReceiptID:     r.ID.String(),
			ReceiptNumber: r.ReceiptNumber,
			ReceiptType:   r.ReceiptType,
			OrderID:       r.OrderID.String(),
			DonorID:       r.DonorID.String(),
			Amount:        r.Amount.StringFixed(2),
			Currency:      r.Currency,
			IssuedAt:      r.IssuedAt,
		}
		if r.BatchID != nil {
			payload.BatchID = *r.BatchID
		}
		batch = append(batch, events.Event{
			Type:       EventReceiptIssued,
			Key:        payload.OrderID,
			OccurredAt: r.IssuedAt,
			Payload:    payload,
		})
	}

	pubCtx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(pubCtx, publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, batch...); err != nil {
			log.WithError(err).WithField("events", len(batch)).Warn("Failed to publish receipt events")
		}
	}()
}

// Flush blocks until every event publish started so far has finished.
// Call it before closing the publisher.
func (s *ReceiptService) Flush() {
	s.inflight.Wait()
}

// ListReceipts returns issued receipts, newest first
func (s *ReceiptService) ListReceipts(ctx context.Context, params *repository.ReceiptFilterParams) (*pagination.PaginatedResult[entity.Receipt], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	receipts, total, err := s.receiptRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.NewUpstreamError("list receipts", err)
	}

	p := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(receipts, p), nil
}

// GetBatch returns a stored batch run
func (s *ReceiptService) GetBatch(ctx context.Context, batchID string) (*entity.BatchRun, error) {
	run, err := s.batchRepo.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, apperror.NewUpstreamError("fetch batch", err)
	}
	if run == nil {
		return nil, apperror.NewNotFoundError("Batch")
	}
	return run, nil
}

// EmailResult describes a delivered receipt email
type EmailResult struct {
	ReceiptNumber string `json:"receipt_number"`
	To            string `json:"to"`
	Reissued      bool   `json:"reissued"`
}

// EmailReceipt issues (or reissues) an order's receipt and mails the PDF to the donor.
func (s *ReceiptService) EmailReceipt(ctx context.Context, orderID uuid.UUID) (*EmailResult, error) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return nil, apperror.ErrEmailNotConfigured
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Donor == nil || order.Donor.Email == nil || *order.Donor.Email == "" {
		return nil, apperror.NewUnprocessableError("Donor has no email address on file")
	}

	generated, err := s.generateForOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	r := generated.Receipt
	recipient := ""
	if order.NGO != nil {
		recipient = order.NGO.Name
	}
	err = s.mailer.SendReceiptEmail(&email.ReceiptEmail{
		To:            *order.Donor.Email,
		DonorName:     order.Donor.Name,
		ReceiptNumber: r.ReceiptNumber,
		Amount:        FormatAmount(r.Currency, r.Amount),
		Recipient:     recipient,
		Attachment: email.Attachment{
			Filename:    generated.Filename,
			ContentType: "application/pdf",
			Data:        generated.Document,
		},
	})
	if err != nil {
		log.WithError(err).WithField("order_id", orderID).Error("Failed to send receipt email")
		return nil, &apperror.AppError{Code: http.StatusBadGateway, Message: "Failed to send receipt email", Err: err}
	}

	return &EmailResult{
		ReceiptNumber: r.ReceiptNumber,
		To:            *order.Donor.Email,
		Reissued:      generated.Reissued,
	}, nil
}

// DateRange is an inclusive range of whole UTC days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// From is the first instant of the range
func (r DateRange) From() time.Time { return r.Start }

// To is the first instant after the range
func (r DateRange) To() time.Time { return r.End.AddDate(0, 0, 1) }

// ParseDateRange validates a YYYY-MM-DD start/end pair
func ParseDateRange(startDate, endDate string) (DateRange, error) {
	if startDate == "" || endDate == "" {
		return DateRange{}, apperror.NewBadRequestError("startDate and endDate are required")
	}
	start, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
	if err != nil {
		return DateRange{}, apperror.NewBadRequestError("startDate must be a date in YYYY-MM-DD format")
	}
	end, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
	if err != nil {
		return DateRange{}, apperror.NewBadRequestError("endDate must be a date in YYYY-MM-DD format")
	}
	if start.After(end) {
		return DateRange{}, apperror.NewBadRequestError("startDate must not be after endDate")
	}
	return DateRange{Start: start, End: end}, nil
}

// BatchRequest selects the orders of a batch run
type BatchRequest struct {
	StartDate string
	EndDate   string
	DonorID   string
	BatchID   string
}

// BatchResult is a packaged batch run
type BatchResult struct {
	BatchID  string
	Archive  []byte
	Filename string
	Manifest *BatchManifest
}

func (r *BatchResult) Generated() int { return r.Manifest.Count(ManifestStatusGenerated) }
func (r *BatchResult) Failed() int    { return r.Manifest.Count(ManifestStatusFailed) }
func (r *BatchResult) Skipped() int   { return r.Manifest.Count(ManifestStatusSkipped) }

// GenerateBatch issues receipts for every eligible order in the range and
// returns them as a zip archive with a manifest.
func (s *ReceiptService) GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	started := time.Now()

	dates, err := ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	donorID, err := s.batchDonor(ctx, req.DonorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batchID := req.BatchID
	if batchID == "" {
		batchID = utils.DefaultBatchID(now)
	}
	if len(batchID) > maxBatchIDLength {
		return nil, apperror.NewBadRequestError(fmt.Sprintf("batchId must be at most %d characters", maxBatchIDLength))
	}
	if !utils.ValidBatchID(batchID) {
		return nil, apperror.NewBadRequestError("batchId may only contain letters, digits, '-' and '_'")
	}
	if req.BatchID != "" {
		existing, err := s.batchRepo.GetByBatchID(ctx, batchID)
		if err != nil {
			return nil, apperror.NewUpstreamError("fetch batch", err)
		}
		if existing != nil {
			return nil, apperror.NewConflictError("Batch ID has already been used")
		}
	}

	orders, err := s.orderRepo.FindEligible(ctx, &repository.EligibleOrderFilter{
		From:    dates.From(),
		To:      dates.To(),
		DonorID: donorID,
		Limit:   s.cfg.MaxBatchSize + 1,
	})
	if err != nil {
		return nil, apperror.NewUpstreamError("fetch eligible orders", err)
	}
	if len(orders) == 0 {
		return nil, apperror.NewAppError(http.StatusNotFound, "No eligible orders found for the given date range")
	}
	if len(orders) > s.cfg.MaxBatchSize {
		return nil, apperror.NewUnprocessableError(fmt.Sprintf(
			"More than %d eligible orders in range; narrow the date range or filter by donor", s.cfg.MaxBatchSize))
	}

	logger := log.WithFields(log.Fields{"batch_id": batchID, "orders": len(orders)})

	pending := make([]entity.Receipt, 0, len(orders))
	byOrder := make(map[uuid.UUID]*entity.Order, len(orders))
	for i := range orders {
		byOrder[orders[i].ID] = &orders[i]
		pending = append(pending, *s.newReceipt(&orders[i], enum.ReceiptTypeBatch, &batchID))
	}

	manifest := &BatchManifest{
		BatchID:     batchID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		GeneratedAt: now,
		Currency:    s.cfg.Currency,
		TotalAmount: decimal.Zero,
	}
	if donorID != nil {
		manifest.DonorID = donorID.String()
	}

	claimed, skipped, err := s.receiptRepo.IssueBatch(ctx, pending)
	if err != nil {
		s.metrics.IncrementBookkeepingFailure("issue_batch")
		logger.WithError(err).Error("Failed to record batch receipts")
		if s.cfg.StrictBookkeeping {
			return nil, apperror.NewUpstreamError("record batch receipts", err)
		}
		claimed, skipped = pending, nil
		manifest.BookkeepingFailed = true
	}

	bundle := archive.New(now)
	manifest.Entries = s.renderBatch(bundle, claimed, byOrder, logger)
	for _, id := range skipped {
		manifest.Entries = append(manifest.Entries, ManifestEntry{
			OrderID: id.String(),
			Donor:   donorName(byOrder[id]),
			Status:  ManifestStatusSkipped,
			Error:   "receipt already issued by another request",
		})
	}
	for _, e := range manifest.Entries {
		if e.Status == ManifestStatusGenerated {
			manifest.TotalAmount = manifest.TotalAmount.Add(e.Amount)
		}
	}

	data, err := s.pack(bundle, manifest)
	if err != nil {
		logger.WithError(err).Error("Failed to package batch archive")
		return nil, apperror.NewRenderError(err)
	}

	s.recordRun(ctx, manifest, dates, donorID, len(orders), logger)
	if !manifest.BookkeepingFailed {
		s.metrics.IncrementIssued(string(enum.ReceiptTypeBatch), len(claimed))
		s.publish(ctx, claimed)
	}
	s.metrics.ObserveBatch(time.Since(started), len(orders))

	result := &BatchResult{
		BatchID:  batchID,
		Archive:  data,
		Filename: fmt.Sprintf("donation_receipts_%s_to_%s.zip", req.StartDate, req.EndDate),
		Manifest: manifest,
	}
	logger.WithFields(log.Fields{
		"generated": result.Generated(),
		"failed":    result.Failed(),
		"skipped":   result.Skipped(),
	}).Info("Batch receipts generated")
	return result, nil
}

// batchDonor resolves the donor filter. A caller bound to a donor can only batch its own orders.
func (s *ReceiptService) batchDonor(ctx context.Context, raw string) (*uuid.UUID, error) {
	if scoped, ok := infraRepo.GetDonorID(ctx); ok {
		return &scoped, nil
	}
	if raw == "" {
		return nil, nil
	}
	id, err := utils.ParseUUID(raw)
	if err != nil {
		return nil, apperror.NewBadRequestError("donorId must be a valid UUID")
	}
	return &id, nil
}

func (s *ReceiptService) pack(bundle *archive.Archive, manifest *BatchManifest) ([]byte, error) {
	manifestJSON, err := manifest.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := bundle.Add(manifestFile, manifestJSON); err != nil {
		return nil, err
	}

	summary, err := manifest.Spreadsheet()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}
	if err := bundle.Add(summaryFile, summary); err != nil {
		return nil, err
	}

	return bundle.Bytes()
}

func (s *ReceiptService) recordRun(ctx context.Context, m *BatchManifest, dates DateRange, donorID *uuid.UUID, requested int, logger *log.Entry) {
	manifestJSON, err := m.JSON()
	if err != nil {
		logger.WithError(err).Warn("Failed to encode batch manifest")
		return
	}
	run := &entity.BatchRun{
		BatchID:   m.BatchID,
		StartDate: toDate(dates.Start),
		EndDate:   toDate(dates.End),
		DonorID:   donorID,
		Requested: requested,
		Generated: m.Count(ManifestStatusGenerated),
		Failed:    m.Count(ManifestStatusFailed),
		Skipped:   m.Count(ManifestStatusSkipped),
		Manifest:  manifestJSON,
	}
	if err := s.batchRepo.Create(ctx, run); err != nil {
		s.metrics.IncrementBookkeepingFailure("record_batch")
		logger.WithError(err).Error("Failed to record batch run")
	}
}

func donorName(order *entity.Order) string {
	if order == nil || order.Donor == nil {
		return ""
	}
	return order.Donor.Name
}
