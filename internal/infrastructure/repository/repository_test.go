package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	domainRepo "github.com/sangkips/foodbridge-api/internal/domain/repository"
	"github.com/sangkips/foodbridge-api/internal/testutil"
	"github.com/sangkips/foodbridge-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RepositorySuite struct {
	suite.Suite
	db       *gorm.DB
	fixture  *testutil.Fixture
	orders   domainRepo.OrderRepository
	receipts domainRepo.ReceiptRepository
	batches  domainRepo.BatchRunRepository
	ikeys    domainRepo.IdempotencyRepository
	ctx      context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.db = testutil.OpenTestDB(s.T())
	s.fixture = testutil.NewFixture(s.T(), s.db)
	s.orders = NewOrderRepository(s.db)
	s.receipts = NewReceiptRepository(s.db)
	s.batches = NewBatchRunRepository(s.db)
	s.ikeys = NewIdempotencyRepository(s.db)
	s.ctx = context.Background()
}

func (s *RepositorySuite) newReceipt(order entity.Order, number string, batchID *string) entity.Receipt {
	rt := enum.ReceiptTypeIndividual
	if batchID != nil {
		rt = enum.ReceiptTypeBatch
	}
	return entity.Receipt{
		OrderID:        order.ID,
		DonorID:        order.DonorID,
		ReceiptNumber:  number,
		ReceiptType:    rt,
		BatchID:        batchID,
		Servings:       order.Servings(),
		RatePerServing: decimal.NewFromInt(50),
		Amount:         decimal.NewFromInt(int64(order.Servings() * 50)),
		Currency:       "INR",
		IssuedAt:       time.Now().UTC(),
	}
}

func (s *RepositorySuite) reloadOrder(id uuid.UUID) entity.Order {
	var order entity.Order
	s.Require().NoError(s.db.First(&order, "id = ?", id).Error)
	return order
}

func (s *RepositorySuite) TestGetWithRelations() {
	order := s.fixture.CreateOrder(s.T(), testutil.Ptr(20), testutil.Date(2024, 1, 10))

	s.Run("loads donor, listing and ngo", func() {
		got, err := s.orders.GetWithRelations(s.ctx, order.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got)
		s.Require().NotNil(got.Donor)
		s.Require().NotNil(got.DonorForm)
		s.Require().NotNil(got.NGO)
		s.Equal("Spice Route Kitchen", got.Donor.Name)
		s.Equal("Veg biryani", got.DonorForm.FoodName)
		s.Equal("Annapurna Food Trust", got.NGO.Name)
		s.Equal(20, got.Servings())
	})

	s.Run("missing order returns nil", func() {
		got, err := s.orders.GetWithRelations(s.ctx, uuid.New())
		s.NoError(err)
		s.Nil(got)
	})

	s.Run("donor scope hides other donors' orders", func() {
		other, _ := s.fixture.AddDonor(s.T(), "Green Leaf Bakery")
		got, err := s.orders.GetWithRelations(WithDonor(s.ctx, other.ID), order.ID)
		s.NoError(err)
		s.Nil(got)

		got, err = s.orders.GetWithRelations(WithDonor(s.ctx, s.fixture.Donor.ID), order.ID)
		s.NoError(err)
		s.NotNil(got)
	})
}

func (s *RepositorySuite) TestFindEligible() {
	jan1 := s.fixture.CreateOrder(s.T(), testutil.Ptr(10), testutil.Date(2024, 1, 1))
	jan31Late := s.fixture.CreateOrder(s.T(), testutil.Ptr(20), testutil.Date(2024, 1, 31).Add(23*time.Hour+59*time.Minute))
	s.fixture.CreateOrder(s.T(), testutil.Ptr(30), testutil.Date(2024, 2, 1))
	s.fixture.CreateOrder(s.T(), testutil.Ptr(40), testutil.Date(2023, 12, 31).Add(23*time.Hour))

	receipted := s.fixture.CreateOrder(s.T(), testutil.Ptr(5), testutil.Date(2024, 1, 15))
	s.Require().NoError(s.db.Model(&entity.Order{}).Where("id = ?", receipted.ID).Update("receipt_generated", true).Error)

	otherDonor, otherForm := s.fixture.AddDonor(s.T(), "Green Leaf Bakery")
	other := s.fixture.CreateOrderFor(s.T(), otherDonor, otherForm, nil, testutil.Date(2024, 1, 20))

	filter := &domainRepo.EligibleOrderFilter{From: testutil.Date(2024, 1, 1), To: testutil.Date(2024, 2, 1)}

	s.Run("range is half open and excludes receipted orders", func() {
		got, err := s.orders.FindEligible(s.ctx, filter)
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(jan1.ID, got[0].ID)
		s.Equal(other.ID, got[1].ID)
		s.Equal(jan31Late.ID, got[2].ID)
		s.NotNil(got[0].Donor)
	})

	s.Run("donor filter", func() {
		f := *filter
		f.DonorID = &otherDonor.ID
		got, err := s.orders.FindEligible(s.ctx, &f)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(other.ID, got[0].ID)
	})

	s.Run("limit", func() {
		f := *filter
		f.Limit = 2
		got, err := s.orders.FindEligible(s.ctx, &f)
		s.Require().NoError(err)
		s.Len(got, 2)
	})
}

func (s *RepositorySuite) TestIssueIndividual() {
	order := s.fixture.CreateOrder(s.T(), testutil.Ptr(20), testutil.Date(2024, 1, 10))
	receipt := s.newReceipt(order, "DNTN-aaaa-1", nil)

	s.Require().NoError(s.receipts.IssueIndividual(s.ctx, &receipt))
	s.NotEqual(uuid.Nil, receipt.ID)

	reloaded := s.reloadOrder(order.ID)
	s.True(reloaded.ReceiptGenerated)
	s.Require().NotNil(reloaded.ReceiptNumber)
	s.Equal("DNTN-aaaa-1", *reloaded.ReceiptNumber)

	stored, err := s.receipts.GetByOrderID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.True(decimal.NewFromInt(1000).Equal(stored.Amount))
	s.Equal(enum.ReceiptTypeIndividual, stored.ReceiptType)

	s.Run("second issue for the same order is rejected", func() {
		dup := s.newReceipt(order, "DNTN-aaaa-2", nil)
		err := s.receipts.IssueIndividual(s.ctx, &dup)
		s.ErrorIs(err, domainRepo.ErrReceiptExists)

		var count int64
		s.Require().NoError(s.db.Model(&entity.Receipt{}).Where("order_id = ?", order.ID).Count(&count).Error)
		s.EqualValues(1, count)
	})

	s.Run("unique index rejects a duplicate row written behind the guard", func() {
		dup := s.newReceipt(order, "DNTN-aaaa-3", nil)
		err := s.db.Create(&dup).Error
		s.Error(err)
	})
}

func (s *RepositorySuite) TestIssueBatch() {
	batchID := "1706745600000"
	first := s.fixture.CreateOrder(s.T(), testutil.Ptr(10), testutil.Date(2024, 1, 2))
	second := s.fixture.CreateOrder(s.T(), nil, testutil.Date(2024, 1, 3))
	taken := s.fixture.CreateOrder(s.T(), testutil.Ptr(7), testutil.Date(2024, 1, 4))
	s.Require().NoError(s.db.Model(&entity.Order{}).Where("id = ?", taken.ID).Update("receipt_generated", true).Error)

	claimed, skipped, err := s.receipts.IssueBatch(s.ctx, []entity.Receipt{
		s.newReceipt(first, "DNTN-first-BATCH-17067456", &batchID),
		s.newReceipt(second, "DNTN-secnd-BATCH-17067456", &batchID),
		s.newReceipt(taken, "DNTN-taken-BATCH-17067456", &batchID),
	})
	s.Require().NoError(err)
	s.Len(claimed, 2)
	s.Equal([]uuid.UUID{taken.ID}, skipped)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		o := s.reloadOrder(id)
		s.True(o.ReceiptGenerated)
		s.Require().NotNil(o.BatchID)
		s.Equal(batchID, *o.BatchID)
	}

	got, err := s.receipts.GetByOrderID(s.ctx, taken.ID)
	s.NoError(err)
	s.Nil(got)

	s.Run("rerun claims nothing", func() {
		claimed, skipped, err := s.receipts.IssueBatch(s.ctx, []entity.Receipt{
			s.newReceipt(first, "DNTN-first-BATCH-99999999", &batchID),
		})
		s.Require().NoError(err)
		s.Empty(claimed)
		s.Equal([]uuid.UUID{first.ID}, skipped)
	})
}

func (s *RepositorySuite) TestIssueBatchSkipsOrdersWithStrayReceipt() {
	batchID := "week-07"
	stray := s.fixture.CreateOrder(s.T(), testutil.Ptr(6), testutil.Date(2024, 1, 2))
	fresh := s.fixture.CreateOrder(s.T(), testutil.Ptr(2), testutil.Date(2024, 1, 3))

	// receipt row written while the order flag stayed false
	orphan := s.newReceipt(stray, "DNTN-stray-1704153600000", nil)
	s.Require().NoError(s.db.Create(&orphan).Error)

	claimed, skipped, err := s.receipts.IssueBatch(s.ctx, []entity.Receipt{
		s.newReceipt(stray, "DNTN-stray-BATCH-week-07", &batchID),
		s.newReceipt(fresh, "DNTN-fresh-BATCH-week-07", &batchID),
	})
	s.Require().NoError(err)
	s.Require().Len(claimed, 1)
	s.Equal(fresh.ID, claimed[0].OrderID)
	s.Equal([]uuid.UUID{stray.ID}, skipped)

	repaired := s.reloadOrder(stray.ID)
	s.True(repaired.ReceiptGenerated)
	s.Equal("DNTN-stray-1704153600000", *repaired.ReceiptNumber)
	s.Nil(repaired.BatchID)

	eligible, err := s.orders.FindEligible(s.ctx, &domainRepo.EligibleOrderFilter{
		From: testutil.Date(2024, 1, 1),
		To:   testutil.Date(2024, 2, 1),
	})
	s.Require().NoError(err)
	s.Empty(eligible)
}

func (s *RepositorySuite) TestList() {
	batchID := "b-1"
	a := s.fixture.CreateOrder(s.T(), testutil.Ptr(1), testutil.Date(2024, 1, 2))
	b := s.fixture.CreateOrder(s.T(), testutil.Ptr(2), testutil.Date(2024, 1, 3))
	otherDonor, otherForm := s.fixture.AddDonor(s.T(), "Green Leaf Bakery")
	c := s.fixture.CreateOrderFor(s.T(), otherDonor, otherForm, testutil.Ptr(3), testutil.Date(2024, 1, 4))

	ra := s.newReceipt(a, "DNTN-a", nil)
	s.Require().NoError(s.receipts.IssueIndividual(s.ctx, &ra))
	_, _, err := s.receipts.IssueBatch(s.ctx, []entity.Receipt{
		s.newReceipt(b, "DNTN-b-BATCH", &batchID),
		s.newReceipt(c, "DNTN-c-BATCH", &batchID),
	})
	s.Require().NoError(err)

	page := &pagination.PaginationParams{Page: 1, PerPage: 10}

	s.Run("all", func() {
		items, total, err := s.receipts.List(s.ctx, &domainRepo.ReceiptFilterParams{Pagination: page})
		s.Require().NoError(err)
		s.EqualValues(3, total)
		s.Len(items, 3)
	})

	s.Run("by type and batch", func() {
		rt := enum.ReceiptTypeBatch
		items, total, err := s.receipts.List(s.ctx, &domainRepo.ReceiptFilterParams{Pagination: page, Type: &rt, BatchID: batchID})
		s.Require().NoError(err)
		s.EqualValues(2, total)
		s.Len(items, 2)
	})

	s.Run("by order", func() {
		items, total, err := s.receipts.List(s.ctx, &domainRepo.ReceiptFilterParams{Pagination: page, OrderID: &a.ID})
		s.Require().NoError(err)
		s.EqualValues(1, total)
		s.Equal("DNTN-a", items[0].ReceiptNumber)
	})

	s.Run("donor scope", func() {
		items, total, err := s.receipts.List(WithDonor(s.ctx, otherDonor.ID), &domainRepo.ReceiptFilterParams{Pagination: page})
		s.Require().NoError(err)
		s.EqualValues(1, total)
		s.Equal("DNTN-c-BATCH", items[0].ReceiptNumber)
	})
}

func (s *RepositorySuite) TestBatchRuns() {
	run := &entity.BatchRun{
		BatchID:   "1706745600000",
		StartDate: datatypes.Date(testutil.Date(2024, 1, 1)),
		EndDate:   datatypes.Date(testutil.Date(2024, 1, 31)),
		Requested: 3,
		Generated: 2,
		Failed:    1,
		Manifest:  datatypes.JSON(`{"batch_id":"1706745600000"}`),
	}
	s.Require().NoError(s.batches.Create(s.ctx, run))

	got, err := s.batches.GetByBatchID(s.ctx, "1706745600000")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(2, got.Generated)
	s.JSONEq(`{"batch_id":"1706745600000"}`, string(got.Manifest))

	missing, err := s.batches.GetByBatchID(s.ctx, "nope")
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestIdempotencyKeys() {
	key := &entity.IdempotencyKey{
		Key:       "k-1",
		Subject:   "user-1",
		Endpoint:  "POST /api/v1/receipts/:orderId/email",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	s.Require().NoError(s.ikeys.Reserve(s.ctx, key))

	pending, err := s.ikeys.GetByKey(s.ctx, "k-1", "user-1")
	s.Require().NoError(err)
	s.Require().NotNil(pending)
	s.True(pending.IsPending())

	s.Error(s.ikeys.Reserve(s.ctx, &entity.IdempotencyKey{
		Key: "k-1", Subject: "user-1", Endpoint: "x", ExpiresAt: time.Now().UTC().Add(time.Hour),
	}), "the (key, subject) pair is unique")

	key.ResponseCode = 200
	key.ResponseBody = `{"success":true}`
	s.Require().NoError(s.ikeys.Complete(s.ctx, key))

	got, err := s.ikeys.GetByKey(s.ctx, "k-1", "user-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(200, got.ResponseCode)
	s.Equal(`{"success":true}`, got.ResponseBody)
	s.False(got.IsPending())

	other, err := s.ikeys.GetByKey(s.ctx, "k-1", "user-2")
	s.NoError(err)
	s.Nil(other)

	expired := &entity.IdempotencyKey{Key: "k-2", Subject: "user-1", Endpoint: "x", ExpiresAt: time.Now().UTC().Add(-time.Hour)}
	s.Require().NoError(s.ikeys.Reserve(s.ctx, expired))
	s.Require().NoError(s.ikeys.DeleteExpired(s.ctx))

	gone, err := s.ikeys.GetByKey(s.ctx, "k-2", "user-1")
	s.NoError(err)
	s.Nil(gone)
}

func (s *RepositorySuite) TestIdempotencyKeyRelease() {
	key := &entity.IdempotencyKey{Key: "k-3", Subject: "user-1", Endpoint: "x", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	s.Require().NoError(s.ikeys.Reserve(s.ctx, key))
	s.Require().NoError(s.ikeys.Release(s.ctx, "k-3", "user-1"))

	gone, err := s.ikeys.GetByKey(s.ctx, "k-3", "user-1")
	s.NoError(err)
	s.Nil(gone)

	// a released key can be reserved again
	s.NoError(s.ikeys.Reserve(s.ctx, &entity.IdempotencyKey{Key: "k-3", Subject: "user-1", Endpoint: "x", ExpiresAt: time.Now().UTC().Add(time.Hour)}))
}
