package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB opens a migrated in-memory SQLite database named after the test.
// The database is closed through t.Cleanup.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "open test db")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Fixture holds the related records shared by orders created through it.
type Fixture struct {
	DB    *gorm.DB
	Donor entity.Donor
	NGO   entity.NGO
	Form  entity.DonorForm
}

// NewFixture seeds one donor, one NGO and one listing.
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	f := &Fixture{DB: db}
	f.Donor = entity.Donor{Name: "Spice Route Kitchen", Phone: Ptr("+91 98450 11111"), Email: Ptr("accounts@spiceroute.example")}
	require.NoError(t, db.Create(&f.Donor).Error)

	f.NGO = entity.NGO{Name: "Annapurna Food Trust", RegistrationNumber: Ptr("NGO/KA/2019/0042")}
	require.NoError(t, db.Create(&f.NGO).Error)

	f.Form = entity.DonorForm{DonorID: f.Donor.ID, FoodName: "Veg biryani", FoodCategory: Ptr("Cooked meals")}
	require.NoError(t, db.Create(&f.Form).Error)
	return f
}

// AddDonor creates another donor with its own listing.
func (f *Fixture) AddDonor(t *testing.T, name string) (entity.Donor, entity.DonorForm) {
	t.Helper()

	donor := entity.Donor{Name: name}
	require.NoError(t, f.DB.Create(&donor).Error)
	form := entity.DonorForm{DonorID: donor.ID, FoodName: "Bread loaves"}
	require.NoError(t, f.DB.Create(&form).Error)
	return donor, form
}

// CreateOrder inserts an order for the fixture donor created at createdAt.
// serves may be nil.
func (f *Fixture) CreateOrder(t *testing.T, serves *int, createdAt time.Time) entity.Order {
	t.Helper()
	return f.CreateOrderFor(t, f.Donor, f.Form, serves, createdAt)
}

// CreateOrderFor inserts an order for the given donor and listing.
func (f *Fixture) CreateOrderFor(t *testing.T, donor entity.Donor, form entity.DonorForm, serves *int, createdAt time.Time) entity.Order {
	t.Helper()

	order := entity.Order{
		DonorID:            donor.ID,
		DonorFormID:        &form.ID,
		NGOID:              &f.NGO.ID,
		Serves:             serves,
		DeliveryPersonName: Ptr("Ravi Kumar"),
		CreatedAt:          createdAt.UTC(),
	}
	require.NoError(t, f.DB.Create(&order).Error)
	return order
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
