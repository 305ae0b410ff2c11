package database

import (
	"fmt"
	"time"

	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedDemoData inserts a small set of donors, NGOs, listings and orders
// when the database has no donors yet.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Donor{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count donors: %w", err)
	}
	if count > 0 {
		log.Info("Demo data already present, skipping seed")
		return nil
	}

	log.Info("Seeding demo data...")

	return db.Transaction(func(tx *gorm.DB) error {
		donors := []entity.Donor{
			{Name: "Spice Route Kitchen", Phone: strPtr("+91 98450 11111"), Email: strPtr("accounts@spiceroute.example")},
			{Name: "Green Leaf Bakery", Phone: strPtr("+91 98450 22222")},
		}
		if err := tx.Create(&donors).Error; err != nil {
			return fmt.Errorf("failed to seed donors: %w", err)
		}

		ngo := entity.NGO{Name: "Annapurna Food Trust", RegistrationNumber: strPtr("NGO/KA/2019/0042")}
		if err := tx.Create(&ngo).Error; err != nil {
			return fmt.Errorf("failed to seed ngo: %w", err)
		}

		forms := []entity.DonorForm{
			{DonorID: donors[0].ID, FoodName: "Veg biryani", FoodCategory: strPtr("Cooked meals")},
			{DonorID: donors[1].ID, FoodName: "Whole wheat bread", FoodCategory: strPtr("Bakery")},
		}
		if err := tx.Create(&forms).Error; err != nil {
			return fmt.Errorf("failed to seed listings: %w", err)
		}

		now := time.Now().UTC()
		var orders []entity.Order
		for i := 0; i < 6; i++ {
			form := forms[i%len(forms)]
			serves := 10 + 5*i
			orders = append(orders, entity.Order{
				DonorID:            form.DonorID,
				DonorFormID:        &form.ID,
				NGOID:              &ngo.ID,
				Serves:             &serves,
				DeliveryPersonName: strPtr("Ravi Kumar"),
				CreatedAt:          now.AddDate(0, 0, -i),
			})
		}
		if err := tx.Create(&orders).Error; err != nil {
			return fmt.Errorf("failed to seed orders: %w", err)
		}

		log.WithField("orders", len(orders)).Info("Demo data seeded")
		return nil
	})
}

func strPtr(s string) *string {
	return &s
}
