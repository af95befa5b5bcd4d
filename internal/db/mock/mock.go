package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"turflog/internal/agronomy"
	applog "turflog/internal/log"
	"turflog/models"
)

// New returns an in-memory sqlite database seeded with a representative
// course, catalog, and application log.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:turflog-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&models.User{},
		&models.Fertilizer{},
		&models.LogEntry{},
		&models.UserSettings{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("fairway"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:         "Harin Seo",
		Email:        "admin@turflog.app",
		PasswordHash: string(password),
		CourseName:   "Head Office",
		Role:         models.RoleAdmin,
		Approved:     true,
		DataVersion:  uuid.NewString(),
	}
	keeper := &models.User{
		Name:         "Minjun Park",
		Email:        "keeper@turflog.app",
		PasswordHash: string(password),
		CourseName:   "Riverbend Country Club",
		Role:         models.RoleMember,
		Approved:     true,
		DataVersion:  uuid.NewString(),
	}
	for _, user := range []*models.User{admin, keeper} {
		if err := database.WithContext(ctx).Create(user).Error; err != nil {
			return err
		}
	}

	slowRelease := models.Fertilizer{
		Name:            "Slow Release 21-0-0",
		Zone:            models.ZoneGreen,
		Type:            "slow-release",
		N:               21,
		Price:           30000,
		PackageUnit:     "20kg",
		RecommendedRate: "20g/m2",
		StockCount:      14,
		Description:     "Sulfur-coated urea for steady spring feeding.",
		OwnerID:         admin.ID,
		Shared:          true,
	}
	liquidIron := models.Fertilizer{
		Name:            "Liquid Iron Plus",
		Zone:            models.ZoneGreen,
		Type:            "liquid",
		N:               10,
		Fe:              2,
		Price:           50000,
		PackageUnit:     "10L",
		RecommendedRate: "5ml/m2",
		Density:         1.1,
		StockCount:      3,
		LowStockAlert:   true,
		Description:     "Chelated iron drench for colour without surge growth.",
		OwnerID:         admin.ID,
		Shared:          true,
	}
	balanced := models.Fertilizer{
		Name:            "Balanced 18-6-12",
		Zone:            models.ZoneFairway,
		Type:            "water-soluble",
		N:               18,
		P:               6,
		K:               12,
		Price:           42000,
		PackageUnit:     "25kg",
		RecommendedRate: "15g/m2",
		OwnerID:         keeper.ID,
	}
	catalog := []*models.Fertilizer{&slowRelease, &liquidIron, &balanced}
	for _, fertilizer := range catalog {
		if err := database.WithContext(ctx).Create(fertilizer).Error; err != nil {
			return err
		}
	}

	settings := models.UserSettings{
		UserID:        keeper.ID,
		GreenAreaM2:   1000,
		TeeAreaM2:     1800,
		FairwayAreaM2: 24000,
		GuidelineKey:  agronomy.DefaultGuidelineKey,
	}
	if err := database.WithContext(ctx).Create(&settings).Error; err != nil {
		return err
	}

	applications := []struct {
		date       string
		fertilizer *models.Fertilizer
		zone       string
		area       float64
		rate       float64
	}{
		{"2024-03-05", &slowRelease, models.ZoneGreen, 1000, 20},
		{"2024-03-20", &liquidIron, models.ZoneGreen, 500, 5},
		{"2024-04-14", &balanced, models.ZoneFairway, 24000, 15},
	}

	for _, application := range applications {
		computed := agronomy.ComputeApplication(application.fertilizer, application.area, application.rate)
		entry := models.LogEntry{
			EntryID:     models.NewEntryID(),
			UserID:      keeper.ID,
			Date:        application.date,
			ProductName: application.fertilizer.Name,
			Zone:        application.zone,
			AreaM2:      application.area,
			Rate:        application.rate,
			RateUnit:    computed.RateUnit,
			TotalCost:   computed.TotalCost,
			MassApplied: computed.MassApplied,
			Nutrients:   computed.Nutrients,
		}
		if err := database.WithContext(ctx).Create(&entry).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
