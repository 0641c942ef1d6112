package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"verge/internal/infrastructure/persistence/models"
	"verge/internal/infrastructure/repository"
	"verge/internal/shared/biztime"
	"verge/internal/shared/logger"
)

type memoryFlags struct {
	set map[string]bool
}

func newMemoryFlags() *memoryFlags {
	return &memoryFlags{set: make(map[string]bool)}
}

func (f *memoryFlags) key(userID uint, day string) string {
	return fmt.Sprintf("%d:%s", userID, day)
}

func (f *memoryFlags) IsLimited(_ context.Context, userID uint, day string) bool {
	return f.set[f.key(userID, day)]
}

func (f *memoryFlags) MarkLimited(_ context.Context, userID uint, day string) error {
	f.set[f.key(userID, day)] = true
	return nil
}

type trialFixture struct {
	db      *gorm.DB
	uc      *CheckTrialTrafficUseCase
	flags   *memoryFlags
	alerter *recordingAlerter
	planID  uint
}

func newTrialFixture(t *testing.T) *trialFixture {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.PlanModel{}, &models.UserModel{}, &models.UserTrafficModel{},
	))

	plan := &models.PlanModel{Name: "trial", TransferEnableGB: u64Ptr(3)}
	require.NoError(t, database.Create(plan).Error)

	log := logger.NewLogger()
	flags := newMemoryFlags()
	alerter := &recordingAlerter{}
	uc := NewCheckTrialTrafficUseCase(
		repository.NewUserRepository(database, log),
		repository.NewUserTrafficRepository(database, log),
		flags,
		alerter,
		plan.ID,
		log,
	)

	return &trialFixture{db: database, uc: uc, flags: flags, alerter: alerter, planID: plan.ID}
}

func (f *trialFixture) seedTrialUser(t *testing.T, email string, allowanceGB uint64) uint {
	allowance := allowanceGB << 30
	model := &models.UserModel{
		Email:          email,
		PlanID:         &f.planID,
		ExpiredAt:      timePtr(time.Now().AddDate(0, 1, 0).UTC()),
		TransferEnable: &allowance,
	}
	require.NoError(t, f.db.Create(model).Error)
	return model.ID
}

// seedTodaySample records a usage sample guaranteed to fall inside the
// current business day and before the check's evaluation instant.
func (f *trialFixture) seedTodaySample(t *testing.T, userID uint, upload, download uint64) {
	recordedAt := biztime.NowUTC().Add(-time.Second)
	if dayStart := biztime.StartOfDayUTC(biztime.NowUTC()); recordedAt.Before(dayStart) {
		recordedAt = dayStart
	}
	require.NoError(t, f.db.Create(&models.UserTrafficModel{
		UserID:     userID,
		Upload:     upload,
		Download:   download,
		RecordedAt: recordedAt,
	}).Error)
}

func (f *trialFixture) user(t *testing.T, id uint) *models.UserModel {
	var model models.UserModel
	require.NoError(t, f.db.First(&model, id).Error)
	return &model
}

func TestCheckTrialTraffic_LimitsOverconsumers(t *testing.T) {
	f := newTrialFixture(t)

	// 3 GB allowance, threshold 1 GB. 1.5 GB used today crosses it.
	heavy := f.seedTrialUser(t, "heavy@example.com", 3)
	f.seedTodaySample(t, heavy, 1<<30, 1<<29)

	// 0.5 GB used stays under.
	light := f.seedTrialUser(t, "light@example.com", 3)
	f.seedTodaySample(t, light, 1<<29, 0)

	limited, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, limited)

	heavyModel := f.user(t, heavy)
	require.NotNil(t, heavyModel.SpeedLimit)
	assert.Equal(t, uint(30), *heavyModel.SpeedLimit)
	assert.Nil(t, f.user(t, light).SpeedLimit)

	require.Len(t, f.alerter.Messages(), 1)
	assert.Contains(t, f.alerter.Messages()[0], fmt.Sprintf("trial user %d", heavy))
	assert.True(t, f.flags.IsLimited(context.Background(), heavy, biztime.DayKey(biztime.NowUTC())))
}

func TestCheckTrialTraffic_FlagDedupesWithinDay(t *testing.T) {
	f := newTrialFixture(t)

	userID := f.seedTrialUser(t, "heavy@example.com", 3)
	f.seedTodaySample(t, userID, 2<<30, 0)

	limited, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, limited)

	// Second pass the same day finds the flag and does nothing.
	limited, err = f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, limited)
	assert.Len(t, f.alerter.Messages(), 1, "no repeat alert for an already limited user")
}

func TestCheckTrialTraffic_SkipsUsersWithoutAllowance(t *testing.T) {
	f := newTrialFixture(t)

	model := &models.UserModel{
		Email:     "unprovisioned@example.com",
		PlanID:    &f.planID,
		ExpiredAt: timePtr(time.Now().AddDate(0, 1, 0).UTC()),
	}
	require.NoError(t, f.db.Create(model).Error)
	f.seedTodaySample(t, model.ID, 10<<30, 0)

	limited, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, limited)
	assert.Empty(t, f.alerter.Messages())
}

func TestCheckTrialTraffic_DisabledWithoutTrialPlan(t *testing.T) {
	f := newTrialFixture(t)
	f.uc.trialPlanID = 0

	userID := f.seedTrialUser(t, "heavy@example.com", 3)
	f.seedTodaySample(t, userID, 2<<30, 0)

	limited, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, limited)
	assert.Nil(t, f.user(t, userID).SpeedLimit)
}
