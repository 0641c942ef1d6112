package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"verge/internal/domain/traffic"
	"verge/internal/infrastructure/persistence/models"
	"verge/internal/infrastructure/repository"
	"verge/internal/shared/biztime"
	"verge/internal/shared/db"
	"verge/internal/shared/logger"
)

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Alert(_ context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *recordingAlerter) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type fixture struct {
	db      *gorm.DB
	uc      *ResetTrafficUseCase
	alerter *recordingAlerter
}

func newFixture(t *testing.T, defaultPolicy traffic.ResetPolicy) *fixture {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.PlanModel{}, &models.UserModel{}, &models.UserTrafficModel{},
	))

	log := logger.NewLogger()
	alerter := &recordingAlerter{}
	uc := NewResetTrafficUseCase(
		repository.NewUserRepository(database, log),
		repository.NewPlanRepository(database, log),
		db.NewTransactionManager(database),
		alerter,
		defaultPolicy,
		log,
	)
	uc.sleep = func(time.Duration) {}

	return &fixture{db: database, uc: uc, alerter: alerter}
}

func (f *fixture) seedPlan(t *testing.T, name string, quotaGB *uint64, policy *int) uint {
	model := &models.PlanModel{Name: name, TransferEnableGB: quotaGB, ResetPolicy: policy}
	require.NoError(t, f.db.Create(model).Error)
	return model.ID
}

func (f *fixture) seedUser(t *testing.T, email string, planID *uint, expiredAt *time.Time) uint {
	model := &models.UserModel{
		Email:     email,
		PlanID:    planID,
		ExpiredAt: expiredAt,
		Upload:    5 << 30,
		Download:  7 << 30,
	}
	require.NoError(t, f.db.Create(model).Error)
	return model.ID
}

func (f *fixture) user(t *testing.T, id uint) *models.UserModel {
	var model models.UserModel
	require.NoError(t, f.db.First(&model, id).Error)
	return &model
}

func u64Ptr(v uint64) *uint64 { return &v }

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// bizDate builds a business-timezone timestamp, the form ExecuteAt expects.
func bizDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, biztime.Location())
}

func TestResetTraffic_ExpireDayAnniversary(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	now := bizDate(2026, time.March, 15)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(1))
	// Same day-of-month two months out: well clear of the 25-day window.
	userID := f.seedUser(t, "due@example.com", &planID, timePtr(now.AddDate(0, 2, 0).UTC()))

	report, err := f.uc.ExecuteAt(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Reset)

	u := f.user(t, userID)
	assert.Equal(t, uint64(0), u.Upload)
	assert.Equal(t, uint64(0), u.Download)
	require.NotNil(t, u.TransferEnable)
	assert.Equal(t, uint64(10<<30), *u.TransferEnable)
}

func TestResetTraffic_SuppressedNearExpiry(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	now := bizDate(2026, time.March, 15)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(1))
	// Lapses later the same day: anniversary matches but the account is
	// inside the 25-day window.
	userID := f.seedUser(t, "expiring@example.com", &planID, timePtr(now.Add(8*time.Hour).UTC()))

	report, err := f.uc.ExecuteAt(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)
	assert.Equal(t, 0, report.Reset)

	u := f.user(t, userID)
	assert.Equal(t, uint64(5<<30), u.Upload, "no mutation inside the expiry window")
	assert.Nil(t, u.TransferEnable)
}

func TestResetTraffic_MonthFirstDayViaGlobalDefault(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	firstOfMonth := bizDate(2026, time.June, 1)

	// Plan declares no policy: the group falls back to the global default.
	planID := f.seedPlan(t, "legacy", u64Ptr(50), nil)
	userID := f.seedUser(t, "legacy@example.com", &planID, timePtr(firstOfMonth.AddDate(1, 0, 0).UTC()))

	report, err := f.uc.ExecuteAt(context.Background(), firstOfMonth)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reset)
	require.NotNil(t, f.user(t, userID).TransferEnable)
	assert.Equal(t, uint64(50<<30), *f.user(t, userID).TransferEnable)

	// Not the 1st: nothing due.
	f2 := newFixture(t, traffic.PolicyMonthFirstDay)
	planID2 := f2.seedPlan(t, "legacy", u64Ptr(50), nil)
	f2.seedUser(t, "legacy@example.com", &planID2, timePtr(firstOfMonth.AddDate(1, 0, 0).UTC()))
	report, err = f2.uc.ExecuteAt(context.Background(), bizDate(2026, time.June, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Reset)
}

func TestResetTraffic_NeverPolicyShortCircuits(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	firstOfMonth := bizDate(2026, time.June, 1)

	planID := f.seedPlan(t, "frozen", u64Ptr(10), intPtr(2))
	userID := f.seedUser(t, "frozen@example.com", &planID, timePtr(firstOfMonth.AddDate(1, 0, 0).UTC()))

	report, err := f.uc.ExecuteAt(context.Background(), firstOfMonth)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Groups, "disabled groups are skipped without evaluation")
	assert.Equal(t, 0, report.Evaluated)
	assert.Equal(t, uint64(5<<30), f.user(t, userID).Upload)
}

func TestResetTraffic_SkipConditions(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	firstOfMonth := bizDate(2026, time.June, 1)
	farFuture := timePtr(firstOfMonth.AddDate(1, 0, 0).UTC())

	quotalessPlan := f.seedPlan(t, "unprovisioned", nil, intPtr(0))
	quotalessUser := f.seedUser(t, "noquota@example.com", &quotalessPlan, farFuture)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(0))
	f.seedUser(t, "planless@example.com", nil, farFuture)
	expiredUser := f.seedUser(t, "expired@example.com", &planID, timePtr(firstOfMonth.Add(-time.Hour).UTC()))
	lifetimeUser := f.seedUser(t, "lifetime@example.com", &planID, nil)

	report, err := f.uc.ExecuteAt(context.Background(), firstOfMonth)
	require.NoError(t, err)

	// The quota-less plan's user was due but silently skipped; everyone
	// else never became a candidate.
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 0, report.Reset)
	assert.Equal(t, 1, report.Skipped)

	for _, id := range []uint{quotalessUser, expiredUser, lifetimeUser} {
		assert.Equal(t, uint64(5<<30), f.user(t, id).Upload, "user %d must be untouched", id)
	}
	assert.Empty(t, f.alerter.Messages(), "skips are not failures")
}

func TestResetTraffic_IdempotentWithinEvaluationDay(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	now := bizDate(2026, time.March, 15)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(1))
	userID := f.seedUser(t, "due@example.com", &planID, timePtr(now.AddDate(0, 2, 0).UTC()))

	first, err := f.uc.ExecuteAt(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, first.Reset)
	afterFirst := f.user(t, userID)

	second, err := f.uc.ExecuteAt(context.Background(), now)
	require.NoError(t, err)
	// The anchor is unchanged, so the same accounts are due again, but the
	// mutation writes absolute values: the final state is identical.
	assert.Equal(t, 1, second.Reset)

	afterSecond := f.user(t, userID)
	assert.Equal(t, afterFirst.Upload, afterSecond.Upload)
	assert.Equal(t, afterFirst.Download, afterSecond.Download)
	assert.Equal(t, *afterFirst.TransferEnable, *afterSecond.TransferEnable)
}

// failingRunner rejects every transaction with a fixed error, after
// optionally delegating the first failAttempts calls only.
type failingRunner struct {
	err          error
	failAttempts int
	delegate     TransactionRunner

	calls int
}

func (r *failingRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if r.failAttempts == 0 || r.calls <= r.failAttempts {
		return r.err
	}
	return r.delegate.RunInTransaction(ctx, fn)
}

func deadlockError() error {
	return &mysql.MySQLError{
		Number:   1213,
		SQLState: [5]byte{'4', '0', '0', '0', '1'},
		Message:  "Deadlock found when trying to get lock",
	}
}

func TestResetTraffic_RetryExhaustionAlertsOnce(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	now := bizDate(2026, time.March, 15)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(1))
	userID := f.seedUser(t, "due@example.com", &planID, timePtr(now.AddDate(0, 2, 0).UTC()))

	runner := &failingRunner{err: deadlockError()}
	f.uc.tm = runner
	var sleeps []time.Duration
	f.uc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	report, err := f.uc.ExecuteAt(context.Background(), now)
	require.Error(t, err)

	assert.Equal(t, 3, runner.calls, "transient contention gets three attempts total")
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeps)
	assert.Len(t, f.alerter.Messages(), 1, "exactly one alert per fatal failure")
	assert.Contains(t, f.alerter.Messages()[0], "traffic reset failed")

	assert.Equal(t, 0, report.Reset)
	assert.Equal(t, uint64(5<<30), f.user(t, userID).Upload, "nothing committed")
}

func TestResetTraffic_NonTransientFailsFast(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	now := bizDate(2026, time.March, 15)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(1))
	f.seedUser(t, "due@example.com", &planID, timePtr(now.AddDate(0, 2, 0).UTC()))

	runner := &failingRunner{err: assert.AnError}
	f.uc.tm = runner
	slept := false
	f.uc.sleep = func(time.Duration) { slept = true }

	_, err := f.uc.ExecuteAt(context.Background(), now)
	require.Error(t, err)

	assert.Equal(t, 1, runner.calls, "non-transient failures are not retried")
	assert.False(t, slept)
	assert.Len(t, f.alerter.Messages(), 1)
}

func TestResetTraffic_TransientThenSuccess(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)
	now := bizDate(2026, time.March, 15)

	planID := f.seedPlan(t, "pro", u64Ptr(10), intPtr(1))
	userID := f.seedUser(t, "due@example.com", &planID, timePtr(now.AddDate(0, 2, 0).UTC()))

	runner := &failingRunner{err: deadlockError(), failAttempts: 1, delegate: f.uc.tm}
	f.uc.tm = runner
	var sleeps []time.Duration
	f.uc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	report, err := f.uc.ExecuteAt(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, []time.Duration{5 * time.Second}, sleeps)
	assert.Empty(t, f.alerter.Messages(), "recovered runs do not page")
	assert.Equal(t, 1, report.Reset)
	assert.Equal(t, uint64(0), f.user(t, userID).Upload)
}

func TestResetTraffic_QuarterCycleGroups(t *testing.T) {
	f := newFixture(t, traffic.PolicyMonthFirstDay)

	planID := f.seedPlan(t, "quarterly", u64Ptr(30), intPtr(5))
	// Anchor November 10th: due months are Nov, Aug, May, Feb.
	anchor := bizDate(2026, time.November, 10)
	userID := f.seedUser(t, "q@example.com", &planID, timePtr(anchor.UTC()))

	report, err := f.uc.ExecuteAt(context.Background(), bizDate(2026, time.February, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reset)
	assert.Equal(t, uint64(30<<30), *f.user(t, userID).TransferEnable)

	// Reset counters and verify an off-cycle month does nothing.
	require.NoError(t, f.db.Model(&models.UserModel{}).Where("id = ?", userID).
		Update("upload", 5<<30).Error)
	report, err = f.uc.ExecuteAt(context.Background(), bizDate(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Reset)
	assert.Equal(t, uint64(5<<30), f.user(t, userID).Upload)
}
