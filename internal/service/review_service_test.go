package service

import (
	"context"
	"testing"
	"time"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReviewFixture(t *testing.T, frequency string) (*testEnv, *reviewService, model.Measure, model.Indicator, model.User) {
	env := newTestEnv(t)
	agency := env.createAgency(t, "SEREMI Medio Ambiente")
	submitter := env.createUser(t, "submitter@agency.cl", &agency.ID, true)
	measure := env.createMeasure(t, agency.ID, frequency, "Annual report")
	indicator := env.createIndicator(t, measure.ID, submitter.ID, date(2024, time.January, 10))

	svc := NewReviewService(env.indicatorRepo, env.measureRepo, env.userRepo, env.auditRepo,
		env.txManager, env.notifier, env.hub).(*reviewService)
	return env, svc, measure, indicator, submitter
}

func TestApproveSetsNextDueDate(t *testing.T) {
	env, svc, measure, indicator, submitter := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	approvedAt := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return approvedAt }

	warning, err := svc.Approve(context.Background(), indicator.ID.String(), admin.ID.String())
	require.NoError(t, err)
	assert.Empty(t, warning)

	got := env.reloadIndicator(t, indicator.ID)
	assert.True(t, got.MeetsRequirements)
	require.NotNil(t, got.ApprovedAt)
	assert.Nil(t, got.RejectedAt)
	assert.Empty(t, got.RejectionReason)

	reloaded := env.reloadMeasure(t, measure.ID)
	require.NotNil(t, reloaded.NextDueDate)
	assert.Equal(t, date(2025, time.January, 15), reloaded.NextDueDate.UTC())

	// The submitter is notified after the approval committed.
	assert.Equal(t, []string{submitter.Email}, env.notifier.sent)
}

func TestApproveOnLeapDayClampsDueDate(t *testing.T) {
	env, svc, measure, indicator, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	svc.now = func() time.Time { return time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC) }

	_, err := svc.Approve(context.Background(), indicator.ID.String(), admin.ID.String())
	require.NoError(t, err)

	reloaded := env.reloadMeasure(t, measure.ID)
	require.NotNil(t, reloaded.NextDueDate)
	assert.Equal(t, date(2025, time.February, 28), reloaded.NextDueDate.UTC())
}

func TestApproveOneTimeMeasureClearsDueDate(t *testing.T) {
	env, svc, measure, indicator, _ := newReviewFixture(t, model.FrequencyOneTime)
	admin := env.createAdmin(t, "admin@ppda.cl")

	// Seed a stale due date to prove approval clears it.
	stale := date(2024, time.June, 1)
	require.NoError(t, env.measureRepo.UpdateNextDueDate(context.Background(), measure.ID, &stale))

	_, err := svc.Approve(context.Background(), indicator.ID.String(), admin.ID.String())
	require.NoError(t, err)

	reloaded := env.reloadMeasure(t, measure.ID)
	assert.Nil(t, reloaded.NextDueDate)
}

func TestRejectRequiresReason(t *testing.T) {
	env, svc, _, indicator, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	for _, reason := range []string{"", "   ", "\n\t"} {
		err := svc.Reject(context.Background(), indicator.ID.String(), admin.ID.String(), reason)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	}

	// Nothing changed on the indicator.
	got := env.reloadIndicator(t, indicator.ID)
	assert.Nil(t, got.RejectedAt)
	assert.False(t, got.MeetsRequirements)
}

func TestRejectLeavesDueDateUntouched(t *testing.T) {
	env, svc, measure, indicator, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	existing := date(2024, time.September, 30)
	require.NoError(t, env.measureRepo.UpdateNextDueDate(context.Background(), measure.ID, &existing))

	err := svc.Reject(context.Background(), indicator.ID.String(), admin.ID.String(), "missing lab certification")
	require.NoError(t, err)

	got := env.reloadIndicator(t, indicator.ID)
	assert.False(t, got.MeetsRequirements)
	require.NotNil(t, got.RejectedAt)
	assert.Nil(t, got.ApprovedAt)
	assert.Equal(t, "missing lab certification", got.RejectionReason)

	reloaded := env.reloadMeasure(t, measure.ID)
	require.NotNil(t, reloaded.NextDueDate)
	assert.Equal(t, existing, reloaded.NextDueDate.UTC())
}

func TestDecisionsAreReversible(t *testing.T) {
	env, svc, measure, indicator, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	require.NoError(t, svc.Reject(context.Background(), indicator.ID.String(), admin.ID.String(), "wrong period"))

	approvedAt := time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return approvedAt }
	_, err := svc.Approve(context.Background(), indicator.ID.String(), admin.ID.String())
	require.NoError(t, err)

	// The approval fully supersedes the earlier rejection.
	got := env.reloadIndicator(t, indicator.ID)
	assert.True(t, got.MeetsRequirements)
	assert.Nil(t, got.RejectedAt)
	assert.Empty(t, got.RejectionReason)
	require.NotNil(t, got.ApprovedAt)

	reloaded := env.reloadMeasure(t, measure.ID)
	require.NotNil(t, reloaded.NextDueDate)
	assert.Equal(t, date(2025, time.March, 3), reloaded.NextDueDate.UTC())
}

func TestApproveWarnsWhenNotificationFails(t *testing.T) {
	env, svc, _, indicator, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")
	env.notifier.fail = true

	warning, err := svc.Approve(context.Background(), indicator.ID.String(), admin.ID.String())
	require.NoError(t, err)
	assert.NotEmpty(t, warning)

	// The approval itself still committed.
	got := env.reloadIndicator(t, indicator.ID)
	assert.True(t, got.MeetsRequirements)
}

func TestApproveUnknownIndicator(t *testing.T) {
	env, svc, _, _, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	_, err := svc.Approve(context.Background(), "3f0b8f6e-0000-0000-0000-000000000000", admin.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestApproveWritesAuditEntry(t *testing.T) {
	env, svc, _, indicator, _ := newReviewFixture(t, model.FrequencyAnnual)
	admin := env.createAdmin(t, "admin@ppda.cl")

	_, err := svc.Approve(context.Background(), indicator.ID.String(), admin.ID.String())
	require.NoError(t, err)

	entries, total, err := env.auditRepo.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, model.ActionApproveIndicator, entries[0].Action)
	assert.Equal(t, indicator.ID.String(), entries[0].EntityID)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, admin.ID, *entries[0].UserID)
}
