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

func TestDashboardBuckets(t *testing.T) {
	env := newTestEnv(t)
	agency := env.createAgency(t, "SEREMI Salud")
	user := env.createUser(t, "reporter@salud.cl", &agency.ID, true)

	approved := env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	rejected := env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	pending := env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	untouched := env.createMeasure(t, agency.ID, model.FrequencyAnnual)

	now := time.Now().UTC()

	approvedInd := env.createIndicator(t, approved.ID, user.ID, now)
	approvedInd.MeetsRequirements = true
	approvedInd.ApprovedAt = &now
	require.NoError(t, env.indicatorRepo.Update(context.Background(), &approvedInd))

	rejectedInd := env.createIndicator(t, rejected.ID, user.ID, now)
	rejectedInd.RejectedAt = &now
	rejectedInd.RejectionReason = "incomplete"
	require.NoError(t, env.indicatorRepo.Update(context.Background(), &rejectedInd))

	env.createIndicator(t, pending.ID, user.ID, now)

	svc := NewDashboardService(env.measureRepo, env.indicatorRepo, env.userRepo)
	dashboard, err := svc.Dashboard(context.Background(), user.ID.String())
	require.NoError(t, err)

	require.Len(t, dashboard.Approved, 1)
	assert.Equal(t, approved.ID.String(), dashboard.Approved[0].Measure.ID)

	require.Len(t, dashboard.Rejected, 1)
	assert.Equal(t, rejected.ID.String(), dashboard.Rejected[0].Measure.ID)

	require.Len(t, dashboard.PendingReview, 1)
	assert.Equal(t, pending.ID.String(), dashboard.PendingReview[0].Measure.ID)

	require.Len(t, dashboard.PendingCompletion, 1)
	assert.Equal(t, untouched.ID.String(), dashboard.PendingCompletion[0].Measure.ID)
	assert.Nil(t, dashboard.PendingCompletion[0].IndicatorID)
}

func TestDashboardMostRecentIndicatorWins(t *testing.T) {
	env := newTestEnv(t)
	agency := env.createAgency(t, "SEREMI Salud")
	user := env.createUser(t, "reporter@salud.cl", &agency.ID, true)
	measure := env.createMeasure(t, agency.ID, model.FrequencyAnnual)

	old := time.Now().UTC().Add(-48 * time.Hour)
	oldInd := env.createIndicator(t, measure.ID, user.ID, old)
	oldInd.MeetsRequirements = true
	oldInd.ApprovedAt = &old
	require.NoError(t, env.indicatorRepo.Update(context.Background(), &oldInd))

	// A newer pending resubmission supersedes the earlier approval.
	newInd := env.createIndicator(t, measure.ID, user.ID, time.Now().UTC())

	svc := NewDashboardService(env.measureRepo, env.indicatorRepo, env.userRepo)
	dashboard, err := svc.Dashboard(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.Empty(t, dashboard.Approved)
	require.Len(t, dashboard.PendingReview, 1)
	require.NotNil(t, dashboard.PendingReview[0].IndicatorID)
	assert.Equal(t, newInd.ID.String(), *dashboard.PendingReview[0].IndicatorID)
}

func TestDashboardOnlyShowsOwnAgencyMeasures(t *testing.T) {
	env := newTestEnv(t)
	agency := env.createAgency(t, "SEREMI Salud")
	other := env.createAgency(t, "SAG")
	user := env.createUser(t, "reporter@salud.cl", &agency.ID, true)

	env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	env.createMeasure(t, other.ID, model.FrequencyAnnual)

	svc := NewDashboardService(env.measureRepo, env.indicatorRepo, env.userRepo)
	dashboard, err := svc.Dashboard(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.Len(t, dashboard.PendingCompletion, 1)
	assert.Empty(t, dashboard.Approved)
	assert.Empty(t, dashboard.PendingReview)
	assert.Empty(t, dashboard.Rejected)
}

func TestDashboardWithoutAgencyIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "orphan@nowhere.cl", nil, true)

	svc := NewDashboardService(env.measureRepo, env.indicatorRepo, env.userRepo)
	_, err := svc.Dashboard(context.Background(), user.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}
