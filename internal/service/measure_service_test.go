package service

import (
	"context"
	"strings"
	"testing"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMeasureFixture(t *testing.T) (*testEnv, MeasureService, model.Agency, model.User) {
	env := newTestEnv(t)
	agency := env.createAgency(t, "SEREMI Medio Ambiente")
	admin := env.createAdmin(t, "admin@ppda.cl")
	svc := NewMeasureService(env.measureRepo, env.agencyRepo, env.measureTypeRepo, env.auditRepo, env.txManager)
	return env, svc, agency, admin
}

func TestCreateMeasureWithSlots(t *testing.T) {
	env, svc, agency, admin := newMeasureFixture(t)

	measure, err := svc.CreateMeasure(context.Background(), admin.ID.String(), CreateMeasureRequest{
		ShortName:         "PM10-01",
		LongName:          "Annual particulate emissions report",
		AgencyID:          agency.ID.String(),
		FormulaKind:       model.FormulaKindNumber,
		Frequency:         model.FrequencyAnnual,
		RequiredDocuments: []string{"Emission inventory", "Lab certificate"},
	})
	require.NoError(t, err)

	assert.Equal(t, "PM10-01", measure.ShortName)
	assert.True(t, measure.Regulatory) // defaults to regulatory
	assert.True(t, measure.Active)
	assert.Nil(t, measure.NextDueDate) // due date only appears after a first approval
	require.Len(t, measure.RequiredDocuments, 2)

	entries, _, err := env.auditRepo.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionCreateMeasure, entries[0].Action)
}

func TestCreateMeasureRejectsBadEnums(t *testing.T) {
	_, svc, agency, admin := newMeasureFixture(t)

	_, err := svc.CreateMeasure(context.Background(), admin.ID.String(), CreateMeasureRequest{
		ShortName: "X", LongName: "X", AgencyID: agency.ID.String(),
		FormulaKind: "SOMETHING_ELSE", Frequency: model.FrequencyAnnual,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CreateMeasure(context.Background(), admin.ID.String(), CreateMeasureRequest{
		ShortName: "X", LongName: "X", AgencyID: agency.ID.String(),
		FormulaKind: model.FormulaKindFormula, Frequency: "MONTHLY",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestUpdateMeasureReplacesUnreferencedSlots(t *testing.T) {
	env, svc, agency, admin := newMeasureFixture(t)
	measure := env.createMeasure(t, agency.ID, model.FrequencyAnnual, "Old slot")

	newSlots := []string{"First new slot", "Second new slot"}
	updated, err := svc.UpdateMeasure(context.Background(), admin.ID.String(), measure.ID.String(), UpdateMeasureRequest{
		RequiredDocuments: &newSlots,
	})
	require.NoError(t, err)

	require.Len(t, updated.RequiredDocuments, 2)
	descriptions := []string{updated.RequiredDocuments[0].Description, updated.RequiredDocuments[1].Description}
	assert.ElementsMatch(t, newSlots, descriptions)
}

func TestUpdateMeasureSlotReplacementConflictsWhenReferenced(t *testing.T) {
	env, svc, agency, admin := newMeasureFixture(t)
	user := env.createUser(t, "reporter@agency.cl", &agency.ID, true)
	measure := env.createMeasure(t, agency.ID, model.FrequencyAnnual, "Report")

	// Submit against the slot so an uploaded document references it.
	submission := NewSubmissionService(env.measureRepo, env.indicatorRepo, env.userRepo, env.auditRepo,
		env.txManager, env.store, env.hub)
	slots := slotsByDescription(t, env, measure)
	err := submission.Submit(context.Background(), measure.ID.String(), user.ID.String(), map[string]FileUpload{
		slots["Report"].ID.String(): {Filename: "report.pdf", Content: strings.NewReader("data")},
	})
	require.NoError(t, err)

	newSlots := []string{"Replacement"}
	_, err = svc.UpdateMeasure(context.Background(), admin.ID.String(), measure.ID.String(), UpdateMeasureRequest{
		RequiredDocuments: &newSlots,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	// The original slot survived the rejected update.
	reloaded := slotsByDescription(t, env, measure)
	_, stillThere := reloaded["Report"]
	assert.True(t, stillThere)
}

func TestDeleteMeasureDeactivatesWhenReferenced(t *testing.T) {
	env, svc, agency, admin := newMeasureFixture(t)
	user := env.createUser(t, "reporter@agency.cl", &agency.ID, true)

	referenced := env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	env.createIndicator(t, referenced.ID, user.ID, date(2024, 1, 1))

	deactivated, err := svc.DeleteMeasure(context.Background(), admin.ID.String(), referenced.ID.String())
	require.NoError(t, err)
	assert.True(t, deactivated)

	reloaded := env.reloadMeasure(t, referenced.ID)
	assert.False(t, reloaded.Active)
}

func TestDeleteMeasureRemovesUnreferenced(t *testing.T) {
	env, svc, agency, admin := newMeasureFixture(t)
	measure := env.createMeasure(t, agency.ID, model.FrequencyAnnual, "Slot")

	deactivated, err := svc.DeleteMeasure(context.Background(), admin.ID.String(), measure.ID.String())
	require.NoError(t, err)
	assert.False(t, deactivated)

	_, err = env.measureRepo.FindByID(context.Background(), measure.ID)
	assert.Error(t, err)
}

func TestRequiredDocumentsAgencyEnforcement(t *testing.T) {
	env, svc, agency, _ := newMeasureFixture(t)
	other := env.createAgency(t, "CONAF")
	measure := env.createMeasure(t, agency.ID, model.FrequencyAnnual, "Report")

	// Caller from the owning agency sees the slots.
	docs, err := svc.RequiredDocuments(context.Background(), measure.ID.String(), agency.ID.String(), false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Report", docs[0].Description)

	// Caller from another agency is refused.
	_, err = svc.RequiredDocuments(context.Background(), measure.ID.String(), other.ID.String(), false)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))

	// Admins bypass the agency check.
	docs, err = svc.RequiredDocuments(context.Background(), measure.ID.String(), "", true)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListMeasuresOmitsInactive(t *testing.T) {
	env, svc, agency, admin := newMeasureFixture(t)
	user := env.createUser(t, "reporter@agency.cl", &agency.ID, true)

	active := env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	retired := env.createMeasure(t, agency.ID, model.FrequencyAnnual)
	env.createIndicator(t, retired.ID, user.ID, date(2024, 1, 1))

	_, err := svc.DeleteMeasure(context.Background(), admin.ID.String(), retired.ID.String())
	require.NoError(t, err)

	measures, err := svc.ListMeasures(context.Background())
	require.NoError(t, err)
	require.Len(t, measures, 1)
	assert.Equal(t, active.ID.String(), measures[0].ID)
}
