package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmissionFixture(t *testing.T) (*testEnv, SubmissionService, model.Measure, model.User) {
	env := newTestEnv(t)
	agency := env.createAgency(t, "SAG")
	user := env.createUser(t, "reporter@sag.cl", &agency.ID, true)
	measure := env.createMeasure(t, agency.ID, model.FrequencyAnnual, "Emission inventory", "Lab certificate")

	svc := NewSubmissionService(env.measureRepo, env.indicatorRepo, env.userRepo, env.auditRepo,
		env.txManager, env.store, env.hub)
	return env, svc, measure, user
}

func slotsByDescription(t *testing.T, env *testEnv, measure model.Measure) map[string]model.RequiredDocument {
	t.Helper()
	loaded, err := env.measureRepo.FindByIDWithDocuments(context.Background(), measure.ID)
	require.NoError(t, err)

	result := make(map[string]model.RequiredDocument, len(loaded.RequiredDocuments))
	for _, doc := range loaded.RequiredDocuments {
		result[doc.Description] = doc
	}
	return result
}

func TestSubmitCreatesIndicatorAndDocuments(t *testing.T) {
	env, svc, measure, user := newSubmissionFixture(t)
	slots := slotsByDescription(t, env, measure)

	files := map[string]FileUpload{
		slots["Emission inventory"].ID.String(): {Filename: "inventory.pdf", Content: strings.NewReader("pdf bytes")},
		slots["Lab certificate"].ID.String():    {Filename: "cert.xlsx", Content: strings.NewReader("xlsx bytes")},
	}

	err := svc.Submit(context.Background(), measure.ID.String(), user.ID.String(), files)
	require.NoError(t, err)

	indicators, total, err := env.indicatorRepo.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	got := indicators[0]
	assert.False(t, got.MeetsRequirements)
	assert.Nil(t, got.ApprovedAt)
	assert.Nil(t, got.RejectedAt)
	assert.False(t, got.ReportedAt.IsZero())
	require.Len(t, got.Documents, 2)

	for _, doc := range got.Documents {
		// Stored name: random hex, "_doc_", owning slot id, original extension.
		assert.Contains(t, doc.FilePath, "_doc_"+doc.RequiredDocumentID.String())

		ext := doc.FilePath[strings.LastIndex(doc.FilePath, "."):]
		assert.Contains(t, []string{".pdf", ".xlsx"}, ext)

		_, err := os.Stat(doc.FilePath)
		assert.NoError(t, err, "uploaded file should exist on disk")
	}

	// Audit entry for the submission.
	entries, _, err := env.auditRepo.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionSubmitIndicator, entries[0].Action)
}

func TestSubmitListsAllMissingSlots(t *testing.T) {
	env, svc, measure, user := newSubmissionFixture(t)

	err := svc.Submit(context.Background(), measure.ID.String(), user.ID.String(), map[string]FileUpload{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// All missing slots are reported at once, alphabetically.
	assert.Contains(t, err.Error(), "Emission inventory")
	assert.Contains(t, err.Error(), "Lab certificate")

	// Nothing was persisted.
	_, total, listErr := env.indicatorRepo.List(context.Background(), 1, 10)
	require.NoError(t, listErr)
	assert.EqualValues(t, 0, total)
}

func TestSubmitPartialUploadIsRejected(t *testing.T) {
	env, svc, measure, user := newSubmissionFixture(t)
	slots := slotsByDescription(t, env, measure)

	files := map[string]FileUpload{
		slots["Emission inventory"].ID.String(): {Filename: "inventory.pdf", Content: strings.NewReader("pdf bytes")},
	}

	err := svc.Submit(context.Background(), measure.ID.String(), user.ID.String(), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lab certificate")
	assert.NotContains(t, err.Error(), "Emission inventory")
}

func TestSubmitForOtherAgencyMeasureIsForbidden(t *testing.T) {
	env, svc, measure, _ := newSubmissionFixture(t)

	otherAgency := env.createAgency(t, "CONAF")
	outsider := env.createUser(t, "outsider@conaf.cl", &otherAgency.ID, true)

	err := svc.Submit(context.Background(), measure.ID.String(), outsider.ID.String(), map[string]FileUpload{})
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestSubmitWithoutAgencyIsForbidden(t *testing.T) {
	env, svc, measure, _ := newSubmissionFixture(t)
	orphan := env.createUser(t, "orphan@nowhere.cl", nil, true)

	err := svc.Submit(context.Background(), measure.ID.String(), orphan.ID.String(), map[string]FileUpload{})
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}
