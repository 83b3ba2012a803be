package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ppda-backend/internal/database"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"
	"ppda-backend/internal/storage"
	ws "ppda-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeSender records notifications and can be told to fail delivery.
type fakeSender struct {
	fail bool
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	if f.fail {
		return errors.New("smtp relay unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

type testEnv struct {
	db *gorm.DB

	agencyRepo      repository.AgencyRepository
	measureTypeRepo repository.MeasureTypeRepository
	measureRepo     repository.MeasureRepository
	userRepo        repository.UserRepository
	indicatorRepo   repository.IndicatorRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager

	notifier *fakeSender
	hub      *ws.Hub
	store    *storage.LocalStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A named shared-cache database keeps all pooled connections on the
	// same in-memory store while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return &testEnv{
		db:              db,
		agencyRepo:      repository.NewAgencyRepository(db),
		measureTypeRepo: repository.NewMeasureTypeRepository(db),
		measureRepo:     repository.NewMeasureRepository(db),
		userRepo:        repository.NewUserRepository(db),
		indicatorRepo:   repository.NewIndicatorRepository(db),
		auditRepo:       repository.NewAuditRepository(db),
		txManager:       repository.NewTransactionManager(db),
		notifier:        &fakeSender{},
		hub:             ws.NewHub(),
		store:           store,
	}
}

func (e *testEnv) createAgency(t *testing.T, name string) model.Agency {
	t.Helper()
	agency := model.Agency{Name: name, Active: true}
	require.NoError(t, e.agencyRepo.Create(context.Background(), &agency))
	return agency
}

func (e *testEnv) createUser(t *testing.T, email string, agencyID *uuid.UUID, approved bool) model.User {
	t.Helper()
	user := model.User{
		Email:    email,
		Password: "$2a$10$unused.hash.for.fixture.accounts000000000000000000000",
		AgencyID: agencyID,
		Approved: approved,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), &user))
	return user
}

func (e *testEnv) createAdmin(t *testing.T, email string) model.User {
	t.Helper()
	admin := model.User{
		Email:    email,
		Password: "$2a$10$unused.hash.for.fixture.accounts000000000000000000000",
		Approved: true,
		IsAdmin:  true,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), &admin))
	return admin
}

func (e *testEnv) createMeasure(t *testing.T, agencyID uuid.UUID, frequency string, slotDescriptions ...string) model.Measure {
	t.Helper()
	measure := model.Measure{
		ShortName:   "M-" + uuid.NewString()[:8],
		LongName:    "Test measure",
		AgencyID:    agencyID,
		Regulatory:  true,
		FormulaKind: model.FormulaKindDichotomous,
		Frequency:   frequency,
		Active:      true,
	}
	for _, desc := range slotDescriptions {
		measure.RequiredDocuments = append(measure.RequiredDocuments, model.RequiredDocument{Description: desc})
	}
	require.NoError(t, e.measureRepo.Create(context.Background(), &measure))
	return measure
}

func (e *testEnv) createIndicator(t *testing.T, measureID, userID uuid.UUID, reportedAt time.Time) model.Indicator {
	t.Helper()
	indicator := model.Indicator{
		MeasureID:  measureID,
		UserID:     userID,
		ReportedAt: reportedAt,
	}
	require.NoError(t, e.indicatorRepo.Create(context.Background(), &indicator))
	return indicator
}

func (e *testEnv) reloadMeasure(t *testing.T, id uuid.UUID) model.Measure {
	t.Helper()
	measure, err := e.measureRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return *measure
}

func (e *testEnv) reloadIndicator(t *testing.T, id uuid.UUID) model.Indicator {
	t.Helper()
	indicator, err := e.indicatorRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return *indicator
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
