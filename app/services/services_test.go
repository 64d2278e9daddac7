package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/database/migrations"
	"github.com/cherrydine/cherrydine/pkg/session"
	"github.com/cherrydine/cherrydine/pkg/testkit"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyOrderPlaced(ctx context.Context, order models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockNotifier) NotifyStatusChanged(ctx context.Context, order models.Order) error {
	return m.Called(ctx, order).Error(0)
}

// quietNotifier accepts any notification.
func quietNotifier() *mockNotifier {
	n := &mockNotifier{}
	n.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(nil).Maybe()
	n.On("NotifyStatusChanged", mock.Anything, mock.Anything).Return(nil).Maybe()
	return n
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testkit.DB(t, migrations.All()...)
}

func newSession() *session.Session {
	return session.FromContext(context.Background())
}
