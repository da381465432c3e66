package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/placectx"
)

// --- Builder Mock ---

type mockBuilder struct {
	mock.Mock
}

func (m *mockBuilder) Build(ctx context.Context, address string) *placectx.PlaceContext {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*placectx.PlaceContext)
}

// --- Decider Mock ---

type mockDecider struct {
	mock.Mock
}

func (m *mockDecider) Decide(ctx context.Context, cc *model.ClassificationContext) model.ClassificationResult {
	args := m.Called(ctx, cc)
	return args.Get(0).(model.ClassificationResult)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Record(ctx context.Context, c model.Classification, policyVersion string) (*model.ClassificationRecord, error) {
	args := m.Called(ctx, c, policyVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClassificationRecord), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit int) ([]model.ClassificationRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClassificationRecord), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
