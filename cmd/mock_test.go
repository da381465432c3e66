package main

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/pipeline"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, address string) (*pipeline.Classification, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Classification), args.Error(1)
}

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

func classification(address string, cat model.Category, conf float64, nearby int) *pipeline.Classification {
	return &pipeline.Classification{
		Classification: model.Classification{
			Address: address,
			ClassificationResult: model.ClassificationResult{
				Category:    cat,
				Confidence:  conf,
				Reason:      "test reason",
				NearbyCount: nearby,
			},
		},
		PolicyVersion: "v2",
	}
}
