/*
Copyright 2025 FreteOps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/freteops/ctecancel/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) BulkInsertAuthorizations(ctx context.Context, records []*model.Authorization) (int64, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) GetAuthorizationByID(ctx context.Context, id string) (*model.Authorization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Authorization), args.Error(1)
}

func (m *MockDataSource) ListAuthorizations(ctx context.Context, q, status string, offset, limit int) ([]*model.Authorization, int64, error) {
	args := m.Called(ctx, q, status, offset, limit)
	var items []*model.Authorization
	if args.Get(0) != nil {
		items = args.Get(0).([]*model.Authorization)
	}
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *MockDataSource) CountAuthorizationsByStatus(ctx context.Context, status string) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) UpdateAuthorizationXML(ctx context.Context, id, xml string) (*model.Authorization, error) {
	args := m.Called(ctx, id, xml)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Authorization), args.Error(1)
}

func (m *MockDataSource) UpdateXMLByCteKey(ctx context.Context, cteKey, xml string) (int64, error) {
	args := m.Called(ctx, cteKey, xml)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) UpdateSendOutcome(ctx context.Context, record *model.Authorization) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
