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

package ctecancel

import (
	"context"

	"github.com/freteops/ctecancel/config"
	"github.com/freteops/ctecancel/database"
	"github.com/freteops/ctecancel/model"
)

// CteCancel represents the main struct for the cancellation-authorization
// service. It orchestrates spreadsheet imports, XML attachment and the SAP
// send step over the injected datasource.
type CteCancel struct {
	datasource database.IDataSource
	sap        *SapClient
}

// NewCteCancel initializes a new instance of CteCancel with the provided
// database datasource. It fetches the configuration and builds the SAP
// client from it.
//
// Parameters:
// - db database.IDataSource: The datasource for database operations.
//
// Returns:
// - *CteCancel: A pointer to the newly created CteCancel instance.
// - error: An error if configuration cannot be fetched.
func NewCteCancel(db database.IDataSource) (*CteCancel, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	newCteCancel := &CteCancel{datasource: db, sap: NewSapClient(configuration.Sap)}
	return newCteCancel, nil
}

// GetAuthorization retrieves a single record by id.
func (s *CteCancel) GetAuthorization(ctx context.Context, id string) (*model.Authorization, error) {
	return s.datasource.GetAuthorizationByID(ctx, id)
}

// ListAuthorizations retrieves a filtered, paginated page of records plus
// the total matching count.
func (s *CteCancel) ListAuthorizations(ctx context.Context, q, status string, offset, limit int) ([]*model.Authorization, int64, error) {
	return s.datasource.ListAuthorizations(ctx, q, status, offset, limit)
}

// GetStats computes record counts per lifecycle state. The three counts
// are independent read-only aggregates, so they are issued concurrently.
func (s *CteCancel) GetStats(ctx context.Context) (*model.StatusCounts, error) {
	type countResult struct {
		status string
		count  int64
		err    error
	}

	statuses := []string{model.StatusPending, model.StatusSent, model.StatusError}
	results := make(chan countResult, len(statuses))
	for _, status := range statuses {
		go func(status string) {
			count, err := s.datasource.CountAuthorizationsByStatus(ctx, status)
			results <- countResult{status: status, count: count, err: err}
		}(status)
	}

	counts := &model.StatusCounts{}
	for range statuses {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		switch r.status {
		case model.StatusPending:
			counts.Pending = r.count
		case model.StatusSent:
			counts.Sent = r.count
		case model.StatusError:
			counts.Errors = r.count
		}
	}
	return counts, nil
}
