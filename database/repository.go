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

package database

import (
	"context"

	"github.com/freteops/ctecancel/model"
)

// IDataSource defines the interface for data source operations.
type IDataSource interface {
	authorization // Interface for authorization-record operations
}

// authorization defines methods for handling authorization records.
type authorization interface {
	BulkInsertAuthorizations(ctx context.Context, records []*model.Authorization) (int64, error)                        // Bulk-inserts records, skipping natural-key duplicates
	GetAuthorizationByID(ctx context.Context, id string) (*model.Authorization, error)                                  // Retrieves a record by ID
	ListAuthorizations(ctx context.Context, q, status string, offset, limit int) ([]*model.Authorization, int64, error) // Retrieves a filtered page plus total count
	CountAuthorizationsByStatus(ctx context.Context, status string) (int64, error)                                      // Counts records in one lifecycle state
	UpdateAuthorizationXML(ctx context.Context, id, xml string) (*model.Authorization, error)                           // Attaches an XML payload by ID
	UpdateXMLByCteKey(ctx context.Context, cteKey, xml string) (int64, error)                                           // Attaches an XML payload to every record matching the CT-e key
	UpdateSendOutcome(ctx context.Context, record *model.Authorization) error                                           // Persists a send-step state transition
}
