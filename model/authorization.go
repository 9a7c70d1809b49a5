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
package model

import "time"

// Lifecycle states of a cancellation authorization.
const (
	StatusPending = "PENDING" // Imported, nothing sent yet.
	StatusSent    = "SENT"    // Accepted by SAP.
	StatusError   = "ERROR"   // Last send attempt failed.
)

// Authorization is a CT-e cancellation authorization record. Rows imported
// from spreadsheets start as PENDING with no XML attached; the XML is
// attached later (by id, or in bulk by CT-e key) and the record is then
// forwarded to SAP, which moves it to SENT or ERROR.
//
// Invariants: StatusSent implies ErrorMessage == nil; a failed send sets
// ErrorMessage but never clears XMLEvent from a prior successful send.
type Authorization struct {
	ID                  int64      `json:"-"`
	AuthorizationID     string     `json:"authorization_id"`
	AuthorizationNumber string     `json:"record_number"`
	ExternalID          string     `json:"external_id"`
	CteKey              string     `json:"cte_key,omitempty"`
	XML                 *string    `json:"xml"`
	Status              string     `json:"status"`
	ErrorMessage        *string    `json:"error_message"`
	XMLEvent            *string    `json:"xml_event"`
	CreatedAt           time.Time  `json:"created_at"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
}

// ImportResult is the outcome of one spreadsheet import.
// Persisted is false when every row stage succeeded but the bulk insert
// itself failed; callers need to tell "no valid rows" apart from "valid
// rows but storage down".
type ImportResult struct {
	Imported  int  `json:"imported"`
	Rejected  int  `json:"rejected"`
	Persisted bool `json:"persisted"`
}

// XMLImportResult reports the outcome for one file of a batch XML import.
// A file that yields no CT-e key is reported with Updated=0 and an Error;
// it never aborts sibling files.
type XMLImportResult struct {
	Filename string `json:"filename"`
	CteKey   string `json:"cte_key"`
	Updated  int64  `json:"updated"`
	Error    string `json:"error,omitempty"`
}

// StatusCounts aggregates record counts per lifecycle state.
type StatusCounts struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Errors  int64 `json:"errors"`
}
