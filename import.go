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
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/freteops/ctecancel/internal/apierror"
	"github.com/freteops/ctecancel/internal/logbuf"
	"github.com/freteops/ctecancel/model"
)

// rowCandidate is the pre-validation form of an imported row: resolved
// cells coerced to trimmed strings, possibly empty.
type rowCandidate struct {
	AuthorizationNumber string
	ExternalID          string
	CteKey              string
}

// Validate enforces the per-row contract: both required fields must be
// non-empty after trim. Applied row by row; one failing row never
// invalidates the rest of the batch.
func (c rowCandidate) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AuthorizationNumber, validation.Required.Error("empty value")),
		validation.Field(&c.ExternalID, validation.Required.Error("empty value")),
	)
}

// decodeCSV decodes CSV bytes into keyed rows plus the literal header row.
// The first record is taken as the header; every following record becomes a
// row keyed by the header labels. Records shorter than the header yield
// absent cells for the missing columns.
//
// Parameters:
// - data []byte: The raw file content.
//
// Returns:
// - []model.Row: The data rows, keyed by header label.
// - model.Row: The literal header row, for the positional fallback.
// - error: An input-format error if the CSV cannot be decoded or is empty.
func decodeCSV(data []byte) ([]model.Row, model.Row, error) {
	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput, "invalid CSV", err.Error())
	}
	if len(records) == 0 {
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput, "empty spreadsheet: no rows found", nil)
	}

	headers := records[0]
	headerRow := model.Row{Fields: make([]model.Field, len(headers))}
	for i, h := range headers {
		headerRow.Fields[i] = model.Field{Cell: model.StringCell(h)}
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := model.Row{Fields: make([]model.Field, len(headers))}
		for i, h := range headers {
			cell := model.AbsentCell()
			if i < len(record) {
				cell = model.StringCell(record[i])
			}
			row.Fields[i] = model.Field{Key: h, Cell: cell}
		}
		rows = append(rows, row)
	}
	return rows, headerRow, nil
}

// decodeXLSX decodes an Excel workbook into keyed rows plus the literal
// header row. Only the first sheet is read. A workbook with zero sheets or
// a sheet with zero rows is an empty-input error, not a zero-record import.
//
// Parameters:
// - data []byte: The raw file content.
//
// Returns:
// - []model.Row: The data rows, keyed by the first row's labels.
// - model.Row: The literal header row, for the positional fallback.
// - error: An input-format error if the workbook cannot be decoded or is empty.
func decodeXLSX(data []byte) ([]model.Row, model.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput, "invalid spreadsheet", err.Error())
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logrus.Warnf("closing workbook: %v", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput, "empty spreadsheet: workbook has no sheets", nil)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput, "invalid spreadsheet", err.Error())
	}
	if len(records) == 0 {
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput, "empty spreadsheet: no rows found", nil)
	}

	headers := records[0]
	headerRow := model.Row{Fields: make([]model.Field, len(headers))}
	for i, h := range headers {
		headerRow.Fields[i] = model.Field{Cell: model.StringCell(h)}
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := model.Row{Fields: make([]model.Field, len(headers))}
		for i, h := range headers {
			cell := model.AbsentCell()
			if i < len(record) {
				cell = model.StringCell(record[i])
			}
			row.Fields[i] = model.Field{Key: h, Cell: cell}
		}
		rows = append(rows, row)
	}
	return rows, headerRow, nil
}

// decodeSpreadsheet dispatches decoding on the file extension,
// case-insensitively. Anything but csv/xlsx/xls fails immediately with an
// unsupported-format error naming the received extension.
func decodeSpreadsheet(data []byte, filename string) ([]model.Row, model.Row, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "csv":
		return decodeCSV(data)
	case "xlsx", "xls":
		return decodeXLSX(data)
	default:
		return nil, model.Row{}, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("unsupported file format %q. Use .xlsx, .xls or .csv", ext), nil)
	}
}

// rawHeaders returns the coerced labels of the literal header row, used as
// the diagnostic hint on resolution and no-valid-rows failures.
func rawHeaders(headerRow model.Row) []string {
	labels := make([]string, len(headerRow.Fields))
	for i, f := range headerRow.Fields {
		labels[i] = f.Cell.Coerce()
	}
	return labels
}

// ImportSpreadsheet runs the whole import pipeline over an uploaded file:
// format dispatch, column resolution (keyed first, positional fallback),
// row extraction, per-row validation, and one bulk insert with
// duplicate-tolerant semantics. Rows failing validation are dropped and
// counted, never fatal. If the bulk insert itself fails the result still
// reports the counts that would have been imported, flagged as not
// persisted, so callers can tell "no valid rows" apart from "storage down".
//
// Parameters:
// - ctx context.Context: The context for the persistence call.
// - data []byte: The raw uploaded file content.
// - filename string: The uploaded file name; its extension drives dispatch.
//
// Returns:
// - *model.ImportResult: Imported/rejected counts and the persisted flag.
// - error: An input-format, resolution, or no-valid-rows error; nil otherwise.
func (s *CteCancel) ImportSpreadsheet(ctx context.Context, data []byte, filename string) (*model.ImportResult, error) {
	rows, headerRow, err := decodeSpreadsheet(data, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "no valid rows found", rawHeaders(headerRow))
	}

	res, err := resolveKeyed(rows)
	if err != nil {
		// Keyed matching loses to merged cells, duplicate headers and
		// literal-key exports; re-derive positions from the header row.
		res, err = resolvePositional(headerRow)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), rawHeaders(headerRow))
		}
	}

	var records []*model.Authorization
	rejected := 0
	for _, row := range rows {
		candidate := extractCandidate(row, res)
		if err := candidate.Validate(); err != nil {
			rejected++
			continue
		}
		records = append(records, &model.Authorization{
			AuthorizationID:     model.GenerateUUIDWithSuffix("auth"),
			AuthorizationNumber: candidate.AuthorizationNumber,
			ExternalID:          candidate.ExternalID,
			CteKey:              candidate.CteKey,
			Status:              model.StatusPending,
			CreatedAt:           time.Now(),
		})
	}

	if len(records) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "no valid rows found", rawHeaders(headerRow))
	}

	result := &model.ImportResult{Imported: len(records), Rejected: rejected, Persisted: true}
	inserted, err := s.datasource.BulkInsertAuthorizations(ctx, records)
	if err != nil {
		logrus.Errorf("bulk insert failed for %s: %v", filename, err)
		result.Persisted = false
		logbuf.Append("import.persistence_failed", map[string]interface{}{
			"filename": filename, "valid_rows": result.Imported, "error": err.Error(),
		})
		return result, nil
	}

	logbuf.Append("import.completed", map[string]interface{}{
		"filename": filename, "imported": result.Imported, "rejected": rejected, "inserted": inserted,
	})
	return result, nil
}
