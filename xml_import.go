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
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/freteops/ctecancel/internal/apierror"
	"github.com/freteops/ctecancel/internal/logbuf"
	"github.com/freteops/ctecancel/model"
)

// cteKeyPrefix is the tag every CT-e identifying attribute starts with,
// per the fiscal document layout: Id="CTe<44 digits>".
const cteKeyPrefix = "CTe"

// cteKeyPattern is the fallback for malformed or truncated documents:
// an Id attribute holding the prefix followed by a digit run, anywhere in
// the raw text.
var cteKeyPattern = regexp.MustCompile(`(?i)Id=["']CTe(\d+)["']`)

// cteDocument is the subset of the CT-e layout the key extractor needs.
type cteDocument struct {
	XMLName xml.Name `xml:"CTe"`
	InfCte  struct {
		ID string `xml:"Id,attr"`
	} `xml:"infCte"`
}

// ExtractCteKey recovers the CT-e access key from an XML document.
// Primary strategy: decode the document and read the Id attribute of
// CTe/infCte; when it carries the CTe prefix the remainder is the key.
// Fallback, used both when decoding fails and when the attribute is
// missing or malformed: regex-match the raw text. Truncated and otherwise
// broken documents fall through to the regex instead of propagating a
// parse failure.
//
// Parameters:
// - xmlText string: The raw XML document.
//
// Returns:
// - string: The extracted key, or "" when no key is found.
func ExtractCteKey(xmlText string) string {
	var doc cteDocument
	if err := xml.Unmarshal([]byte(xmlText), &doc); err == nil {
		if strings.HasPrefix(doc.InfCte.ID, cteKeyPrefix) {
			if key := doc.InfCte.ID[len(cteKeyPrefix):]; key != "" {
				return key
			}
		}
	}
	if m := cteKeyPattern.FindStringSubmatch(xmlText); m != nil {
		return m[1]
	}
	return ""
}

// XMLFile is one uploaded file of a batch XML import.
type XMLFile struct {
	Filename string
	Content  string
}

// ImportXMLBatch attaches XML payloads to persisted records by CT-e key.
// Files are processed independently and sequentially; one file's failure
// never aborts its siblings. Every persisted record whose stored key
// matches the extracted key is updated, so a single file may update zero,
// one, or many records. A file yielding no key is reported with Updated=0
// and an explicit error.
//
// Parameters:
// - ctx context.Context: The context for the persistence calls.
// - files []XMLFile: The uploaded files.
//
// Returns:
// - []model.XMLImportResult: One result per file, in input order.
func (s *CteCancel) ImportXMLBatch(ctx context.Context, files []XMLFile) []model.XMLImportResult {
	results := make([]model.XMLImportResult, 0, len(files))
	for _, f := range files {
		key := ExtractCteKey(f.Content)
		if key == "" {
			results = append(results, model.XMLImportResult{
				Filename: f.Filename,
				Error:    "CT-e key not found in XML",
			})
			continue
		}

		updated, err := s.datasource.UpdateXMLByCteKey(ctx, key, f.Content)
		if err != nil {
			logrus.Errorf("attaching XML by key %s: %v", key, err)
			results = append(results, model.XMLImportResult{
				Filename: f.Filename,
				CteKey:   key,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, model.XMLImportResult{Filename: f.Filename, CteKey: key, Updated: updated})
	}

	logbuf.Append("xml_import.completed", map[string]interface{}{"files": len(files)})
	return results
}

// AttachXML attaches an XML payload to a single record by id. The document
// must at least be well formed; the key extraction rules do not apply here
// because the operator already picked the record.
//
// Parameters:
// - ctx context.Context: The context for the persistence call.
// - id string: The authorization id.
// - xmlText string: The raw XML document.
//
// Returns:
//   - *model.Authorization: The updated record.
//   - error: An invalid-input error for malformed XML, a not-found error for
//     an unknown id, or the storage error.
func (s *CteCancel) AttachXML(ctx context.Context, id string, xmlText string) (*model.Authorization, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "invalid XML", err.Error())
		}
	}
	return s.datasource.UpdateAuthorizationXML(ctx, id, xmlText)
}
