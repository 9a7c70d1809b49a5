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
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/freteops/ctecancel/model"
)

// Logical fields the importer needs to locate in every spreadsheet.
const (
	fieldAuthorizationNumber = "authorization_number"
	fieldExternalID          = "external_id"
	fieldCteKey              = "cte_key"
)

// columnAliases maps each logical field to the normalized forms of every
// header spelling seen in the wild. Spreadsheets arrive from different
// branches with Portuguese, English, camelCase and snake_case headers;
// matching happens on the normalized form, so "Número da Autorização",
// "numero_autorizacao" and "numeroAutorizacao" all land in the same bucket.
// Squashed spellings carry no separators, so their connectives survive
// normalization; the alias sets keep both forms.
// Process-wide constant, never mutated.
var columnAliases = map[string][]string{
	fieldAuthorizationNumber: {
		"numerodaautorizacao",
		"numerodeautorizacao",
		"numeroautorizacao",
		"numeroauth",
		"autorizacao",
		"numerododocumento",
		"numerodocumento",
		"numerodopedido",
		"numeropedido",
		"authorizationnumber",
		"recordnumber",
		"ordernumber",
		"documentnumber",
	},
	fieldExternalID: {
		"idexterno",
		"externalid",
		"idsap",
		"sapid",
		"codigoexterno",
	},
	fieldCteKey: {
		"chave",
		"chavecte",
		"chavedeacesso",
		"chaveacesso",
		"ctekey",
		"accesskey",
	},
}

// connectives are the Portuguese linking words that separate the
// meaningful words of a header. Dropping them makes "Número de
// Autorização" and "numero_autorizacao" canonicalize identically.
var connectives = map[string]struct{}{
	"de":  {},
	"da":  {},
	"do":  {},
	"das": {},
	"dos": {},
}

// normalizeHeader canonicalizes a header label for fuzzy matching.
// It decomposes accented characters, strips the combining marks,
// lower-cases, splits on every rune that is not a lowercase ASCII letter
// or digit, drops connective tokens, and concatenates the rest. A second
// pass sees a single separator-free token, so the form is stable.
//
// Parameters:
// - s string: The raw header label.
//
// Returns:
// - string: The canonical form, possibly empty.
func normalizeHeader(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	var token strings.Builder
	flush := func() {
		t := token.String()
		token.Reset()
		if t == "" {
			return
		}
		if _, ok := connectives[t]; ok {
			return
		}
		b.WriteString(t)
	}
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark left over from decomposition
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			token.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return b.String()
}

// matchAlias scans labels in order and returns the index of the first label
// whose normalized form appears in the alias set. First match wins; no
// scoring or ranking of later candidates.
//
// Parameters:
// - labels []string: The raw labels, in source order.
// - aliases []string: The normalized alias set for one logical field.
//
// Returns:
// - int: The index of the first matching label, or -1.
func matchAlias(labels []string, aliases []string) int {
	for i, label := range labels {
		n := normalizeHeader(label)
		for _, alias := range aliases {
			if n == alias {
				return i
			}
		}
	}
	return -1
}

// resolutionError is returned when a required logical field has no matching
// column. It carries the raw labels that were seen so the caller can show
// operators what the file actually contained.
type resolutionError struct {
	missing string
	headers []string
}

func (e *resolutionError) Error() string {
	return fmt.Sprintf("no column found for %s; headers seen: %s", e.missing, strings.Join(e.headers, ", "))
}

// Headers returns the raw labels observed during the failed resolution.
func (e *resolutionError) Headers() []string {
	return e.headers
}

// resolveColumns locates the required logical fields among the given header
// labels. Both authorization number and external id must resolve or the
// whole resolution fails; the CT-e key column is optional and its absence
// is not an error. The indices refer to positions in labels, so the caller
// decides whether they address row keys or row positions.
//
// Parameters:
// - labels []string: The raw header labels, in source order.
//
// Returns:
// - numberIdx, externalIdx, keyIdx int: Matched positions (keyIdx is -1 when absent).
// - error: A *resolutionError naming the first missing field.
func resolveColumns(labels []string) (int, int, int, error) {
	numberIdx := matchAlias(labels, columnAliases[fieldAuthorizationNumber])
	if numberIdx < 0 {
		return 0, 0, 0, &resolutionError{missing: fieldAuthorizationNumber, headers: labels}
	}
	externalIdx := matchAlias(labels, columnAliases[fieldExternalID])
	if externalIdx < 0 {
		return 0, 0, 0, &resolutionError{missing: fieldExternalID, headers: labels}
	}
	keyIdx := matchAlias(labels, columnAliases[fieldCteKey])
	return numberIdx, externalIdx, keyIdx, nil
}

// resolveKeyed resolves columns against the key set of the first row.
// This is the primary mode: rows decoded with a header row keep their
// header strings as field keys, so resolution and extraction both go
// through keys.
//
// Parameters:
// - rows []model.Row: The decoded rows; only the first row's keys are read.
//
// Returns:
// - model.ColumnResolution: A keyed-mode resolution.
// - error: A *resolutionError if either required field has no match.
func resolveKeyed(rows []model.Row) (model.ColumnResolution, error) {
	if len(rows) == 0 {
		return model.ColumnResolution{}, &resolutionError{missing: fieldAuthorizationNumber}
	}
	keys := rows[0].Keys()
	numberIdx, externalIdx, keyIdx, err := resolveColumns(keys)
	if err != nil {
		return model.ColumnResolution{}, err
	}
	res := model.ColumnResolution{
		Mode:        model.ResolvedByKey,
		NumberKey:   keys[numberIdx],
		ExternalKey: keys[externalIdx],
	}
	if keyIdx >= 0 {
		res.KeyColumn = keys[keyIdx]
		res.HasKey = true
	}
	return res, nil
}

// resolvePositional is the fallback mode for files whose first row carries
// the literal header strings as cell values rather than as keys (merged
// cells, duplicate headers, and exports that already use literal English
// keys all defeat keyed matching). The first row is alias-matched as a
// plain sequence and every following row is re-extracted by position.
//
// Parameters:
// - headerRow model.Row: The literal first row of the file.
//
// Returns:
// - model.ColumnResolution: A positional-mode resolution.
// - error: A *resolutionError if either required field has no match.
func resolvePositional(headerRow model.Row) (model.ColumnResolution, error) {
	labels := make([]string, len(headerRow.Fields))
	for i, f := range headerRow.Fields {
		labels[i] = f.Cell.Coerce()
	}
	numberIdx, externalIdx, keyIdx, err := resolveColumns(labels)
	if err != nil {
		return model.ColumnResolution{}, err
	}
	res := model.ColumnResolution{
		Mode:          model.ResolvedByPosition,
		NumberIndex:   numberIdx,
		ExternalIndex: externalIdx,
	}
	if keyIdx >= 0 {
		res.KeyIndex = keyIdx
		res.HasKey = true
	}
	return res, nil
}

// extractCandidate pulls the resolved cells out of a row and coerces them
// to trimmed strings. Values may still be empty here; validation decides
// whether the row survives.
func extractCandidate(row model.Row, res model.ColumnResolution) rowCandidate {
	var c rowCandidate
	switch res.Mode {
	case model.ResolvedByPosition:
		c.AuthorizationNumber = row.At(res.NumberIndex).Coerce()
		c.ExternalID = row.At(res.ExternalIndex).Coerce()
		if res.HasKey {
			c.CteKey = row.At(res.KeyIndex).Coerce()
		}
	default:
		c.AuthorizationNumber = row.Get(res.NumberKey).Coerce()
		c.ExternalID = row.Get(res.ExternalKey).Coerce()
		if res.HasKey {
			c.CteKey = row.Get(res.KeyColumn).Coerce()
		}
	}
	return c
}
