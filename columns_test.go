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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freteops/ctecancel/model"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "accented portuguese header",
			input:    "Número de Autorização",
			expected: "numeroautorizacao",
		},
		{
			name:     "snake case variant",
			input:    "numero_autorizacao",
			expected: "numeroautorizacao",
		},
		{
			name:     "connective between words is dropped",
			input:    "Número do Documento",
			expected: "numerodocumento",
		},
		{
			name:     "squashed spelling keeps its connective",
			input:    "numeroDaAutorizacao",
			expected: "numerodaautorizacao",
		},
		{
			name:     "connective only",
			input:    "de",
			expected: "",
		},
		{
			name:     "camel case literal key",
			input:    "externalId",
			expected: "externalid",
		},
		{
			name:     "surrounding whitespace",
			input:    "  ID Externo  ",
			expected: "idexterno",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "punctuation only",
			input:    "!@# $%",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeHeader(tt.input))
		})
	}
}

func TestNormalizeHeaderIdempotent(t *testing.T) {
	inputs := []string{
		"Número da Autorização",
		"numero_autorizacao",
		"Chave de Acesso",
		"  mixed CASE 123  ",
		"",
	}
	for _, s := range inputs {
		once := normalizeHeader(s)
		assert.Equal(t, once, normalizeHeader(once))
	}
}

func TestNormalizeHeaderAccentEquivalence(t *testing.T) {
	assert.Equal(t, "numeroautorizacao", normalizeHeader("Número de Autorização"))
	assert.Equal(t, normalizeHeader("Número de Autorização"), normalizeHeader("numero_autorizacao"))
	assert.Equal(t, normalizeHeader("Chave de Acesso"), normalizeHeader("chave_acesso"))
	assert.Equal(t, normalizeHeader("ID Externo"), normalizeHeader("id-externo"))
}

func TestResolveColumns(t *testing.T) {
	numberIdx, externalIdx, keyIdx, err := resolveColumns([]string{"Número da Autorização", "ID Externo", "Status"})
	require.NoError(t, err)
	assert.Equal(t, 0, numberIdx)
	assert.Equal(t, 1, externalIdx)
	assert.Equal(t, -1, keyIdx)
}

func TestResolveColumnsFirstMatchWins(t *testing.T) {
	// Two columns match the authorization-number alias set; the first one
	// in source order must win.
	numberIdx, _, _, err := resolveColumns([]string{"Número do Pedido", "Número da Autorização", "ID Externo"})
	require.NoError(t, err)
	assert.Equal(t, 0, numberIdx)
}

func TestResolveColumnsWithCteKey(t *testing.T) {
	numberIdx, externalIdx, keyIdx, err := resolveColumns([]string{"Chave de Acesso", "numeroAutorizacao", "externalId"})
	require.NoError(t, err)
	assert.Equal(t, 1, numberIdx)
	assert.Equal(t, 2, externalIdx)
	assert.Equal(t, 0, keyIdx)
}

func TestResolveColumnsFailureReportsHeaders(t *testing.T) {
	_, _, _, err := resolveColumns([]string{"foo", "bar"})
	require.Error(t, err)

	var resErr *resolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, []string{"foo", "bar"}, resErr.Headers())
	assert.Contains(t, err.Error(), "foo, bar")
}

func TestResolveColumnsMissingExternalID(t *testing.T) {
	_, _, _, err := resolveColumns([]string{"Número da Autorização", "Status"})
	require.Error(t, err)

	var resErr *resolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, err.Error(), fieldExternalID)
}

func TestResolveKeyed(t *testing.T) {
	rows := []model.Row{
		{Fields: []model.Field{
			{Key: "Número da Autorização", Cell: model.StringCell("123")},
			{Key: "ID Externo", Cell: model.StringCell("EXT-1")},
		}},
	}
	res, err := resolveKeyed(rows)
	require.NoError(t, err)
	assert.Equal(t, model.ResolvedByKey, res.Mode)
	assert.Equal(t, "Número da Autorização", res.NumberKey)
	assert.Equal(t, "ID Externo", res.ExternalKey)
	assert.False(t, res.HasKey)
}

func TestResolvePositional(t *testing.T) {
	headerRow := model.Row{Fields: []model.Field{
		{Cell: model.StringCell("Status")},
		{Cell: model.StringCell("numero_autorizacao")},
		{Cell: model.StringCell("id_externo")},
	}}
	res, err := resolvePositional(headerRow)
	require.NoError(t, err)
	assert.Equal(t, model.ResolvedByPosition, res.Mode)
	assert.Equal(t, 1, res.NumberIndex)
	assert.Equal(t, 2, res.ExternalIndex)
}

func TestExtractCandidateKeyed(t *testing.T) {
	res := model.ColumnResolution{
		Mode:        model.ResolvedByKey,
		NumberKey:   "numero",
		ExternalKey: "externo",
	}
	row := model.Row{Fields: []model.Field{
		{Key: "numero", Cell: model.NumberCell(45312)},
		{Key: "externo", Cell: model.StringCell("  EXT-9  ")},
	}}

	c := extractCandidate(row, res)
	assert.Equal(t, "45312", c.AuthorizationNumber)
	assert.Equal(t, "EXT-9", c.ExternalID)
}

func TestExtractCandidatePositional(t *testing.T) {
	res := model.ColumnResolution{
		Mode:          model.ResolvedByPosition,
		NumberIndex:   0,
		ExternalIndex: 1,
	}
	row := model.Row{Fields: []model.Field{
		{Cell: model.StringCell("777")},
	}}

	c := extractCandidate(row, res)
	assert.Equal(t, "777", c.AuthorizationNumber)
	assert.Equal(t, "", c.ExternalID) // row shorter than resolution
}
