package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ctecancel "github.com/freteops/ctecancel"
	"github.com/freteops/ctecancel/config"
	"github.com/freteops/ctecancel/database/mocks"
	"github.com/freteops/ctecancel/model"
)

func setupRouter(t *testing.T) (*mocks.MockDataSource, http.Handler) {
	t.Helper()
	config.MockConfig(&config.Configuration{
		Sap: config.SapConfig{BaseUrl: "http://sap.local/cancel"},
	})

	ds := new(mocks.MockDataSource)
	service, err := ctecancel.NewCteCancel(ds)
	require.NoError(t, err)
	return ds, NewAPI(service).Router()
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestListAuthorizationsEndpoint(t *testing.T) {
	ds, router := setupRouter(t)

	ds.On("ListAuthorizations", mock.Anything, "AUT", "PENDING", 10, 5).
		Return([]*model.Authorization{
			{AuthorizationID: "auth_1", AuthorizationNumber: "AUT-1", ExternalID: "EXT-1", Status: model.StatusPending},
		}, int64(23), nil)

	req := httptest.NewRequest(http.MethodGet, "/authorizations?q=AUT&status=PENDING&offset=10&limit=5", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var payload struct {
		Items []map[string]interface{} `json:"items"`
		Total int64                    `json:"total"`
		Skip  int                      `json:"skip"`
		Take  int                      `json:"take"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, int64(23), payload.Total)
	assert.Equal(t, 10, payload.Skip)
	assert.Equal(t, 5, payload.Take)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "AUT-1", payload.Items[0]["record_number"])
	ds.AssertExpectations(t)
}

func TestListAuthorizationsEmptyPageIsAnArray(t *testing.T) {
	ds, router := setupRouter(t)

	ds.On("ListAuthorizations", mock.Anything, "", "", 0, 50).
		Return(nil, int64(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/authorizations", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"items":[]`)
}

func TestGetStatsEndpoint(t *testing.T) {
	ds, router := setupRouter(t)

	ds.On("CountAuthorizationsByStatus", mock.Anything, model.StatusPending).Return(int64(5), nil)
	ds.On("CountAuthorizationsByStatus", mock.Anything, model.StatusSent).Return(int64(2), nil)
	ds.On("CountAuthorizationsByStatus", mock.Anything, model.StatusError).Return(int64(1), nil)

	req := httptest.NewRequest(http.MethodGet, "/authorizations/stats", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var counts model.StatusCounts
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &counts))
	assert.Equal(t, int64(5), counts.Pending)
	assert.Equal(t, int64(2), counts.Sent)
	assert.Equal(t, int64(1), counts.Errors)
}

func TestImportSpreadsheetEndpoint(t *testing.T) {
	ds, router := setupRouter(t)

	ds.On("BulkInsertAuthorizations", mock.Anything, mock.MatchedBy(func(records []*model.Authorization) bool {
		return len(records) == 2
	})).Return(int64(2), nil)

	body, contentType := multipartBody(t, "file", "planilha.csv",
		"Número da Autorização,ID Externo\nAUT-1,EXT-1\nAUT-2,EXT-2\n")
	req := httptest.NewRequest(http.MethodPost, "/authorizations/import", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var result model.ImportResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Rejected)
	assert.True(t, result.Persisted)
	ds.AssertExpectations(t)
}

func TestImportSpreadsheetEndpointUnsupportedFormat(t *testing.T) {
	_, router := setupRouter(t)

	body, contentType := multipartBody(t, "file", "dados.txt", "a,b\n1,2\n")
	req := httptest.NewRequest(http.MethodPost, "/authorizations/import", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unsupported file format")
}

func TestImportSpreadsheetEndpointMissingFile(t *testing.T) {
	_, router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/authorizations/import", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "File upload failed")
}

func TestImportXMLBatchEndpoint(t *testing.T) {
	ds, router := setupRouter(t)

	xmlDoc := `<CTe><infCte Id="CTe35200812345"></infCte></CTe>`
	ds.On("UpdateXMLByCteKey", mock.Anything, "35200812345", xmlDoc).Return(int64(1), nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "cte.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(xmlDoc))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/authorizations/import-xml", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var payload struct {
		Results []model.XMLImportResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Len(t, payload.Results, 1)
	assert.Equal(t, "35200812345", payload.Results[0].CteKey)
	assert.Equal(t, int64(1), payload.Results[0].Updated)
	ds.AssertExpectations(t)
}

func TestImportXMLBatchEndpointNoFiles(t *testing.T) {
	_, router := setupRouter(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "no files here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/authorizations/import-xml", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "No XML files sent")
}

func TestAttachXMLEndpoint(t *testing.T) {
	ds, router := setupRouter(t)

	xmlDoc := `<CTe><infCte Id="CTe123"></infCte></CTe>`
	ds.On("UpdateAuthorizationXML", mock.Anything, "auth_1", xmlDoc).
		Return(&model.Authorization{AuthorizationID: "auth_1", XML: &xmlDoc, Status: model.StatusPending}, nil)

	body, contentType := multipartBody(t, "file", "cte.xml", xmlDoc)
	req := httptest.NewRequest(http.MethodPatch, "/authorizations/auth_1/xml", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"authorization_id":"auth_1"`)
	ds.AssertExpectations(t)
}

func TestHealthEndpoint(t *testing.T) {
	_, router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "server running")
}
