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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/freteops/ctecancel/config"
	"github.com/freteops/ctecancel/internal/apierror"
	"github.com/freteops/ctecancel/internal/logbuf"
	"github.com/freteops/ctecancel/internal/request"
	"github.com/freteops/ctecancel/model"
)

// SapClient posts cancellation authorizations to the configured SAP
// endpoint. The SAP side is an opaque HTTP contract: any 2xx is success,
// anything else is a failure carrying the raw response body as detail.
type SapClient struct {
	baseURL string
	client  *http.Client
}

// sapPayload is the wire shape SAP expects for one record.
type sapPayload struct {
	RecordNumber string `json:"recordNumber"`
	ExternalID   string `json:"externalId"`
	XML          string `json:"xml"`
}

// NewSapClient builds a SAP client from configuration.
func NewSapClient(conf config.SapConfig) *SapClient {
	timeout := time.Duration(conf.Timeout) * time.Second
	if conf.Timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SapClient{baseURL: conf.BaseUrl, client: &http.Client{Timeout: timeout}}
}

// Send posts one authorization to SAP.
//
// Parameters:
// - ctx context.Context: The request context.
// - auth *model.Authorization: The record to send; XML must be attached.
//
// Returns:
//   - string: The xmlEvent artifact from a successful send. A 2xx response
//     with a non-JSON body is itself the artifact.
//   - error: The raw response body (or transport error) on failure.
func (c *SapClient) Send(ctx context.Context, auth *model.Authorization) (string, error) {
	payload, err := request.ToJsonReq(&sapPayload{
		RecordNumber: auth.AuthorizationNumber,
		ExternalID:   auth.ExternalID,
		XML:          *auth.XML,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, payload)
	if err != nil {
		return "", err
	}

	body, status, err := request.Call(c.client, req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%s", string(body))
	}

	var resp struct {
		XMLEvent string `json:"xmlEvent"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.XMLEvent == "" {
		// SAP environments answer 2xx with a bare XML event more often
		// than with the JSON envelope.
		return string(body), nil
	}
	return resp.XMLEvent, nil
}

// SendToSap forwards a record to SAP and persists the resulting state
// transition. Success moves the record to SENT, stamps SentAt, stores the
// xmlEvent and clears any error message. Failure moves it to ERROR with the
// failure detail as the error message, leaving any xmlEvent from a prior
// successful send untouched. Sends are never retried automatically; a
// human re-triggers them.
//
// Parameters:
// - ctx context.Context: The request context.
// - id string: The authorization id.
//
// Returns:
//   - *model.Authorization: The record after the persisted transition.
//   - error: A not-found error for unknown ids, an invalid-input error when
//     no XML is attached, or the send failure (after the ERROR state is
//     persisted).
func (s *CteCancel) SendToSap(ctx context.Context, id string) (*model.Authorization, error) {
	auth, err := s.datasource.GetAuthorizationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if auth.XML == nil || *auth.XML == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "XML not attached", nil)
	}

	xmlEvent, sendErr := s.sap.Send(ctx, auth)
	if sendErr != nil {
		message := sendErr.Error()
		auth.Status = model.StatusError
		auth.ErrorMessage = &message
		// XMLEvent deliberately untouched.
		if updateErr := s.datasource.UpdateSendOutcome(ctx, auth); updateErr != nil {
			logrus.Errorf("persisting ERROR state for %s: %v", id, updateErr)
		}
		logbuf.Append("sap.send_failed", map[string]interface{}{"authorization_id": id, "error": message})
		return auth, apierror.NewAPIError(apierror.ErrInternalServer, "SAP send failed", message)
	}

	now := time.Now()
	auth.Status = model.StatusSent
	auth.SentAt = &now
	auth.ErrorMessage = nil
	if xmlEvent != "" {
		auth.XMLEvent = &xmlEvent
	}
	if err := s.datasource.UpdateSendOutcome(ctx, auth); err != nil {
		return nil, err
	}

	logbuf.Append("sap.sent", map[string]interface{}{"authorization_id": id})
	return auth, nil
}
