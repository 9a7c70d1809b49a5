package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/freteops/ctecancel/internal/apierror"
	"github.com/freteops/ctecancel/model"
)

// authorizationColumns is the column list every scan in this file follows.
const authorizationColumns = `id, authorization_id, authorization_number, external_id, cte_key, xml, status, error_message, xml_event, created_at, sent_at`

// scanAuthorization scans one row into a model.Authorization.
func scanAuthorization(row interface{ Scan(...interface{}) error }) (*model.Authorization, error) {
	auth := &model.Authorization{}
	var cteKey, xmlDoc, errorMessage, xmlEvent sql.NullString
	var sentAt sql.NullTime
	err := row.Scan(
		&auth.ID, &auth.AuthorizationID, &auth.AuthorizationNumber, &auth.ExternalID,
		&cteKey, &xmlDoc, &auth.Status, &errorMessage, &xmlEvent, &auth.CreatedAt, &sentAt,
	)
	if err != nil {
		return nil, err
	}
	auth.CteKey = cteKey.String
	if xmlDoc.Valid {
		auth.XML = &xmlDoc.String
	}
	if errorMessage.Valid {
		auth.ErrorMessage = &errorMessage.String
	}
	if xmlEvent.Valid {
		auth.XMLEvent = &xmlEvent.String
	}
	if sentAt.Valid {
		auth.SentAt = &sentAt.Time
	}
	return auth, nil
}

// BulkInsertAuthorizations inserts all records in one statement. Records
// colliding with an existing row on the (authorization_number, external_id)
// natural key are silently skipped; the returned count covers only the rows
// actually inserted.
// Parameters:
// - ctx: The context for the query.
// - records: The records to insert; ids and timestamps must already be set.
// Returns:
// - int64: The number of rows inserted (duplicates excluded).
// - error: A storage error; never a constraint violation for duplicates.
func (d Datasource) BulkInsertAuthorizations(ctx context.Context, records []*model.Authorization) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(records))
	args := make([]interface{}, 0, len(records)*7)
	for i, r := range records {
		base := i * 7
		placeholders[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, r.AuthorizationID, r.AuthorizationNumber, r.ExternalID,
			nullIfEmpty(r.CteKey), r.Status, r.XML, r.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO authorizations (authorization_id, authorization_number, external_id, cte_key, status, xml, created_at)
		VALUES %s
		ON CONFLICT (authorization_number, external_id) DO NOTHING
	`, strings.Join(placeholders, ", "))

	result, err := d.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "bulk inserting authorizations")
	}
	return result.RowsAffected()
}

// GetAuthorizationByID retrieves a record by its authorization id.
func (d Datasource) GetAuthorizationByID(ctx context.Context, id string) (*model.Authorization, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+authorizationColumns+`
		FROM authorizations
		WHERE authorization_id = $1
	`, id)

	auth, err := scanAuthorization(row)
	if err == sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Authorization with ID '%s' not found", id), nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching authorization")
	}
	return auth, nil
}

// ListAuthorizations retrieves a page of records, newest first, optionally
// narrowed by a substring query over the two business fields and by status.
// Returns the page plus the total count matching the same filter.
func (d Datasource) ListAuthorizations(ctx context.Context, q, status string, offset, limit int) ([]*model.Authorization, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := []string{"TRUE"}
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(authorization_number ILIKE $%d OR external_id ILIKE $%d)", len(args), len(args)))
	}
	condition := strings.Join(where, " AND ")

	var total int64
	err := d.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM authorizations WHERE `+condition, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting authorizations")
	}

	args = append(args, limit, offset)
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+authorizationColumns+`
		FROM authorizations
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, condition, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing authorizations")
	}
	defer rows.Close()

	var items []*model.Authorization
	for rows.Next() {
		auth, err := scanAuthorization(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scanning authorization")
		}
		items = append(items, auth)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterating authorizations")
	}
	return items, total, nil
}

// CountAuthorizationsByStatus counts records in one lifecycle state.
func (d Datasource) CountAuthorizationsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := d.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM authorizations WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "counting authorizations by status")
	}
	return count, nil
}

// UpdateAuthorizationXML attaches an XML payload to a single record by id
// and returns the updated record.
func (d Datasource) UpdateAuthorizationXML(ctx context.Context, id, xml string) (*model.Authorization, error) {
	row := d.Conn.QueryRowContext(ctx, `
		UPDATE authorizations
		SET xml = $2
		WHERE authorization_id = $1
		RETURNING `+authorizationColumns+`
	`, id, xml)

	auth, err := scanAuthorization(row)
	if err == sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Authorization with ID '%s' not found", id), nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "attaching XML")
	}
	return auth, nil
}

// UpdateXMLByCteKey attaches an XML payload to every record whose stored
// CT-e key matches. Zero matches is not an error; the caller reports the
// count.
func (d Datasource) UpdateXMLByCteKey(ctx context.Context, cteKey, xml string) (int64, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE authorizations
		SET xml = $2
		WHERE cte_key = $1
	`, cteKey, xml)
	if err != nil {
		return 0, errors.Wrap(err, "attaching XML by CT-e key")
	}
	return result.RowsAffected()
}

// UpdateSendOutcome persists the state transition produced by a send
// attempt: status, error message, xml event and sent timestamp.
func (d Datasource) UpdateSendOutcome(ctx context.Context, record *model.Authorization) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE authorizations
		SET status = $2, error_message = $3, xml_event = $4, sent_at = $5
		WHERE authorization_id = $1
	`, record.AuthorizationID, record.Status, record.ErrorMessage, record.XMLEvent, record.SentAt)
	if err != nil {
		return errors.Wrap(err, "updating send outcome")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Authorization with ID '%s' not found", record.AuthorizationID), nil)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
