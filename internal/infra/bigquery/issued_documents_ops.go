package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// DefaultListLimit caps ListRecent when no limit is given.
const DefaultListLimit = 50

// InsertIssuedDocumentWithClient inserts a single IssuedDocumentRow using the
// provided BigQuery client. Uses DML INSERT to avoid streaming buffer issues.
func InsertIssuedDocumentWithClient(ctx context.Context, client *bigquery.Client, table string, row *IssuedDocumentRow) error {
	q := client.Query(`
		INSERT INTO ` + "`" + table + "`" + ` (
			issued_id, document_id, document_type, description, client,
			amount, payment_method, issued_on, link, link_kind,
			entry_id, reconciled, stage, email_job_id, created_ts
		)
		VALUES (
			@issued_id, @document_id, @document_type, @description, @client,
			@amount, @payment_method, @issued_on, @link, @link_kind,
			@entry_id, @reconciled, @stage, @email_job_id, @created_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "issued_id", Value: row.IssuedID},
		{Name: "document_id", Value: row.DocumentID},
		{Name: "document_type", Value: row.DocumentType},
		{Name: "description", Value: row.Description},
		{Name: "client", Value: row.Client},
		{Name: "amount", Value: row.Amount},
		{Name: "payment_method", Value: row.PaymentMethod},
		{Name: "issued_on", Value: row.IssuedOn},
		{Name: "link", Value: row.Link},
		{Name: "link_kind", Value: row.LinkKind},
		{Name: "entry_id", Value: row.EntryID},
		{Name: "reconciled", Value: row.Reconciled},
		{Name: "stage", Value: row.Stage},
		{Name: "email_job_id", Value: row.EmailJobID},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertIssuedDocument: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertIssuedDocument: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertIssuedDocument: job error: %w", err)
	}

	return nil
}

// ListRecentIssuedDocumentsWithClient returns the newest rows first.
func ListRecentIssuedDocumentsWithClient(ctx context.Context, client *bigquery.Client, table string, limit int) ([]*IssuedDocumentRow, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT
			issued_id,
			document_id,
			document_type,
			description,
			client,
			amount,
			payment_method,
			issued_on,
			link,
			link_kind,
			entry_id,
			reconciled,
			stage,
			email_job_id,
			created_ts
		FROM ` + "`" + table + "`" + `
		ORDER BY created_ts DESC
		LIMIT @limit
	`

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentIssuedDocuments: reading query: %w", err)
	}

	var rows []*IssuedDocumentRow
	for {
		var row IssuedDocumentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentIssuedDocuments: iterating: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
