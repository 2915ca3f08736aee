package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-docs/internal/domain"
)

// IssuedDocumentRepository records every create-document request in
// BigQuery. It holds a shared client to avoid creating a new connection for
// each operation.
type IssuedDocumentRepository struct {
	client *bigquery.Client
	table  string
}

// NewIssuedDocumentRepository creates a repository writing to
// <projectID>.<datasetID>.issued_documents.
func NewIssuedDocumentRepository(ctx context.Context, projectID, datasetID string) (*IssuedDocumentRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewIssuedDocumentRepository: creating client: %w", err)
	}
	return &IssuedDocumentRepository{
		client: client,
		table:  TableName(projectID, datasetID),
	}, nil
}

// TableName returns the fully qualified audit table name.
func TableName(projectID, datasetID string) string {
	return projectID + "." + datasetID + "." + IssuedDocumentsTable
}

// Close closes the BigQuery client connection.
func (r *IssuedDocumentRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Record inserts one audit row.
func (r *IssuedDocumentRepository) Record(ctx context.Context, doc domain.IssuedDocument) error {
	return InsertIssuedDocumentWithClient(ctx, r.client, r.table, RowFromIssued(doc))
}

// ListRecent returns up to limit audit rows, newest first.
func (r *IssuedDocumentRepository) ListRecent(ctx context.Context, limit int) ([]domain.IssuedDocument, error) {
	rows, err := ListRecentIssuedDocumentsWithClient(ctx, r.client, r.table, limit)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.IssuedDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, IssuedFromRow(row))
	}
	return docs, nil
}
