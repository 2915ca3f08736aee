package orchestrator

import (
	"context"

	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/logger"
)

// ResyncReport counts what Resync did.
type ResyncReport struct {
	Candidates int // issued but never written to the ledger
	Skipped    int // already written by a later run
	Written    int
	WouldWrite int // dry run only
	Failed     int
}

// Resync writes the ledger entries of documents that were issued by the
// billing service but stopped at the record-store stage. docs is the audit
// trail, newest first or not. A document with a later completed row is
// skipped, so running Resync twice does not duplicate invoice entries.
// Successful writes are recorded as new completed rows.
func (s *Service) Resync(ctx context.Context, docs []domain.IssuedDocument, dryRun bool) ResyncReport {
	log := logger.FromContext(ctx)

	done := make(map[string]bool)
	for _, d := range docs {
		if d.Stage == string(StageDone) && d.DocumentID != "" {
			done[d.DocumentID] = true
		}
	}

	var report ResyncReport
	for _, d := range docs {
		if d.Stage != string(StageRecordStore) || d.DocumentID == "" {
			continue
		}
		report.Candidates++

		if done[d.DocumentID] {
			report.Skipped++
			continue
		}

		docLog := log.With().
			Str("document_id", d.DocumentID).
			Str("kind", string(d.DocumentType)).
			Str("client", d.Client).
			Logger()

		if dryRun {
			docLog.Info().Msg("[DRY RUN] Would write ledger entry")
			report.WouldWrite++
			continue
		}

		in := domain.TransactionInput{
			Description:   d.Description,
			Client:        d.Client,
			Amount:        d.Amount,
			PaymentMethod: d.PaymentMethod,
			Date:          d.Date,
			DocumentType:  d.DocumentType,
		}
		entry, patched, err := s.writeLedger(ctx, in)
		if err != nil {
			docLog.Warn().Err(err).Msg("Failed to write ledger entry")
			report.Failed++
			continue
		}

		done[d.DocumentID] = true
		report.Written++
		docLog.Info().Str("entry_id", entry.ID).Bool("reconciled", patched).Msg("Ledger entry written")

		s.record(ctx, in, &Outcome{
			Kind:       d.DocumentType,
			Success:    true,
			Stage:      StageDone,
			Link:       d.Link,
			LinkKind:   d.LinkKind,
			DocumentID: d.DocumentID,
			EntryID:    entry.ID,
			Reconciled: patched,
			EmailJobID: d.EmailJobID,
		})
	}

	log.Info().
		Int("candidates", report.Candidates).
		Int("skipped", report.Skipped).
		Int("written", report.Written).
		Int("would_write", report.WouldWrite).
		Int("failed", report.Failed).
		Bool("dry_run", dryRun).
		Msg("Ledger resync finished")
	return report
}
