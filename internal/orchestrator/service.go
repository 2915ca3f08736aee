// Package orchestrator issues invoices and receipts: it creates the billing
// document first, then mirrors it into the income ledger and reports one
// localized outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/jobs"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/dvloznov/finance-docs/internal/morning"
	"github.com/dvloznov/finance-docs/internal/notionsync"
	"github.com/google/uuid"
	"github.com/jomei/notionapi"
)

// Stage names the step an orchestration stopped at.
type Stage string

const (
	StageValidation  Stage = "validation"
	StageBilling     Stage = "billing"
	StageRecordStore Stage = "record_store"
	StageDone        Stage = "done"
)

// OutboundCalls is the longest chain of provider calls one request makes
// before it answers: billing auth, billing create, ledger lookup and ledger
// write. Email is sent from the queue and is not part of it.
const OutboundCalls = 4

// RecordTimeout bounds the audit-trail write at the end of a request.
const RecordTimeout = 15 * time.Second

// RequestBudget is the worst-case time one create request can take when
// every provider call runs up to perCall.
func RequestBudget(perCall time.Duration) time.Duration {
	return OutboundCalls*perCall + RecordTimeout
}

// StageError wraps the failure of one orchestration step.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Biller creates billing documents.
type Biller interface {
	Authenticate(ctx context.Context, id, secret string) (string, error)
	CreateDocument(ctx context.Context, in domain.TransactionInput, token string) (*morning.Document, error)
}

// Ledger writes the bookkeeping record of a document.
type Ledger interface {
	CreateEntry(ctx context.Context, props notionapi.Properties) (*notionsync.Entry, error)
	FindOrCreate(ctx context.Context, description, client string, patch, create notionapi.Properties) (*notionsync.UpsertResult, error)
}

// Recorder keeps an audit trail of every request.
type Recorder interface {
	Record(ctx context.Context, doc domain.IssuedDocument) error
}

// Credentials are the long-lived billing API keys.
type Credentials struct {
	ID     string
	Secret string
}

// Outcome is the single result shown to the user.
type Outcome struct {
	Kind       domain.DocumentType `json:"kind"`
	Success    bool                `json:"success"`
	Stage      Stage               `json:"stage"`
	Message    string              `json:"message"`
	Link       string              `json:"link,omitempty"`
	LinkKind   string              `json:"link_kind"`
	DocumentID string              `json:"document_id,omitempty"`
	EntryID    string              `json:"entry_id,omitempty"`
	Reconciled bool                `json:"reconciled"`
	EmailJobID string              `json:"email_job_id,omitempty"`
}

// Service runs the create-invoice and create-receipt flows.
type Service struct {
	biller    Biller
	creds     Credentials
	ledger    Ledger
	publisher jobs.Publisher
	recorder  Recorder
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher enables email distribution through the job queue.
func WithPublisher(p jobs.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder enables the audit trail.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the billing client and the ledger.
func NewService(biller Biller, creds Credentials, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		biller: biller,
		creds:  creds,
		ledger: ledger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoice issues an invoice and always adds a new ledger entry.
func (s *Service) CreateInvoice(ctx context.Context, form domain.Form) (*Outcome, error) {
	return s.create(ctx, form, domain.DocumentTypeInvoice)
}

// CreateReceipt issues a receipt and marks the matching ledger entry as
// receipted, creating one when none exists.
func (s *Service) CreateReceipt(ctx context.Context, form domain.Form) (*Outcome, error) {
	return s.create(ctx, form, domain.DocumentTypeReceipt)
}

func (s *Service) create(ctx context.Context, form domain.Form, kind domain.DocumentType) (*Outcome, error) {
	log := logger.FromContext(ctx).With().Str("kind", string(kind)).Logger()
	ctx = logger.WithContext(ctx, log)

	out := &Outcome{Kind: kind, LinkKind: morning.NoLink.String()}

	in, err := form.Parse(kind)
	if err != nil {
		var ve *domain.ValidationError
		msg := err.Error()
		if errors.As(err, &ve) {
			msg = ve.Message
		}
		out.Stage = StageValidation
		out.Message = errorMessage(msg)
		log.Info().Err(err).Msg("Rejected invalid form")
		return out, &StageError{Stage: StageValidation, Err: err}
	}

	doc, token, err := s.issue(ctx, in)
	if err != nil {
		out.Stage = StageBilling
		out.Message = errorMessage(fmt.Sprintf("שגיאה ביצירת %s ב-Green Invoice: %v", kind.Label(), err))
		log.Error().Err(err).Msg("Billing document creation failed")
		s.record(ctx, in, out)
		return out, &StageError{Stage: StageBilling, Err: err}
	}

	out.DocumentID = doc.ID
	out.Link = doc.Link.URL
	out.LinkKind = doc.Link.Kind.String()

	if in.SendEmail {
		out.EmailJobID = s.distribute(ctx, doc, token, kind)
	}

	entry, reconciled, err := s.writeLedger(ctx, in)
	if err != nil {
		out.Stage = StageRecordStore
		out.Message = errorMessage(fmt.Sprintf("%s נוצרה ב-Green Invoice, אך אירעה שגיאה ברישום ב-Notion: %v", kind.Label(), err))
		log.Error().Err(err).Str("document_id", doc.ID).Msg("Ledger write failed after billing document was created")
		s.record(ctx, in, out)
		return out, &StageError{Stage: StageRecordStore, Err: err}
	}

	out.EntryID = entry.ID
	out.Reconciled = reconciled
	out.Stage = StageDone
	out.Success = true
	out.Message = successMessage(kind, in.SendEmail)

	log.Info().
		Str("document_id", doc.ID).
		Str("entry_id", entry.ID).
		Bool("reconciled", reconciled).
		Msg("Document issued")

	s.record(ctx, in, out)
	return out, nil
}

func (s *Service) issue(ctx context.Context, in domain.TransactionInput) (*morning.Document, string, error) {
	token, err := s.biller.Authenticate(ctx, s.creds.ID, s.creds.Secret)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.biller.CreateDocument(ctx, in, token)
	if err != nil {
		return nil, "", err
	}
	return doc, token, nil
}

// writeLedger creates a new entry for invoices. Receipts patch the entry
// keyed by (description, client) when it exists.
func (s *Service) writeLedger(ctx context.Context, in domain.TransactionInput) (*notionsync.Entry, bool, error) {
	create := notionsync.EntryProperties(in)

	if in.DocumentType == domain.DocumentTypeInvoice {
		entry, err := s.ledger.CreateEntry(ctx, create)
		if err != nil {
			return nil, false, err
		}
		return entry, false, nil
	}

	res, err := s.ledger.FindOrCreate(ctx, in.Description, in.Client, notionsync.ReceiptPatch(in.Date), create)
	if err != nil {
		return nil, false, err
	}
	return res.Entry, res.Patched, nil
}

// distribute queues the email and returns the job id, or "" when nothing was
// queued. Failures are logged only.
func (s *Service) distribute(ctx context.Context, doc *morning.Document, token string, kind domain.DocumentType) string {
	log := logger.FromContext(ctx)

	if s.publisher == nil {
		log.Warn().Msg("Email requested but no distribution queue is configured")
		return ""
	}
	if doc.ID == "" || doc.ClientID == "" {
		log.Warn().Str("document_id", doc.ID).Msg("Skipping email, document or client id missing")
		return ""
	}

	job := &jobs.DistributeJob{
		DocumentID:   doc.ID,
		ClientID:     doc.ClientID,
		DocumentType: kind,
		Token:        token,
	}
	if err := s.publisher.PublishDistribute(ctx, job); err != nil {
		log.Error().Err(err).Str("document_id", doc.ID).Msg("Failed to queue email distribution")
		return ""
	}
	return job.JobID
}

func (s *Service) record(ctx context.Context, in domain.TransactionInput, out *Outcome) {
	if s.recorder == nil {
		return
	}

	doc := domain.IssuedDocument{
		IssuedID:      uuid.NewString(),
		DocumentID:    out.DocumentID,
		DocumentType:  in.DocumentType,
		Description:   in.Description,
		Client:        in.Client,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Date:          in.Date,
		Link:          out.Link,
		LinkKind:      out.LinkKind,
		EntryID:       out.EntryID,
		Reconciled:    out.Reconciled,
		Stage:         string(out.Stage),
		EmailJobID:    out.EmailJobID,
		CreatedAt:     s.now(),
	}
	ctx, cancel := context.WithTimeout(ctx, RecordTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, doc); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to record issued document")
	}
}

func errorMessage(msg string) string {
	return "שגיאה: " + msg
}

func successMessage(kind domain.DocumentType, sent bool) string {
	if sent {
		return kind.Label() + " נוצרה ונשלחה בהצלחה!"
	}
	return kind.Label() + " נוצרה בהצלחה!"
}

// NewDistributeHandler returns the job handler that emails queued documents.
func NewDistributeHandler(d Distributor) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.DistributeJob) error {
		return d.DistributeByEmail(ctx, job.DocumentID, job.ClientID, job.DocumentType, job.Token)
	}
}

// Distributor emails an issued document to its client.
type Distributor interface {
	DistributeByEmail(ctx context.Context, documentID, clientID string, kind domain.DocumentType, token string) error
}
