package notionsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/logger"
	"github.com/jomei/notionapi"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// PageSize is the number of rows requested per query page.
	PageSize = 100
)

// RecordStore reads and writes the income ledger database.
type RecordStore struct {
	notion     NotionService
	databaseID string
}

// NewRecordStore binds the ledger operations to one Notion database.
func NewRecordStore(notion NotionService, databaseID string) *RecordStore {
	return &RecordStore{notion: notion, databaseID: databaseID}
}

// QueryAll returns every row of the ledger, following the cursor until the
// last page. A failed page fails the whole call.
func (s *RecordStore) QueryAll(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: PageSize,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := s.notion.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			return nil, newAPIError(ErrQuery, err)
		}

		for _, page := range resp.Results {
			entries = append(entries, EntryFromPage(page))
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	log := logger.FromContext(ctx)
	log.Debug().Int("entry_count", len(entries)).Msg("Queried ledger")

	return entries, nil
}

// ClientNames fetches the ledger and returns its distinct client names.
func (s *RecordStore) ClientNames(ctx context.Context) ([]string, error) {
	entries, err := s.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	return ExtractClientNames(entries), nil
}

// ExtractClientNames returns the distinct client names of the entries in
// Hebrew collation order. Entries without a client are skipped.
func ExtractClientNames(entries []Entry) []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Client == "" || seen[e.Client] {
			continue
		}
		seen[e.Client] = true
		names = append(names, e.Client)
	}

	collate.New(language.Hebrew).SortStrings(names)
	return names
}

// FindByKey returns the id of the first row whose title equals description
// and whose client equals client. found is false when nothing matches.
func (s *RecordStore) FindByKey(ctx context.Context, description, client string) (id string, found bool, err error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{
				Property: PropIncome,
				RichText: &notionapi.TextFilterCondition{Equals: description},
			},
			notionapi.PropertyFilter{
				Property: PropClient,
				Select:   &notionapi.SelectFilterCondition{Equals: client},
			},
		},
		PageSize: 1,
	}

	resp, err := s.notion.QueryDatabase(ctx, s.databaseID, req)
	if err != nil {
		return "", false, newAPIError(ErrQuery, err)
	}
	if len(resp.Results) == 0 {
		return "", false, nil
	}
	return string(resp.Results[0].ID), true, nil
}

// CreateEntry adds a ledger row. The required ledger fields are checked
// before any call is made.
func (s *RecordStore) CreateEntry(ctx context.Context, props notionapi.Properties) (*Entry, error) {
	if err := requireFields(props); err != nil {
		return nil, err
	}

	page, err := s.notion.CreatePage(ctx, s.databaseID, props)
	if err != nil {
		return nil, newAPIError(ErrRecordCreation, err)
	}

	entry := EntryFromPage(*page)
	log := logger.FromContext(ctx)
	log.Info().Str("page_id", entry.ID).Msg("Created ledger entry")
	return &entry, nil
}

// PatchEntry updates only the given properties of a ledger row.
func (s *RecordStore) PatchEntry(ctx context.Context, entryID string, props notionapi.Properties) (*Entry, error) {
	page, err := s.notion.UpdatePage(ctx, entryID, props)
	if err != nil {
		return nil, newAPIError(ErrRecordUpdate, err)
	}

	entry := EntryFromPage(*page)
	log := logger.FromContext(ctx)
	log.Info().Str("page_id", entryID).Msg("Patched ledger entry")
	return &entry, nil
}

// UpsertResult tells which branch FindOrCreate took.
type UpsertResult struct {
	Entry   *Entry
	Patched bool
}

// FindOrCreate patches the row keyed by (description, client) when it
// exists, otherwise creates a new row from create.
func (s *RecordStore) FindOrCreate(ctx context.Context, description, client string, patch, create notionapi.Properties) (*UpsertResult, error) {
	log := logger.FromContext(ctx)

	id, found, err := s.FindByKey(ctx, description, client)
	if err != nil {
		return nil, fmt.Errorf("FindOrCreate: %w", err)
	}

	if found {
		log.Info().Str("page_id", id).Str("client", client).Msg("Found existing ledger entry")
		entry, err := s.PatchEntry(ctx, id, patch)
		if err != nil {
			return nil, fmt.Errorf("FindOrCreate: %w", err)
		}
		return &UpsertResult{Entry: entry, Patched: true}, nil
	}

	log.Info().Str("client", client).Msg("No ledger entry found, creating one")
	entry, err := s.CreateEntry(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("FindOrCreate: %w", err)
	}
	return &UpsertResult{Entry: entry}, nil
}

// requireFields checks that the title, client, amount, payment method and
// date properties are present and non-empty.
func requireFields(props notionapi.Properties) error {
	var missing []string
	if strings.TrimSpace(titleText(props[PropIncome])) == "" {
		missing = append(missing, PropIncome)
	}
	if selectName(props[PropClient]) == "" {
		missing = append(missing, PropClient)
	}
	if _, ok := props[PropAmount]; !ok {
		missing = append(missing, PropAmount)
	}
	if selectName(props[PropPaymentMethod]) == "" {
		missing = append(missing, PropPaymentMethod)
	}
	if dateValue(props[PropDate]) == nil {
		missing = append(missing, PropDate)
	}

	if len(missing) > 0 {
		return &domain.ValidationError{
			Field:   strings.Join(missing, ","),
			Message: "חסרים שדות חובה לרשומה ב-Notion",
		}
	}
	return nil
}
