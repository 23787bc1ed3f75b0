// Package recordstore implements the security record store over a Notion
// database: paged reads into SecurityRecord and typed property writes.
package recordstore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/resilience"
	"github.com/sells-group/factsync/pkg/notion"
)

// MaxTextRunes keeps long text below Notion's per-block limit.
const MaxTextRunes = 1900

// Store reads and writes security records in one Notion database.
type Store struct {
	client   notion.Client
	dbID     string
	props    Properties
	pageSize int
}

// New creates a record store. pageSize <= 0 uses Notion's maximum.
func New(c notion.Client, dbID string, props Properties, pageSize int) *Store {
	return &Store{client: c, dbID: dbID, props: props, pageSize: pageSize}
}

// QueryPage returns one page of records. Retryable Notion failures are
// returned as resilience.TransientError.
func (s *Store) QueryPage(ctx context.Context, filter model.Filter, cursor string) (model.Page, error) {
	resp, err := notion.QueryPage(ctx, s.client, s.dbID, s.filter(filter), cursor, s.pageSize)
	if err != nil {
		return model.Page{}, classify(err, "recordstore: query page")
	}

	page := model.Page{
		Records:    make([]model.SecurityRecord, 0, len(resp.Results)),
		NextCursor: string(resp.NextCursor),
		HasMore:    resp.HasMore,
	}
	for _, p := range resp.Results {
		page.Records = append(page.Records, s.record(p))
	}
	return page, nil
}

// UpdateRecord writes the update's fields to the record's page.
func (s *Store) UpdateRecord(ctx context.Context, id string, u model.Update) error {
	props := s.Properties(u)
	if len(props) == 0 {
		return nil
	}
	_, err := s.client.UpdatePage(ctx, id, &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return classify(err, fmt.Sprintf("recordstore: update %s", id))
	}
	return nil
}

// Properties builds the Notion property payload for u. Only fields present
// in u and mapped to a column are included.
func (s *Store) Properties(u model.Update) notionapi.Properties {
	props := notionapi.Properties{}
	for f, v := range u.Numbers {
		if col := s.props.column(f); col != "" {
			props[col] = notion.Number(v)
		}
	}
	for f, v := range u.Texts {
		if col := s.props.column(f); col != "" {
			props[col] = notion.RichText(model.Truncate(v, MaxTextRunes))
		}
	}
	if u.Verification != nil {
		if s.props.Verification != "" {
			props[s.props.Verification] = notion.Select(u.Verification.Verdict.String())
		}
		if s.props.AuditLog != "" {
			props[s.props.AuditLog] = notion.RichText(model.Truncate(u.Verification.AuditText(), MaxTextRunes))
		}
	}
	if u.MarketHint != "" && s.props.MarketHint != "" {
		props[s.props.MarketHint] = notion.RichText(u.MarketHint)
	}
	if len(props) > 0 && !u.UpdatedAt.IsZero() && s.props.LastUpdated != "" {
		props[s.props.LastUpdated] = notion.DateValue(u.UpdatedAt.In(model.KST))
	}
	return props
}

func (s *Store) record(p notionapi.Page) model.SecurityRecord {
	return model.SecurityRecord{
		ID:          string(p.ID),
		Ticker:      s.ticker(p.Properties),
		MarketHint:  notion.Text(p.Properties, s.props.MarketHint),
		StoredName:  notion.Text(p.Properties, s.props.StoredName),
		LastUpdated: notion.Date(p.Properties, s.props.LastUpdated),
	}
}

// ticker reads the ticker column. Home codes stored in a number column lose
// their leading zeros, so integers below 1,000,000 are padded to six digits.
func (s *Store) ticker(props notionapi.Properties) string {
	if np, ok := props[s.props.Ticker].(*notionapi.NumberProperty); ok {
		n := np.Number
		if n >= 0 && n < 1e6 && n == math.Trunc(n) {
			return fmt.Sprintf("%06d", int64(n))
		}
	}
	return strings.ToUpper(notion.Text(props, s.props.Ticker))
}

// filter translates a record filter into a Notion compound filter.
func (s *Store) filter(f model.Filter) notionapi.Filter {
	var parts notionapi.AndCompoundFilter
	if f.Unverified && s.props.Verification != "" {
		parts = append(parts, notionapi.OrCompoundFilter{
			notionapi.PropertyFilter{
				Property: s.props.Verification,
				Select:   &notionapi.SelectFilterCondition{DoesNotEqual: model.VerdictVerified.String()},
			},
			notionapi.PropertyFilter{
				Property: s.props.Verification,
				Select:   &notionapi.SelectFilterCondition{IsEmpty: true},
			},
		})
	}
	if !f.StaleBefore.IsZero() && s.props.LastUpdated != "" {
		before := notionapi.Date(f.StaleBefore.In(model.KST))
		parts = append(parts, notionapi.OrCompoundFilter{
			notionapi.PropertyFilter{
				Property: s.props.LastUpdated,
				Date:     &notionapi.DateFilterCondition{Before: &before},
			},
			notionapi.PropertyFilter{
				Property: s.props.LastUpdated,
				Date:     &notionapi.DateFilterCondition{IsEmpty: true},
			},
		})
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return parts
	}
}

func classify(err error, msg string) error {
	if notion.IsRetryable(err) {
		return resilience.NewTransientError(eris.Wrap(err, msg), notion.StatusCode(err))
	}
	return eris.Wrap(err, msg)
}

// StaleCutoff returns the StaleBefore time for records not updated within
// maxAge of now. A zero maxAge disables the filter.
func StaleCutoff(now time.Time, maxAge time.Duration) time.Time {
	if maxAge <= 0 {
		return time.Time{}
	}
	return now.Add(-maxAge)
}
