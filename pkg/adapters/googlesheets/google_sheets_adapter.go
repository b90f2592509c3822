package googlesheets

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/formtalk/formtalk/internal/mapping"
	"github.com/formtalk/formtalk/pkg/domain"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type GoogleSheetsAdapterDependencies struct {
	TokenSource domain.TokenSource
	Engine      mapping.Engine

	// Endpoint overrides the Sheets API base URL, used by tests.
	Endpoint   string
	HTTPClient *http.Client
}

// GoogleSheetsAdapter appends one row per completed response to the
// spreadsheet configured at connect time. Column order follows the header
// list captured in the destination config.
type GoogleSheetsAdapter struct {
	tokenSource domain.TokenSource
	engine      mapping.Engine
	endpoint    string
	httpClient  *http.Client
}

func NewGoogleSheetsAdapter(deps GoogleSheetsAdapterDependencies) *GoogleSheetsAdapter {
	return &GoogleSheetsAdapter{
		tokenSource: deps.TokenSource,
		engine:      deps.Engine,
		endpoint:    deps.Endpoint,
		httpClient:  deps.HTTPClient,
	}
}

func (a *GoogleSheetsAdapter) Deliver(ctx context.Context, params domain.DeliverParams) error {
	config, ok := params.Destination.Config.(*domain.GoogleSheetsConfig)
	if !ok {
		return fmt.Errorf("%w: google sheets destination has no sheet config", domain.ErrInvalidConfig)
	}

	accessToken, err := a.tokenSource.AccessToken(ctx, params.Destination)
	if err != nil {
		return err
	}

	service, err := a.newService(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}

	schema := columnSchema(config.Columns)
	fields := a.engine.MapFields(params.Answers, params.Mapping, schema, params.SubmittedAt)

	row := make([]any, 0, len(config.Columns))

	for _, column := range config.Columns {
		value, ok := fields[column]
		if !ok {
			row = append(row, "")
			continue
		}

		row = append(row, cellValue(value))
	}

	appendRange := config.SheetName
	if appendRange == "" {
		appendRange = "A1"
	}

	_, err = service.Spreadsheets.Values.
		Append(config.SpreadsheetID, appendRange, &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to spreadsheet %s: %w", config.SpreadsheetID, err)
	}

	return nil
}

func (a *GoogleSheetsAdapter) newService(ctx context.Context, accessToken string) (*sheets.Service, error) {
	httpClient := a.httpClient
	if httpClient == nil {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if a.endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.endpoint))
	}

	return sheets.NewService(ctx, opts...)
}

// columnSchema treats the configured header row as the destination schema:
// the first column is the primary field, every column is text-shaped.
func columnSchema(columns []string) []domain.FieldSchema {
	schema := make([]domain.FieldSchema, 0, len(columns))

	for i, column := range columns {
		fieldType := domain.FieldType_RichText
		if i == 0 {
			fieldType = domain.FieldType_Title
		}

		schema = append(schema, domain.FieldSchema{
			Name:    column,
			Type:    fieldType,
			Primary: i == 0,
		})
	}

	return schema
}

func cellValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []string:
		return mapping.FormatValue(v)
	default:
		return v
	}
}