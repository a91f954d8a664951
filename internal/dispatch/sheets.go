package dispatch

import (
	"context"
	"fmt"
	"strings"

	"tandyr-pos/internal/settings"
	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/models"
)

// SheetAppender is the spreadsheet export contract; the API client lives
// outside this module.
type SheetAppender interface {
	AppendRows(ctx context.Context, sheetID, credentialsJSON, sheetName string, rows []map[string]any) error
}

// LogAppender stands in for the spreadsheet client in local runs and
// prints the would-be rows to the structured log.
type LogAppender struct {
	Logger *logger.Logger
}

func (a LogAppender) AppendRows(_ context.Context, sheetID, _, sheetName string, rows []map[string]any) error {
	for _, row := range rows {
		a.Logger.Info("", "sheet_row",
			fmt.Sprintf("sheet=%s tab=%s order=%v total=%v", sheetID, sheetName, row["order_number"], row["total"]))
	}
	return nil
}

type SheetsSource interface {
	Sheets(ctx context.Context) (*settings.SheetsConfig, error)
}

type Exporter struct {
	appender SheetAppender
	sheets   SheetsSource
}

func NewExporter(appender SheetAppender, sheets SheetsSource) *Exporter {
	return &Exporter{appender: appender, sheets: sheets}
}

func (e *Exporter) Export(ctx context.Context, event OrderCreated) error {
	cfg, err := e.sheets.Sheets(ctx)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	return e.appender.AppendRows(ctx, cfg.SheetID, cfg.CredentialsJSON, cfg.SheetName,
		[]map[string]any{orderRow(event.Order)})
}

// orderRow flattens a committed order into one spreadsheet record.
func orderRow(order models.Order) map[string]any {
	var items []string
	for _, item := range order.Items {
		items = append(items, item.ProductName+" ("+item.SideName+")")
	}
	var payments []string
	for _, p := range order.Payments {
		payments = append(payments, string(p.Instrument)+" "+models.FormatAmount(p.Amount))
	}
	return map[string]any{
		"order_number": order.Number,
		"client_name":  order.ClientName,
		"client_phone": order.ClientPhone,
		"branch_id":    order.BranchID,
		"items":        strings.Join(items, ", "),
		"payments":     strings.Join(payments, ", "),
		"total":        order.TotalAmount,
		"created_at":   order.CreatedAt,
	}
}
