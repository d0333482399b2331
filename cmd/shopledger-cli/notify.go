package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"time"

	"shopledger/internal/amqp"
	"shopledger/internal/config"
	applog "shopledger/internal/log"
	"shopledger/internal/sheets"
)

const notifyTimeout = 10 * time.Second

func runNotify(ctx context.Context, cfg *config.Config, logger *applog.Logger, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	spreadsheet := fs.String("spreadsheet", "", "spreadsheet ID")
	sheet := fs.String("sheet", "", "sheet name; empty means every sheet of the spreadsheet")
	rawURL := fs.String("url", "", "opensheet or Google Sheets URL instead of -spreadsheet/-sheet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref := sheets.Ref{SpreadsheetID: strings.TrimSpace(*spreadsheet), Sheet: strings.TrimSpace(*sheet)}
	if *rawURL != "" {
		parsed, err := sheets.ParseSheetURL(*rawURL)
		if err != nil {
			return usageErr("%v", err)
		}
		ref = parsed
	}
	if ref.SpreadsheetID == "" {
		return usageErr("-spreadsheet or -url is required")
	}
	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is not set")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	return client.PublishSheetChanged(ctx, ref)
}
