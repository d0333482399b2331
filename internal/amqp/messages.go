package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"shopledger/internal/sheets"
)

// SheetChangedMessage announces that a sheet was edited upstream. An empty
// Sheet means any sheet of the spreadsheet.
type SheetChangedMessage struct {
	SpreadsheetID string    `json:"spreadsheetId"`
	Sheet         string    `json:"sheet,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ErrInvalidMessage is returned for messages that cannot be acted on.
var ErrInvalidMessage = errors.New("invalid sheet changed message")

// NewSheetChangedMessage creates a message for ref stamped with the current time.
func NewSheetChangedMessage(ref sheets.Ref) *SheetChangedMessage {
	return &SheetChangedMessage{
		SpreadsheetID: strings.TrimSpace(ref.SpreadsheetID),
		Sheet:         strings.TrimSpace(ref.Sheet),
		Timestamp:     time.Now().UTC(),
	}
}

// Ref returns the sheet the message is about.
func (m *SheetChangedMessage) Ref() sheets.Ref {
	return sheets.Ref{SpreadsheetID: m.SpreadsheetID, Sheet: m.Sheet}
}

// Validate rejects messages without a spreadsheet.
func (m *SheetChangedMessage) Validate() error {
	if strings.TrimSpace(m.SpreadsheetID) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *SheetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SheetChangedMessageFromJSON decodes and validates a message.
func SheetChangedMessageFromJSON(data []byte) (*SheetChangedMessage, error) {
	var msg SheetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
