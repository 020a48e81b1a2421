// Package transfer converts tracked state to and from portable JSON and CSV
// documents.
package transfer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/dependencies/ids"
	"github.com/mcoot/scorekeeper/internal/record"
	"github.com/mcoot/scorekeeper/internal/services/appearance"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
)

// Format is a document format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FileNamePrefix starts every exported file name
const FileNamePrefix = "phase10_data_"

// FileName returns the conventional download name for an export
func FileName(format Format, now time.Time) string {
	return FileNamePrefix + now.UTC().Format(record.DateLayout) + "." + string(format)
}

// FormatError reports a structurally invalid document. Nothing from the
// document is applied.
type FormatError struct {
	Format Format
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s import: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s import: %s", e.Format, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ReferentialWarning records a game dropped from an import because it
// references players missing from the document
type ReferentialWarning struct {
	GameID           string   `json:"game_id"`
	MissingPlayerIDs []string `json:"missing_player_ids"`
}

// RejectedGame records a game dropped from an import because one of its
// rounds is invalid
type RejectedGame struct {
	GameID  string `json:"game_id"`
	RoundID string `json:"round_id"`
	Reason  string `json:"reason"`
}

// ImportReport lists the repairs made while importing
type ImportReport struct {
	DateRepairs      []record.DateRepair  `json:"date_repairs,omitempty"`
	Warnings         []ReferentialWarning `json:"warnings,omitempty"`
	Rejected         []RejectedGame       `json:"rejected,omitempty"`
	AssignedColors   int                  `json:"assigned_colors"`
	AssignedScoreIDs int                  `json:"assigned_score_ids"`
	AssignedCodes    int                  `json:"assigned_codes"`
}

// Service imports and exports documents
type Service struct {
	clock     clock.Clock
	ids       ids.Generator
	joinCodes *joincode.Generator
	assigner  *appearance.Assigner
	logger    *slog.Logger
}

// New creates a transfer service
func New(
	clk clock.Clock,
	idGen ids.Generator,
	joinCodes *joincode.Generator,
	assigner *appearance.Assigner,
	logger *slog.Logger,
) *Service {
	return &Service{
		clock:     clk,
		ids:       idGen,
		joinCodes: joinCodes,
		assigner:  assigner,
		logger:    logger.With(slog.String("component", "transfer")),
	}
}

func (s *Service) logRepairs(format Format, report ImportReport) {
	for _, r := range report.DateRepairs {
		s.logger.Warn("replaced unreadable game date",
			slog.String("format", string(format)),
			slog.String("game_id", r.GameID),
			slog.String("raw", r.Raw),
		)
	}
	for _, w := range report.Warnings {
		s.logger.Warn("dropped game with unknown players",
			slog.String("format", string(format)),
			slog.String("game_id", w.GameID),
			slog.Any("missing_player_ids", w.MissingPlayerIDs),
		)
	}
	for _, r := range report.Rejected {
		s.logger.Warn("dropped game with invalid round",
			slog.String("format", string(format)),
			slog.String("game_id", r.GameID),
			slog.String("round_id", r.RoundID),
			slog.String("error", r.Reason),
		)
	}
}
