package transfer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/record"
	"github.com/mcoot/scorekeeper/internal/services/appearance"
)

const (
	dateColumn      = "date"
	scoreSuffix     = "_score"
	phaseSuffix     = "_phase"
	completedSuffix = "_completed"

	completedYes = "Yes"
	completedNo  = "No"
)

// CSVResult holds what a CSV import adds to the existing state
type CSVResult struct {
	Games      []model.Game
	NewPlayers []model.Player
}

// ExportCSV writes one row per game round. The header is date followed by
// the score, phase and completed columns of every player in the order they
// first appear; a row leaves the cells of absent players empty.
func ExportCSV(snapshot model.Snapshot) ([]byte, error) {
	names := make(map[model.PlayerID]string, len(snapshot.Players))
	for _, p := range snapshot.Players {
		names[p.ID] = p.Name
	}

	header := []string{dateColumn}
	column := make(map[string]int)
	var rows []map[string]string

	for _, g := range snapshot.Games {
		date := g.Date.UTC().Format(record.DateLayout)
		for _, r := range g.Rounds {
			row := map[string]string{dateColumn: date}
			for _, ps := range r.PlayerScores {
				name, ok := names[ps.PlayerID]
				if !ok {
					continue
				}
				if _, seen := column[name+scoreSuffix]; !seen {
					for _, suffix := range []string{scoreSuffix, phaseSuffix, completedSuffix} {
						column[name+suffix] = len(header)
						header = append(header, name+suffix)
					}
				}
				row[name+scoreSuffix] = strconv.Itoa(ps.Score)
				row[name+phaseSuffix] = strconv.Itoa(ps.Phase)
				row[name+completedSuffix] = completedNo
				if ps.Completed {
					row[name+completedSuffix] = completedYes
				}
			}
			rows = append(rows, row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		line := make([]string, len(header))
		for i, h := range header {
			line[i] = row[h]
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvError(reason string, err error) *FormatError {
	return &FormatError{Format: FormatCSV, Reason: reason, Err: err}
}

// readCSV returns the header and the data rows keyed by column name
func readCSV(data []byte) ([]string, []map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, csvError("empty document", nil)
	}
	if err != nil {
		return nil, nil, csvError("malformed header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]string
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, csvError("malformed row", err)
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = strings.TrimSpace(fields[i])
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ImportCSV parses a flattened CSV into games and players to add to the
// existing state. Players match existing ones by exact name; rows sharing a
// date form one game with a round per row.
func (s *Service) ImportCSV(data []byte, existing model.Snapshot) (CSVResult, ImportReport, error) {
	var report ImportReport

	header, rows, err := readCSV(data)
	if err != nil {
		return CSVResult{}, report, err
	}
	if !slices.Contains(header, dateColumn) {
		return CSVResult{}, report, csvError(`missing "date" column`, nil)
	}

	var names []string
	for _, h := range header {
		name, ok := strings.CutSuffix(h, scoreSuffix)
		if ok && name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return CSVResult{}, report, csvError(`no "<name>_score" columns`, nil)
	}
	if len(rows) == 0 {
		return CSVResult{}, report, csvError("no data rows", nil)
	}

	result := CSVResult{Games: []model.Game{}, NewPlayers: []model.Player{}}
	playerIDs := make(map[string]model.PlayerID, len(names))
	for _, name := range names {
		if i := slices.IndexFunc(existing.Players, func(p model.Player) bool { return p.Name == name }); i >= 0 {
			playerIDs[name] = existing.Players[i].ID
			continue
		}
		player := model.Player{
			ID:     model.PlayerID(s.ids.NewID()),
			Name:   name,
			Color:  appearance.StringToColor(name),
			Avatar: s.assigner.DefaultAvatar(),
		}
		result.NewPlayers = append(result.NewPlayers, player)
		playerIDs[name] = player.ID
		report.AssignedColors++
	}

	var dates []string
	byDate := make(map[string][]map[string]string)
	for _, row := range rows {
		date := row[dateColumn]
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], row)
	}

	taken := make(map[string]bool, len(existing.Games))
	for _, g := range existing.Games {
		taken[g.UniqueCode] = true
	}

	now := s.clock.Now()
	for _, date := range dates {
		game := model.Game{
			ID:       model.GameID(s.ids.NewID()),
			GameType: model.GameTypePhase10,
			Players:  []model.PlayerID{},
			Rounds:   []model.Round{},
		}

		parsed, ok := record.ParseDate(date)
		if !ok {
			parsed = now
			report.DateRepairs = append(report.DateRepairs, record.DateRepair{GameID: string(game.ID), Raw: date})
		}
		game.Date = parsed

		for _, row := range byDate[date] {
			round := model.Round{ID: model.RoundID(s.ids.NewID()), PlayerScores: []model.PlayerScore{}}
			for _, name := range names {
				cell := row[name+scoreSuffix]
				if cell == "" {
					continue
				}
				id := playerIDs[name]
				if !game.HasPlayer(id) {
					game.Players = append(game.Players, id)
				}
				round.PlayerScores = append(round.PlayerScores, model.PlayerScore{
					ID:        model.ScoreID(s.ids.NewID()),
					PlayerID:  id,
					Score:     atoiOr(cell, 0),
					Phase:     parsePhase(row[name+phaseSuffix]),
					Completed: row[name+completedSuffix] == completedYes,
				})
				report.AssignedScoreIDs++
			}
			if len(round.PlayerScores) > 0 {
				game.Rounds = append(game.Rounds, round)
			}
		}

		if len(game.Rounds) == 0 {
			s.logger.Warn("skipped csv date with no scores", slog.String("date", date))
			continue
		}

		// keep the game's player order aligned with the header
		slices.SortStableFunc(game.Players, func(a, b model.PlayerID) int {
			return indexOfPlayer(names, playerIDs, a) - indexOfPlayer(names, playerIDs, b)
		})

		game.UniqueCode = s.joinCodes.GenerateUnique(func(c string) bool { return taken[c] })
		taken[game.UniqueCode] = true
		report.AssignedCodes++
		result.Games = append(result.Games, game)
	}

	s.logRepairs(FormatCSV, report)
	s.logger.Info("csv import parsed",
		slog.Int("game_count", len(result.Games)),
		slog.Int("new_player_count", len(result.NewPlayers)),
	)
	return result, report, nil
}

func indexOfPlayer(names []string, ids map[string]model.PlayerID, id model.PlayerID) int {
	return slices.IndexFunc(names, func(n string) bool { return ids[n] == id })
}

// atoiOr reads an integer cell. Whole-number floats such as "12.0" are
// accepted; fractions and values outside the stored INTEGER range give fallback.
func atoiOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return fallback
	}
	return int(f)
}

// parsePhase reads a phase cell; blank or out-of-range values mean phase 1
func parsePhase(s string) int {
	phase := atoiOr(s, model.MinPhase)
	if phase < model.MinPhase || phase > model.MaxPhase {
		return model.MinPhase
	}
	return phase
}
