package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/scorekeeper/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == OutputJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case []response.Player:
		o.printPlayers(v)
	case response.Game:
		o.printGame(v)
	case []response.Game:
		o.printGames(v)
	case response.Round:
		o.printRound(v)
	case response.GameSummary:
		o.printSummary(v)
	case response.DeletedGames:
		fmt.Fprintf(o.w, "Deleted %d game(s)\n", len(v.Deleted))
	case []response.Ranking:
		o.printRankings(v)
	case response.ImportResult:
		o.printImportResult(v)
	case response.Identity:
		o.printIdentity(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) table() *tabwriter.Writer {
	return tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
}

func avatarText(a response.Avatar) string {
	if a.Value == "" {
		return a.Type
	}
	return a.Type + " " + a.Value
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Color: %s\n", p.Color)
	fmt.Fprintf(o.w, "Avatar: %s\n", avatarText(p.Avatar))
	if p.ManualTotal != nil {
		fmt.Fprintf(o.w, "Manual Total: %d\n", *p.ManualTotal)
	}
	fmt.Fprintf(o.w, "Money: %.2f\n", p.Money)
}

func (o *Output) printPlayers(players []response.Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}
	tw := o.table()
	fmt.Fprintln(tw, "ID\tNAME\tAVATAR\tMONEY")
	for _, p := range players {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", p.ID, p.Name, avatarText(p.Avatar), p.Money)
	}
	_ = tw.Flush()
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s (%s)\n", g.ID, g.GameType)
	fmt.Fprintf(o.w, "Code: %s\n", g.UniqueCode)
	fmt.Fprintf(o.w, "Date: %s\n", g.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(o.w, "Players: %s\n", strings.Join(g.Players, ", "))
	fmt.Fprintf(o.w, "Rounds (%d):\n", len(g.Rounds))
	for _, r := range g.Rounds {
		o.printRound(r)
	}
}

func (o *Output) printGames(games []response.Game) {
	if len(games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	tw := o.table()
	fmt.Fprintln(tw, "ID\tCODE\tTYPE\tDATE\tPLAYERS\tROUNDS")
	for _, g := range games {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			g.ID, g.UniqueCode, g.GameType, g.Date.Format("2006-01-02"), len(g.Players), len(g.Rounds))
	}
	_ = tw.Flush()
}

func (o *Output) printRound(r response.Round) {
	fmt.Fprintf(o.w, "  Round %d (%s)", r.Number, r.ID)
	if r.WinnerID != nil {
		fmt.Fprintf(o.w, " winner %s", *r.WinnerID)
		if r.WinningHand != "" {
			fmt.Fprintf(o.w, " with %s", r.WinningHand)
		}
	}
	if r.PotAmount != nil {
		fmt.Fprintf(o.w, " pot %.2f", *r.PotAmount)
	}
	fmt.Fprintln(o.w)
	for _, ps := range r.PlayerScores {
		done := ""
		if ps.Completed {
			done = " completed"
		}
		fmt.Fprintf(o.w, "    - %s: %d points, phase %d%s\n", ps.PlayerID, ps.Score, ps.Phase, done)
	}
}

func (o *Output) printSummary(s response.GameSummary) {
	fmt.Fprintf(o.w, "Game: %s (%s), %d round(s)\n", s.Game.ID, s.Game.GameType, len(s.Game.Rounds))
	tw := o.table()
	fmt.Fprintln(tw, "PLAYER\tTOTAL\tPHASE\tLAST PLAYED")
	for _, st := range s.Standings {
		last := "-"
		if st.LastPlayed != nil {
			last = fmt.Sprintf("phase %d", st.LastPlayed.Phase)
			if st.LastPlayed.Completed {
				last += " (done)"
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", st.Name, st.Total, st.CurrentPhase, last)
	}
	_ = tw.Flush()
}

func (o *Output) printRankings(rankings []response.Ranking) {
	if len(rankings) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}
	tw := o.table()
	fmt.Fprintln(tw, "RANK\tPLAYER\tTOTAL")
	for _, r := range rankings {
		manual := ""
		if r.Manual {
			manual = " (manual)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d%s\n", r.Rank, r.Player.Name, r.Total, manual)
	}
	_ = tw.Flush()
}

func (o *Output) printImportResult(r response.ImportResult) {
	fmt.Fprintf(o.w, "Imported %s: %d game(s), %d player(s)\n", r.Format, r.GameCount, r.PlayerCount)
	for _, p := range r.NewPlayers {
		fmt.Fprintf(o.w, "  New player: %s (%s)\n", p.Name, p.ID)
	}
	if r.DateRepairs > 0 {
		fmt.Fprintf(o.w, "  Repaired %d unreadable date(s)\n", r.DateRepairs)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(o.w, "  Dropped game %s: unknown players %s\n", w.GameID, strings.Join(w.MissingPlayerIDs, ", "))
	}
}

func (o *Output) printIdentity(i response.Identity) {
	if i.Anonymous || i.UserID == nil {
		fmt.Fprintln(o.w, "Signed out (data stays on this device)")
		return
	}
	fmt.Fprintf(o.w, "Signed in as %s\n", *i.UserID)
	if i.Source != "" {
		fmt.Fprintf(o.w, "Data loaded from: %s\n", i.Source)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Remote sync: %t\n", h.RemoteEnabled)
}
