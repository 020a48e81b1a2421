package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/scorekeeper/internal/api/request"
	"github.com/mcoot/scorekeeper/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameFindCmd())
	cmd.AddCommand(newGameDeleteCmd())
	cmd.AddCommand(newGameSummaryCmd())

	return cmd
}

func gamePath(id string) string {
	return "/api/v1/games/" + url.PathEscape(id)
}

func newGameCreateCmd() *cobra.Command {
	var players []string
	var gameType, date string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateGameRequest{
				Date:      date,
				PlayerIDs: players,
				GameType:  gameType,
			}
			var result response.Game

			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&players, "players", nil, "Player ids taking part (required)")
	cmd.Flags().StringVar(&gameType, "type", "", `Game type: "Phase 10" or "Poker" (default Phase 10)`)
	cmd.Flags().StringVar(&date, "date", "", "Game date, e.g. 2024-01-31 (default now)")
	_ = cmd.MarkFlagRequired("players")

	return cmd
}

func newGameListCmd() *cobra.Command {
	var byDate bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/games"
			if byDate {
				path += "?sort=date"
			}
			var result []response.Game

			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byDate, "by-date", false, "Newest first")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show a game with its rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game

			if err := client.Get(gamePath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <code>",
		Short: "Find a game by its three-word code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToLower(strings.TrimSpace(args[0]))
			var result response.Game

			if err := client.Get("/api/v1/games/by-code/"+url.PathEscape(code), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game-id>...",
		Short: "Delete one or more games",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := client.Delete(gamePath(args[0]), nil); err != nil {
					return err
				}
				output(cmd).Print(response.DeletedGames{Deleted: args})
				return nil
			}

			var result response.DeletedGames
			if err := client.Post("/api/v1/games/delete", request.DeleteGamesRequest{IDs: args}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <game-id>",
		Short: "Show totals and phases for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameSummary

			if err := client.Get(gamePath(args[0])+"/summary", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRankingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rankings",
		Short: "Show overall standings, lowest total first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Ranking

			if err := client.Get("/api/v1/rankings", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

// roundFlags are shared by round add and round update
type roundFlags struct {
	scores []string
	winner string
	pot    float64
	hand   string
}

func (f *roundFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.scores, "score", nil, "Score as player-id:points:phase[:done] (repeatable)")
	cmd.Flags().StringVar(&f.winner, "winner", "", "Poker round winner player id")
	cmd.Flags().Float64Var(&f.pot, "pot", 0, "Poker pot amount")
	cmd.Flags().StringVar(&f.hand, "hand", "", `Poker winning hand, e.g. "Full House"`)
	_ = cmd.MarkFlagRequired("score")
}

func (f *roundFlags) request(cmd *cobra.Command) (request.RoundRequest, error) {
	req := request.RoundRequest{
		Scores:      make([]request.ScoreRequest, 0, len(f.scores)),
		WinningHand: f.hand,
	}
	for _, raw := range f.scores {
		score, err := ParseScore(raw)
		if err != nil {
			return request.RoundRequest{}, err
		}
		req.Scores = append(req.Scores, score)
	}
	if f.winner != "" {
		req.WinnerID = &f.winner
	}
	if cmd.Flags().Changed("pot") {
		req.PotAmount = &f.pot
	}
	return req, nil
}

// ParseScore reads player-id:points:phase[:done]. The last part marks the
// phase completed when it is done, yes, true or y.
func ParseScore(raw string) (request.ScoreRequest, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 4 || parts[0] == "" {
		return request.ScoreRequest{}, fmt.Errorf("score %q must be player-id:points:phase[:done]", raw)
	}

	points, err := strconv.Atoi(parts[1])
	if err != nil {
		return request.ScoreRequest{}, fmt.Errorf("score %q: points must be a whole number", raw)
	}
	phase, err := strconv.Atoi(parts[2])
	if err != nil {
		return request.ScoreRequest{}, fmt.Errorf("score %q: phase must be a whole number", raw)
	}

	score := request.ScoreRequest{PlayerID: parts[0], Score: points, Phase: phase}
	if len(parts) == 4 {
		switch strings.ToLower(parts[3]) {
		case "done", "yes", "y", "true":
			score.Completed = true
		case "", "no", "n", "false":
		default:
			return request.ScoreRequest{}, fmt.Errorf("score %q: completion must be done or no", raw)
		}
	}
	return score, nil
}

func newRoundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Round commands",
	}

	cmd.AddCommand(newRoundAddCmd())
	cmd.AddCommand(newRoundUpdateCmd())
	cmd.AddCommand(newRoundDeleteCmd())
	cmd.AddCommand(newRoundScoreCmd())

	return cmd
}

func newRoundAddCmd() *cobra.Command {
	var flags roundFlags

	cmd := &cobra.Command{
		Use:   "add <game-id>",
		Short: "Record a round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}

			var result response.Round
			if err := client.Post(gamePath(args[0])+"/rounds", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newRoundUpdateCmd() *cobra.Command {
	var flags roundFlags

	cmd := &cobra.Command{
		Use:   "update <game-id> <round-id>",
		Short: "Replace every score in a round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}

			var result response.Round
			path := gamePath(args[0]) + "/rounds/" + url.PathEscape(args[1])
			if err := client.Put(path, req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newRoundDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game-id> <round-id>",
		Short: "Delete a round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := gamePath(args[0]) + "/rounds/" + url.PathEscape(args[1])
			if err := client.Delete(path, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("Round deleted")
			return nil
		},
	}
}

func newRoundScoreCmd() *cobra.Command {
	var points, phase int
	var completed, winner bool

	cmd := &cobra.Command{
		Use:   "score <game-id> <round-id> <player-id>",
		Short: "Set one player's score in a round",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.ScoreRequest{
				Score:     points,
				Phase:     phase,
				Completed: completed,
				IsWinner:  winner,
			}

			var result response.Round
			path := gamePath(args[0]) + "/rounds/" + url.PathEscape(args[1]) + "/scores/" + url.PathEscape(args[2])
			if err := client.Put(path, req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&points, "points", 0, "Points scored")
	cmd.Flags().IntVar(&phase, "phase", 1, "Phase attempted (1-10)")
	cmd.Flags().BoolVar(&completed, "completed", false, "Phase was completed")
	cmd.Flags().BoolVar(&winner, "winner", false, "Player won the Poker round")

	return cmd
}
