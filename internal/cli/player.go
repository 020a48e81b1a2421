package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/scorekeeper/internal/api/response"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerAddCmd())
	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerAvatarCmd())
	cmd.AddCommand(newPlayerManualTotalCmd())
	cmd.AddCommand(newPlayerMoneyCmd())

	return cmd
}

func playerPath(id string) string {
	return "/api/v1/players/" + url.PathEscape(id)
}

func newPlayerAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a player",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": strings.Join(args, " ")}
			var result response.Player

			if err := client.Post("/api/v1/players", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Player

			if err := client.Get("/api/v1/players", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <player-id>",
		Short: "Show a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Player

			if err := client.Get(playerPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerAvatarCmd() *cobra.Command {
	var avatarType, value string

	cmd := &cobra.Command{
		Use:   "avatar <player-id>",
		Short: "Set a player's avatar",
		Long: `Set a player's avatar. --type is emoji or image, with --value holding the
emoji or the image URL. Omit --type to reset to the letter avatar.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"type": avatarType, "value": value}
			var result response.Player

			if err := client.Put(playerPath(args[0])+"/avatar", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&avatarType, "type", "", "Avatar type: emoji, image (empty resets to letter)")
	cmd.Flags().StringVar(&value, "value", "", "Emoji or image URL")

	return cmd
}

func newPlayerManualTotalCmd() *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "manual-total <player-id> [total]",
		Short: "Override a player's overall total",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]*int{"total": nil}
			switch {
			case unset && len(args) == 2:
				return fmt.Errorf("pass a total or --clear, not both")
			case !unset && len(args) == 1:
				return fmt.Errorf("a total is required unless --clear is set")
			case !unset:
				total, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("total must be a whole number: %w", err)
				}
				req["total"] = &total
			}

			var result response.Player
			if err := client.Put(playerPath(args[0])+"/manual-total", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "clear", false, "Remove the override")

	return cmd
}

func newPlayerMoneyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "money <player-id> <amount>",
		Short: "Set a player's money balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}

			req := map[string]float64{"money": amount}
			var result response.Player
			if err := client.Put(playerPath(args[0])+"/money", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
