package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lobbynotify/internal/auth"
	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := database.SchemaVersion()
			if err != nil {
				return err
			}
			fmt.Printf("schema version %d\n", version)
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}

	var p db.CreateUserParams
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			p.Username = args[0]
			if p.Email == "" {
				p.Email = p.Username + "@localhost"
			}
			user, err := db.NewUserRepository(database).Create(p)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	create.Flags().StringVar(&p.Email, "email", "", "email address")
	create.Flags().StringVar(&p.FirstName, "first-name", "", "first name")
	create.Flags().StringVar(&p.LastName, "last-name", "", "last name")
	create.Flags().StringVar(&p.Nickname, "nickname", "", "nickname")
	create.Flags().StringVar(&p.Locale, "locale", "", "locale used for notification text")

	cmd.AddCommand(create)
	return cmd
}

func teamCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "team", Short: "Manage teams"}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name> <display name>",
		Short: "Create a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			team, err := db.NewTeamRepository(database).Create(args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(team)
		},
	})
	return cmd
}

func channelCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "channel", Short: "Manage channels"}

	var (
		channelType string
		members     []string
	)
	create := &cobra.Command{
		Use:   "create <team id> <name> <display name>",
		Short: "Create a channel and add members by username",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			switch channelType {
			case models.ChannelTypeOpen, models.ChannelTypePrivate, models.ChannelTypeDirect, models.ChannelTypeGroup:
			default:
				return fmt.Errorf("unknown channel type %q", channelType)
			}

			users := db.NewUserRepository(database)
			channels := db.NewChannelRepository(database)

			ids, err := users.FindIDsByUsernames(members)
			if err != nil {
				return err
			}
			if len(ids) != len(members) {
				return fmt.Errorf("some of %v are not known users", members)
			}

			channel, err := channels.Create(args[0], args[1], args[2], channelType)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := channels.AddMember(channel.ID, id); err != nil {
					return err
				}
			}
			return printJSON(channel)
		},
	}
	create.Flags().StringVar(&channelType, "type", models.ChannelTypeOpen, "channel type: O, P, D or G")
	create.Flags().StringSliceVar(&members, "member", nil, "username to add (repeatable)")

	cmd.AddCommand(create)
	return cmd
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <username>",
		Short: "Issue an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			user, err := db.NewUserRepository(database).FindByUsername(args[0])
			if err != nil {
				return fmt.Errorf("finding user %q: %w", args[0], err)
			}

			token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL).IssueAccessToken(user.ID)
			if err != nil {
				return err
			}
			return printJSON(token)
		},
	}
}
