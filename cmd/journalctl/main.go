package main

import (
	"context"
	"fmt"
	"io"
	"journal-live/auth"
	"journal-live/domain"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()
	settings, err := LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Settings error: %v\n", err)
		os.Exit(2)
	}

	app := &cli.App{
		Name:  "journalctl",
		Usage: "operate a journal-live server",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "Mint a development credential for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.DurationFlag{Name: "ttl", Value: settings.TokenDuration},
				},
				Action: func(c *cli.Context) error {
					token, err := mintToken(settings, domain.UserID(c.String("user")), c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
			{
				Name:  "pair",
				Usage: "Store the two participants of a journal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "journal", Aliases: []string{"j"}, Required: true},
					&cli.StringFlag{Name: "user-a", Required: true},
					&cli.StringFlag{Name: "user-b", Required: true},
				},
				Action: func(c *cli.Context) error {
					participants, err := domain.NewParticipants(domain.UserID(c.String("user-a")), domain.UserID(c.String("user-b")))
					if err != nil {
						return err
					}
					return newAPIClient(settings).SetParticipants(c.Context, domain.JournalID(c.String("journal")), participants)
				},
			},
			{
				Name:  "pairs",
				Usage: "List stored pairings and live statistics",
				Action: func(c *cli.Context) error {
					client := newAPIClient(settings)
					pairings, err := client.Pairings(c.Context)
					if err != nil {
						return err
					}
					renderPairings(c.App.Writer, pairings)
					stats, err := client.Stats(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "\nrooms=%d connections=%d online=%d\n", stats.Rooms, stats.Connections, stats.OnlineUsers)
					return nil
				},
			},
			{
				Name:  "broadcast",
				Usage: "Relay a message as if the message store committed it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "journal", Aliases: []string{"j"}, Required: true},
					&cli.StringFlag{Name: "sender", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					return newAPIClient(settings).BroadcastMessage(c.Context, domain.JournalID(c.String("journal")), domain.Message{
						ID:        uuid.NewString(),
						SenderID:  domain.UserID(c.String("sender")),
						Type:      "text",
						Content:   c.String("content"),
						CreatedAt: time.Now().UTC(),
					})
				},
			},
			{
				Name:  "watch",
				Usage: "Connect as a user, subscribe journals and print every frame",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "mint a token for this user"},
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "use this token instead"},
					&cli.StringSliceFlag{Name: "journal", Aliases: []string{"j"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					token := c.String("token")
					if token == "" {
						if c.String("user") == "" {
							return fmt.Errorf("either --user or --token is required")
						}
						minted, err := mintToken(settings, domain.UserID(c.String("user")), settings.TokenDuration)
						if err != nil {
							return err
						}
						token = minted
					}
					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return watch(ctx, c.App.Writer, settings, token, c.StringSlice("journal"))
				},
			},
		},
	}

	if err = app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "journalctl: %v\n", err)
		os.Exit(1)
	}
}

func mintToken(settings Settings, userID domain.UserID, ttl time.Duration) (string, error) {
	if settings.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is required to mint tokens")
	}
	credential, err := auth.NewJWTService(settings.JWTSecret, ttl).GenerateToken(userID, []string{"user"}, ttl)
	if err != nil {
		return "", err
	}
	return credential.Token, nil
}

func renderPairings(w io.Writer, pairings []domain.Pairing) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Journal", "User A", "User B", "Updated"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, p := range pairings {
		table.Append([]string{
			p.JournalID.String(),
			p.Participants.UserA.String(),
			p.Participants.UserB.String(),
			p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	table.SetFooter([]string{"", "", "total", strconv.Itoa(len(pairings))})
	table.Render()
}
