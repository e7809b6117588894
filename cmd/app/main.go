package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/techdocs/internal"
	pkgconfig "github.com/starford/techdocs/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// defaultConfigFile is the shipped sample, used when --config names a
// file that does not exist.
const defaultConfigFile = "config/config.yaml"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	requested := cmd.String("config")
	used, err := pkgconfig.LoadWithDefaults(requested, defaultConfigFile, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if used != requested {
		slog.Warn("config file not found, using default",
			slog.String("requested", requested),
			slog.String("loaded", used))
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func listUsers(_ context.Context, cmd *cli.Command) error {
	users, err := internal.ListUsers(cmd.String("config"))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\n", u.Username, u.Role)
	}
	return tw.Flush()
}

func addUser(_ context.Context, cmd *cli.Command) error {
	u := internal.UserConfig{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Role:     cmd.String("role"),
	}
	if err := internal.AddUser(cmd.String("config"), u); err != nil {
		return err
	}
	fmt.Printf("user %q added\n", u.Username)
	return nil
}

func removeUser(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: users remove <username>")
	}
	if err := internal.RemoveUser(cmd.String("config"), name); err != nil {
		return err
	}
	fmt.Printf("user %q removed\n", name)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "techdocs",
		Usage:   "Browse and edit a tree of Markdown documents over HTTP",
		Version: version,
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the document tools to an LLM client over stdio (MCP)",
				Action: runMCP,
			},
			{
				Name:  "users",
				Usage: "Manage the accounts allowed to log in",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List configured users",
						Action: listUsers,
					},
					{
						Name:  "add",
						Usage: "Add a user to the config file",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
							&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Sources: cli.EnvVars("TECHDOCS_NEW_PASSWORD")},
							&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: "editor"},
						},
						Action: addUser,
					},
					{
						Name:      "remove",
						Usage:     "Remove a user from the config file",
						ArgsUsage: "<username>",
						Action:    removeUser,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
