package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; flags and the process environment still apply.
	_ = godotenv.Load()

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	r := &runner{in: in, out: out}

	return &cli.App{
		Name:  "storefront",
		Usage: "Search the catalog and manage product lists from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Aliases: []string{"u"},
				Usage:   "Storefront API base URL",
				EnvVars: []string{"STOREFRONT_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Session token returned by signin",
				EnvVars: []string{"STOREFRONT_TOKEN"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for each backend request",
				Value: defaultTimeout,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the catalog once, or interactively from stdin",
				ArgsUsage: "[query]",
				Flags: append(criteriaFlags(),
					&cli.StringFlag{
						Name:  "backend",
						Usage: "Search backend: rest, algolia or inmemory",
						Value: backendREST,
					},
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Algolia index name",
						EnvVars: []string{"ALGOLIA_INDEX"},
						Value:   "products",
					},
					&cli.StringFlag{
						Name:    "algolia-secret-arn",
						Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
						EnvVars: []string{"ALGOLIA_SECRET_ARN"},
					},
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "JSON file holding an array of products, for the inmemory backend",
					},
					&cli.BoolFlag{
						Name:  "interactive",
						Usage: "Read one query per line from stdin and print debounced results",
					},
					&cli.DurationFlag{
						Name:  "window",
						Usage: "Debounce window in interactive mode",
						Value: 300 * time.Millisecond,
					},
				),
				Action: r.search,
			},
			{
				Name:  "url",
				Usage: "Convert between search flags and a catalog query string",
				Subcommands: []*cli.Command{
					{
						Name:      "encode",
						Usage:     "Print the query string for the given search",
						ArgsUsage: "[query]",
						Flags:     criteriaFlags(),
						Action:    r.urlEncode,
					},
					{
						Name:      "decode",
						Usage:     "Print the search carried by a query string",
						ArgsUsage: "<query-string>",
						Action:    r.urlDecode,
					},
				},
			},
			{
				Name:   "categories",
				Usage:  "List catalog categories",
				Action: r.categories,
			},
			{
				Name:  "browse",
				Usage: "Page through the whole catalog",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Number of pages to reveal",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Products per page",
						Value: 12,
					},
				},
				Action: r.browse,
			},
			{
				Name:  "lists",
				Usage: "Manage the signed-in user's product lists",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print every list with its products",
						Action: r.listsShow,
					},
					{
						Name:      "toggle",
						Usage:     "Add a product to a list, or remove it if present",
						ArgsUsage: "<product-id> <list-id>",
						Action:    r.listsToggle,
					},
					{
						Name:      "create",
						Usage:     "Create a list",
						ArgsUsage: "<name> [description]",
						Action:    r.listsCreate,
					},
					{
						Name:      "remove",
						Usage:     "Delete a list",
						ArgsUsage: "<list-id>",
						Action:    r.listsRemove,
					},
					{
						Name:      "done",
						Usage:     "Mark a list as done",
						ArgsUsage: "<list-id>",
						Action:    r.listsDone,
					},
				},
			},
			{
				Name:  "signin",
				Usage: "Sign in and print the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mail", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"STOREFRONT_PASSWORD"}},
				},
				Action: r.signIn,
			},
			{
				Name:  "signup",
				Usage: "Create an account and print the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "firstname"},
					&cli.StringFlag{Name: "lastname"},
					&cli.StringFlag{Name: "mail", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"STOREFRONT_PASSWORD"}},
				},
				Action: r.signUp,
			},
		},
	}
}
