package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/letmevibethatforyou/storefrontx/algolia"
	"github.com/letmevibethatforyou/storefrontx/browse"
	"github.com/letmevibethatforyou/storefrontx/debounce"
	"github.com/letmevibethatforyou/storefrontx/inmemory"
	"github.com/letmevibethatforyou/storefrontx/lists"
	"github.com/letmevibethatforyou/storefrontx/rest"
	"github.com/letmevibethatforyou/storefrontx/session"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	backendREST     = "rest"
	backendAlgolia  = "algolia"
	backendInMemory = "inmemory"
)

// runner holds the command actions and the streams they use.
type runner struct {
	in  io.Reader
	out io.Writer
}

func (r *runner) client(c *cli.Context) *rest.Client {
	return rest.NewClient(c.String("base-url"), rest.WithTimeout(c.Duration("timeout")))
}

// session returns a session signed in with --token, or signed out.
func (r *runner) session(c *cli.Context) *session.Session {
	s := session.New(slog.Default())
	if token := strings.TrimSpace(c.String("token")); token != "" {
		s.Login(storefrontx.User{Token: token})
	}
	return s
}

func (r *runner) searcher(c *cli.Context) (storefrontx.Searcher, error) {
	ctx := c.Context
	switch backend := c.String("backend"); backend {
	case backendREST, "":
		return r.client(c), nil
	case backendAlgolia:
		var fetchSecrets algolia.FetchSecrets
		if arn := strings.TrimSpace(c.String("algolia-secret-arn")); arn != "" {
			slog.InfoContext(ctx, "Using AWS Secrets Manager for Algolia credentials", "secret_arn", arn)
			cfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "failed to load AWS config")
			}
			fetchSecrets = algolia.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), arn)
		} else {
			fetchSecrets = algolia.EnvSecrets()
		}
		return algolia.NewSearcher(algolia.NewClient(fetchSecrets), c.String("index")), nil
	case backendInMemory:
		path := c.String("catalog")
		if path == "" {
			return nil, errors.New("--catalog is required for the inmemory backend")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read catalog %s", path)
		}
		return loadCatalog(data)
	default:
		return nil, errors.Newf("unknown backend %q", backend)
	}
}

// loadCatalog builds an in-memory catalog from a JSON array of products.
func loadCatalog(data []byte) (*inmemory.Searcher, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "catalog must be a JSON array of products")
	}
	s := inmemory.New()
	for i, item := range raw {
		if err := s.AddJSON(item); err != nil {
			return nil, errors.Wrapf(err, "product %d", i)
		}
	}
	return s, nil
}

func (r *runner) search(c *cli.Context) error {
	req, err := inputFromContext(c).request()
	if err != nil {
		return err
	}

	searcher, err := r.searcher(c)
	if err != nil {
		return err
	}

	if c.Bool("interactive") {
		return r.interactive(c.Context, searcher, req.Criteria, c.Duration("window"))
	}

	if err := req.Criteria.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	slog.InfoContext(ctx, "Executing search",
		"backend", c.String("backend"),
		"query", req.Query,
		"filters", storefrontx.ActiveCount(req.Criteria),
		"sort", req.Criteria.Sort(),
	)

	res, err := searcher.Search(ctx, req)
	if err != nil {
		return errors.Wrap(err, "search failed")
	}
	return writeJSON(r.out, resultsView(res))
}

// interactive feeds stdin lines to a debounced searcher. A line starting with
// "?" replaces the whole search with a decoded query string; any other line
// replaces the query text and keeps the filters.
func (r *runner) interactive(ctx context.Context, searcher storefrontx.Searcher, criteria storefrontx.Criteria, window time.Duration) error {
	ds, err := debounce.New(searcher,
		debounce.WithWindow(window),
		debounce.WithBaseContext(ctx),
		debounce.WithOnResult(func(snap debounce.Snapshot) {
			if err := writeJSON(r.out, snapshotView(snap)); err != nil {
				slog.WarnContext(ctx, "Failed to print results", "error", err)
			}
		}),
	)
	if err != nil {
		return err
	}
	defer ds.Close()

	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "?") {
			var q string
			criteria, q = storefrontx.DecodeQuery(line)
			ds.Set(storefrontx.SearchRequest{Query: q, Criteria: criteria})
			continue
		}
		ds.Set(storefrontx.SearchRequest{Query: line, Criteria: criteria})
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read stdin")
	}

	ds.Flush()
	waitIdle(ctx, ds)
	return nil
}

// waitIdle blocks until a request already in flight has settled.
func waitIdle(ctx context.Context, ds *debounce.Searcher) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for ds.State() != debounce.StateIdle {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *runner) urlEncode(c *cli.Context) error {
	req, err := inputFromContext(c).request()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, "?"+storefrontx.EncodeQuery(req.Criteria, req.Query))
	return err
}

func (r *runner) urlDecode(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one query string")
	}
	raw := c.Args().First()
	crit, q := storefrontx.DecodeQuery(raw)
	return writeJSON(r.out, decodedView{
		Search:   storefrontx.HasSearchParams(raw),
		Query:    q,
		Criteria: criteriaView(crit),
	})
}

func (r *runner) categories(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	cats, err := r.client(c).Categories(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load categories")
	}
	for _, cat := range cats {
		if _, err := fmt.Fprintln(r.out, cat); err != nil {
			return err
		}
	}
	return nil
}

// browse loads the categories, the user's lists and the first page
// concurrently, like the catalog landing page does.
func (r *runner) browse(c *cli.Context) error {
	ctx := c.Context
	client := r.client(c)
	sess := r.session(c)
	pager := browse.NewPager(client, c.Int("page-size"))
	membership := lists.NewMembership(client, sess, slog.Default())

	var (
		cats  []string
		first []storefrontx.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = client.Categories(gctx)
		return errors.Wrap(err, "failed to load categories")
	})
	g.Go(func() error {
		var err error
		first, err = pager.Next(gctx)
		return err
	})
	if _, ok := sess.Token(); ok {
		g.Go(func() error {
			return errors.Wrap(membership.Refresh(gctx), "failed to load lists")
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Loaded first page", "products", len(first))
	for i := 1; i < c.Int("pages") && pager.HasMore(); i++ {
		if _, err := pager.Next(ctx); err != nil {
			return err
		}
	}

	return writeJSON(r.out, browseView{
		Categories: cats,
		Products:   productViews(pager.Items(), membership.Lists()),
		More:       pager.HasMore(),
	})
}
