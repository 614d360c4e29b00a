package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/letmevibethatforyou/storefrontx/lists"
	"github.com/urfave/cli/v2"
)

const signUpPrompt = "Sign in or create an account to save products to a list."

// membership returns a list view for the --token session, loaded from the
// backend when the session is signed in.
func (r *runner) membership(c *cli.Context) (*lists.Membership, error) {
	sess := r.session(c)
	m := lists.NewMembership(r.client(c), sess, slog.Default())
	if _, ok := sess.Token(); !ok {
		return m, nil
	}
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	if err := m.Refresh(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load lists")
	}
	return m, nil
}

func (r *runner) listsShow(c *cli.Context) error {
	if _, ok := r.session(c).Token(); !ok {
		return storefrontx.ErrUnauthenticated
	}
	m, err := r.membership(c)
	if err != nil {
		return err
	}
	return writeJSON(r.out, listViews(m.Lists()))
}

func (r *runner) listsToggle(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("expected <product-id> <list-id>")
	}
	m, err := r.membership(c)
	if err != nil {
		return err
	}

	out, err := m.Toggle(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	if out.PromptSignUp {
		_, err = fmt.Fprintln(r.out, signUpPrompt)
		return err
	}
	_, err = fmt.Fprintln(r.out, out.Message)
	return err
}

func (r *runner) listsCreate(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("expected <name> [description]")
	}
	m, err := r.membership(c)
	if err != nil {
		return err
	}
	list, err := m.Create(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	return writeJSON(r.out, listView(list))
}

func (r *runner) listsRemove(c *cli.Context) error {
	return r.listAction(c, (*lists.Membership).Remove, "List removed")
}

func (r *runner) listsDone(c *cli.Context) error {
	return r.listAction(c, (*lists.Membership).MarkDone, "List marked as done")
}

func (r *runner) listAction(c *cli.Context, action func(*lists.Membership, context.Context, string) error, done string) error {
	if c.NArg() != 1 {
		return errors.New("expected <list-id>")
	}
	m, err := r.membership(c)
	if err != nil {
		return err
	}
	if err := action(m, c.Context, c.Args().First()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, done)
	return err
}

func (r *runner) signIn(c *cli.Context) error {
	user, err := r.session(c).SignIn(c.Context, r.client(c), storefrontx.Credentials{
		Mail:     c.String("mail"),
		Password: c.String("password"),
	})
	if err != nil {
		return err
	}
	return writeJSON(r.out, user)
}

func (r *runner) signUp(c *cli.Context) error {
	user, err := r.session(c).SignUp(c.Context, r.client(c), storefrontx.Registration{
		Firstname: c.String("firstname"),
		Lastname:  c.String("lastname"),
		Mail:      c.String("mail"),
		Password:  c.String("password"),
	})
	if err != nil {
		return err
	}
	return writeJSON(r.out, user)
}
