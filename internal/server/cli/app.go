// Package cli implements the accounts command line: schema migration,
// registration and a credential check.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"
)

const (
	CmdMigrate  = "migrate"
	CmdRegister = "register"
	CmdLogin    = "login"
)

var (
	ErrUnknownCommand     = errors.New("unknown command")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService is the part of services.UserService the CLI drives.
type UserService interface {
	Register(ctx context.Context, c models.Candidate) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Migrator applies the schema migrations.
type Migrator func(ctx context.Context) error

type App struct {
	users   UserService
	migrate Migrator
	reader  *bufio.Reader
	fd      int
	out     io.Writer
}

// NewApp builds the CLI. fd is the file descriptor behind in, used to decide
// whether passwords can be read without echo.
func NewApp(users UserService, migrate Migrator, in io.Reader, fd int, out io.Writer) *App {
	return &App{users: users, migrate: migrate, reader: bufio.NewReader(in), fd: fd, out: out}
}

// Run dispatches to the subcommand named in args. Config flags may appear
// anywhere in args; each subcommand only parses its own flags.
func (a *App) Run(ctx context.Context, args []string) error {
	switch flagx.FindCommand(args, CmdMigrate, CmdRegister, CmdLogin) {
	case CmdMigrate:
		return a.Migrate(ctx)
	case CmdRegister:
		return a.Register(ctx, args)
	case CmdLogin:
		return a.Login(ctx, args)
	default:
		a.usage()
		return ErrUnknownCommand
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: accounts [config flags] <command> [flags]")
	fmt.Fprintln(a.out, "commands:")
	fmt.Fprintln(a.out, "  migrate                              apply database migrations")
	fmt.Fprintln(a.out, "  register -first F -last L -email E   create an account")
	fmt.Fprintln(a.out, "  login -email E                       check credentials")
}

func (a *App) Migrate(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

// Register creates an account. Names and email come from flags or are
// prompted for; the password is always prompted for, twice.
func (a *App) Register(ctx context.Context, args []string) error {
	var c models.Candidate

	fs := flag.NewFlagSet(CmdRegister, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&c.FirstName, "first", "", "first name")
	fs.StringVar(&c.LastName, "last", "", "last name")
	fs.StringVar(&c.Email, "email", "", "email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-first", "-last", "-email"})); err != nil {
		return err
	}

	if err := a.prompt(&c.FirstName, "Enter first name"); err != nil {
		return err
	}
	if err := a.prompt(&c.LastName, "Enter last name"); err != nil {
		return err
	}
	if err := a.prompt(&c.Email, "Enter email"); err != nil {
		return err
	}

	password, err := GetPassword(a.reader, a.fd, "Enter password", a.out)
	if err != nil {
		return err
	}
	confirmation, err := GetPassword(a.reader, a.fd, "Confirm password", a.out)
	if err != nil {
		return err
	}
	c.Password = password
	c.PasswordConfirmation = &confirmation

	user, err := a.users.Register(ctx, c)
	if err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			for _, m := range errs.FullMessages() {
				fmt.Fprintln(a.out, m)
			}
		}
		return err
	}

	fmt.Fprintf(a.out, "Registered %s %s <%s> (id %s)\n", user.FirstName, user.LastName, user.Email, user.ID)
	return nil
}

// Login checks credentials and reports the matching account.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string

	fs := flag.NewFlagSet(CmdLogin, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&email, "email", "", "email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email"})); err != nil {
		return err
	}

	if err := a.prompt(&email, "Enter email"); err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.fd, "Enter password", a.out)
	if err != nil {
		return err
	}

	user, err := a.users.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(a.out, "Invalid email or password")
		return ErrInvalidCredentials
	}

	fmt.Fprintf(a.out, "Authenticated as %s %s <%s> (id %s)\n", user.FirstName, user.LastName, user.Email, user.ID)
	return nil
}

// prompt asks for *dst unless it was already given on the command line.
func (a *App) prompt(dst *string, text string) error {
	if *dst != "" {
		return nil
	}
	v, err := GetSimpleText(a.reader, text, a.out)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
