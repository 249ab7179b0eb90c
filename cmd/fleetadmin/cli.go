package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/aussiebroadwan/fleetadmin/internal/app"
	"github.com/aussiebroadwan/fleetadmin/pkg/adminsdk"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitExpired = 3
)

// resources the list command accepts.
var resources = []string{
	"orders",
	"merchants",
	"delivery-agents",
	"customers",
	"promotions",
	"subscriptions",
}

var errUsage = errors.New("usage error")

// CLI is the fleetadmin command line. Streams are fields so tests can drive it.
type CLI struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes one command and returns the process exit code.
func (c *CLI) Run(ctx context.Context, cfg app.Config, args []string) int {
	flagSet := pflag.NewFlagSet("fleetadmin", pflag.ContinueOnError)
	flagSet.SetOutput(c.Stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "marketplace API base URL")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flagSet.StringVar(&cfg.Store, "store", cfg.Store, "credential store (sqlite, memory)")
	help := flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() { c.printHelp(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *help || flagSet.NArg() == 0 {
		c.printHelp(flagSet)
		return exitOK
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(c.Stderr, "error: %v\n", err)
		return exitError
	}
	defer func() {
		if err := application.Close(); err != nil {
			application.Logger().Error("shutdown failed", "error", err)
		}
	}()

	command, rest := flagSet.Arg(0), flagSet.Args()[1:]
	switch command {
	case "login":
		err = c.login(ctx, application.Client(), rest)
	case "logout":
		err = c.logout(ctx, application.Client())
	case "status":
		err = c.status(ctx, application.Client())
	case "get":
		err = c.get(ctx, application.Client(), rest)
	case "list":
		err = c.list(ctx, application.Client(), rest)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	return c.exitCode(err)
}

// exitCode reports err to the operator. An expired session is where the
// operator gets sent back to sign-in.
func (c *CLI) exitCode(err error) int {
	var expired *adminsdk.SessionExpiredError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &expired):
		fmt.Fprintln(c.Stderr, adminsdk.SessionExpiredMessage)
		fmt.Fprintln(c.Stderr, "Run `fleetadmin login` to sign in again.")
		return exitExpired
	case errors.Is(err, errUsage):
		fmt.Fprintf(c.Stderr, "error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(c.Stderr, "error: %v\n", err)
		return exitError
	}
}

func (c *CLI) login(ctx context.Context, client *adminsdk.Client, args []string) error {
	flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
	flagSet.SetOutput(c.Stderr)
	username := flagSet.StringP("username", "u", "", "operator username")
	passwordFile := flagSet.String("password-file", "", "read the password from this file (- or empty prompts)")
	fcmToken := flagSet.String("fcm-token", "", "push notification token to register")
	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *username == "" {
		return fmt.Errorf("%w: --username is required", errUsage)
	}

	password, err := c.readPassword(*passwordFile)
	if err != nil {
		return err
	}

	session, err := client.SignIn(ctx, adminsdk.SignInRequest{
		Username: *username,
		Password: password,
		FCMToken: *fcmToken,
	})
	if err != nil {
		if adminsdk.IsStatus(err, http.StatusUnauthorized) {
			return errors.New("invalid username or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(c.Stdout, "Logged in as %s (%s)\n", session.Username, session.Role)
	return nil
}

// readPassword reads from passwordFile, or prompts on the terminal with echo
// off. Piped stdin is read as a single line.
func (c *CLI) readPassword(passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	if f, ok := c.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(c.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *CLI) logout(ctx context.Context, client *adminsdk.Client) error {
	if err := client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.Stdout, "Logged out.")
	return nil
}

func (c *CLI) status(ctx context.Context, client *adminsdk.Client) error {
	info, err := client.CurrentSession(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout, "User:     %s (%s)\n", info.Username, info.UserID)
	fmt.Fprintf(c.Stdout, "Role:     %s\n", info.Role)
	if !info.AccessExpiresAt.IsZero() {
		suffix := ""
		if info.AccessExpired {
			suffix = " (expired, refreshes on next call)"
		}
		fmt.Fprintf(c.Stdout, "Expires:  %s%s\n", info.AccessExpiresAt.Local().Format("2006-01-02 15:04:05"), suffix)
	}
	fmt.Fprintf(c.Stdout, "Refresh:  %t\n", info.HasRefreshToken)
	return nil
}

func (c *CLI) get(ctx context.Context, client *adminsdk.Client, args []string) error {
	if len(args) != 1 || !strings.HasPrefix(args[0], "/") {
		return fmt.Errorf("%w: get takes one absolute API path, e.g. /admin/orders/ID", errUsage)
	}

	resp, err := client.Do(ctx, adminsdk.Request{Method: http.MethodGet, Path: args[0]})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: %s: %s", args[0], resp.Status, strings.TrimSpace(string(body)))
	}
	return c.printJSON(body)
}

func (c *CLI) list(ctx context.Context, client *adminsdk.Client, args []string) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flagSet.SetOutput(c.Stderr)
	var opts adminsdk.ListOptions
	flagSet.IntVar(&opts.Page, "page", 0, "page number")
	flagSet.IntVar(&opts.Limit, "limit", 0, "page size")
	flagSet.StringVar(&opts.Search, "search", "", "free-text filter")
	flagSet.StringVar(&opts.Status, "status", "", "status filter")
	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if flagSet.NArg() != 1 || !slices.Contains(resources, flagSet.Arg(0)) {
		return fmt.Errorf("%w: list takes one of %s", errUsage, strings.Join(resources, ", "))
	}

	resource := adminsdk.NewResource[json.RawMessage](client, "/admin/"+flagSet.Arg(0))
	page, err := resource.List(ctx, opts)
	if err != nil {
		return err
	}

	out, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.printJSON(out)
}

func (c *CLI) printJSON(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, err = c.Stdout.Write(raw)
		return err
	}
	enc := json.NewEncoder(c.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *CLI) printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(c.Stderr, `fleetadmin talks to the marketplace admin API with a stored operator session.

Usage:
  fleetadmin [flags] <command> [args]

Commands:
  login -u USER [--password-file FILE] [--fcm-token TOKEN]
  logout
  status
  get /admin/<resource>/<id>
  list [--page N] [--limit N] [--search TEXT] [--status S] <resource>

Resources: %s

Flags:
%s`, strings.Join(resources, ", "), flagSet.FlagUsages())
}
