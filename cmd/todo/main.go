// Command todo is the command-line client of the todo record service.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mahenzon/todo-app/internal/actions"
	"github.com/mahenzon/todo-app/internal/app"
	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/notify"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const defaultAddr = "localhost:8443"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(&cli{dial: app.Dial}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags and the connection factory of every command.
type cli struct {
	addr      string
	caCert    string
	insecure  bool
	plaintext bool
	verbose   bool
	timeout   time.Duration
	linkBase  string

	clipboard actions.Clipboard // nil uses the system clipboard
	dial      func(addr string, d client.DialOptions, o app.Options) (*app.App, error)
}

func newRootCmd(c *cli) *cobra.Command {
	addr := os.Getenv("TODO_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	root := &cobra.Command{
		Use:   "todo",
		Short: "Multi-user todo lists with live updates",
		Long: `todo manages your todo lists on a todo record service.

Examples:
  todo register me@example.com -p secret-pass
  todo list-create Groceries
  todo add <list-id> Milk
  todo watch <list-id>`,
		Version:      fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.addr, "addr", addr, "server address host:port (env TODO_ADDR)")
	pf.StringVar(&c.caCert, "cacert", "", "CA cert (PEM)")
	pf.BoolVar(&c.insecure, "insecure", false, "skip cert verify (dev)")
	pf.BoolVar(&c.plaintext, "plaintext", false, "connect without TLS")
	pf.BoolVar(&c.verbose, "verbose", false, "debug logging")
	pf.DurationVar(&c.timeout, "timeout", 30*time.Second, "per-command deadline")
	pf.StringVar(&c.linkBase, "link-base", os.Getenv("TODO_LINK_BASE"),
		"base URL of public list links (env TODO_LINK_BASE); defaults to the server address")

	root.AddCommand(authCommands(c)...)
	root.AddCommand(listCommands(c)...)
	root.AddCommand(todoCommands(c)...)
	return root
}

func (c *cli) logger(w io.Writer) *zap.Logger {
	lvl := zapcore.WarnLevel
	if c.verbose {
		lvl = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

// baseURL is the address public links point at.
func (c *cli) baseURL() string {
	if c.linkBase != "" {
		return c.linkBase
	}
	if c.plaintext {
		return "http://" + c.addr
	}
	return "https://" + c.addr
}

type conn struct {
	*app.App
	out io.Writer
}

// connect wires the client side with the saved session and keeps the session file in step
// with logins and logouts.
func (c *cli) connect(cmd *cobra.Command, confirm actions.Confirmer) (*conn, error) {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := c.logger(errOut)

	auth := client.NewAuthStore()
	if tok, rec, err := loadToken(); err == nil {
		auth.Save(tok, rec)
	} else {
		log.Debug("no saved session", zap.Error(err))
	}
	auth.OnChange(func(tok string, rec model.Record) {
		var err error
		if tok == "" {
			err = removeToken()
		} else {
			err = saveToken(tok, rec)
		}
		if err != nil {
			log.Warn("persist session", zap.Error(err))
		}
	})

	a, err := c.dial(c.addr, client.DialOptions{
		CACert:    c.caCert,
		Insecure:  c.insecure,
		Plaintext: c.plaintext,
		Auth:      auth,
		Logger:    log,
	}, app.Options{
		BaseURL:   c.baseURL(),
		Notifier:  notify.NewConsole(out, errOut),
		Confirmer: confirm,
		Clipboard: c.clipboard,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	return &conn{App: a, out: out}, nil
}

// deadline bounds a command by --timeout.
func (c *cli) deadline(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

// promptConfirmer asks on the command's streams.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(_ context.Context, title, message string) bool {
	fmt.Fprintf(p.out, "%s %s [y/N]: ", title, message)
	line, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
