// Command adminctl is the terminal admin panel for the booking server.
//
//	adminctl login -email owner@barbershop.local
//	adminctl list -status booked
//	adminctl complete <id>
//	adminctl delete <id>
//	adminctl watch
//	adminctl logout
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"barbershop-booking/internal/admin"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/rpc"
)

const usage = `usage: adminctl [-addr host:port] [-session file] <command> [args]

commands:
  login -email E [-password P]   sign in and save the session
  session                        show who is signed in
  list [-status all|booked|completed]
  complete <id>                  mark a booked appointment completed
  delete [-yes] <id>             delete an appointment after confirmation
  watch                          print the list again on every change
  logout                         revoke the session and forget it
`

func main() {
	_ = godotenv.Load()
	addr := flag.String("addr", envOr("BARBERSHOP_ADDR", "localhost:50051"), "gRPC server address")
	sessionFile := flag.String("session", defaultSessionPath(), "where the session tokens are kept")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := rpc.Dial(*addr)
	if err != nil {
		fatal(err)
	}
	defer c.Close()

	a := &app{c: c, store: sessionStore{path: *sessionFile}, in: bufio.NewReader(os.Stdin), out: os.Stdout}
	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fatal(err)
	}
}

type app struct {
	c     *rpc.Client
	store sessionStore
	in    *bufio.Reader
	out   io.Writer
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	if cmd != "login" {
		if err := a.store.load(a.c); err != nil {
			return err
		}
	}
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "session":
		return a.withRefresh(ctx, a.session)
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		status := fs.String("status", "all", "all, booked or completed")
		fs.Parse(args)
		f, err := admin.ParseFilter(*status)
		if err != nil {
			return err
		}
		return a.withRefresh(ctx, func(ctx context.Context) error {
			p, err := a.open(ctx)
			if err != nil {
				return err
			}
			a.print(p.View(), f)
			return nil
		})
	case "complete":
		if len(args) != 1 {
			return errors.New("complete needs an appointment id")
		}
		return a.withRefresh(ctx, func(ctx context.Context) error {
			p, err := a.open(ctx)
			if err != nil {
				return err
			}
			if err := p.Complete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "marked completed")
			return nil
		})
	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		fs.Parse(args)
		if fs.NArg() != 1 {
			return errors.New("delete needs an appointment id")
		}
		return a.withRefresh(ctx, func(ctx context.Context) error {
			p, err := a.open(ctx)
			if err != nil {
				return err
			}
			if *yes {
				p.Confirm = func(model.Appointment) bool { return true }
			}
			ok, err := p.Delete(ctx, fs.Arg(0))
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(a.out, "deleted")
			} else {
				fmt.Fprintln(a.out, "kept")
			}
			return nil
		})
	case "watch":
		return a.withRefresh(ctx, a.watch)
	case "logout":
		err := a.c.SignOut(ctx)
		if rmErr := a.store.clear(); rmErr != nil {
			return rmErr
		}
		if err != nil && !errors.Is(err, admin.ErrUnauthenticated) {
			return err
		}
		fmt.Fprintln(a.out, "signed out")
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", os.Getenv("ADMIN_EMAIL"), "account email")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "account password")
	fs.Parse(args)
	if *email == "" {
		return errors.New("login needs -email")
	}
	if *password == "" {
		fmt.Fprint(a.out, "password: ")
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*password = strings.TrimSpace(line)
	}

	resp, err := a.c.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.store.save(a.c); err != nil {
		return err
	}
	s, err := a.c.Session(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s\n", resp.Email)
	if !s.Allowed {
		fmt.Fprintln(a.out, admin.ErrAccessDenied.Error())
	}
	return nil
}

func (a *app) session(ctx context.Context) error {
	s, err := a.c.Session(ctx)
	if err != nil {
		return err
	}
	state := admin.StateReady
	if !s.Allowed {
		state = admin.StateDenied
	}
	fmt.Fprintf(a.out, "%s (%s)\n", s.Email, state)
	return nil
}

// open builds a panel whose delete confirmation prompts on the terminal.
func (a *app) open(ctx context.Context) (*admin.Panel, error) {
	p := admin.NewPanel(a.c, a.confirm)
	if err := p.Open(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *app) confirm(ap model.Appointment) bool {
	label := ap.ID
	if ap.FirstName != "" {
		label = fmt.Sprintf("%s %s on %s at %s", ap.FirstName, ap.LastName, ap.Date, ap.Time)
	}
	fmt.Fprintf(a.out, "Delete appointment for %s? [y/N] ", label)
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) watch(ctx context.Context) error {
	p, err := a.open(ctx)
	if err != nil {
		return err
	}
	a.print(p.View(), admin.FilterAll)
	fmt.Fprintln(a.out, "watching for changes, ctrl-c to stop")
	return p.Follow(ctx, func(c model.Change) {
		fmt.Fprintf(a.out, "\n%s %s %s\n", time.Now().Format(time.TimeOnly), c.Op, c.ID)
		a.print(p.View(), admin.FilterAll)
	})
}

func (a *app) print(v *admin.View, f admin.Filter) {
	n := v.Counts()
	fmt.Fprintf(a.out, "all %d | booked %d | completed %d\n", n.All, n.Booked, n.Completed)
	items := v.Filtered(f)
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no appointments")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tNAME\tPHONE\tEXTRAS\tSTATUS")
	for _, ap := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
			ap.ID, ap.Date, ap.Time, ap.FirstName, ap.LastName, ap.PhoneNumber, extras(ap), ap.Status)
	}
	tw.Flush()
}

func extras(ap model.Appointment) string {
	var out []string
	if ap.BeardTrim {
		out = append(out, "beard")
	}
	if ap.HairWash {
		out = append(out, "wash")
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

// withRefresh runs fn and, if the access token has expired, rotates the
// session once and retries.
func (a *app) withRefresh(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, admin.ErrUnauthenticated) {
		return err
	}
	if _, rt := a.c.Tokens(); rt == "" {
		return errors.New("not signed in, run adminctl login")
	}
	if _, rerr := a.c.Refresh(ctx); rerr != nil {
		_ = a.store.clear()
		return fmt.Errorf("session expired, run adminctl login: %w", rerr)
	}
	if err := a.store.save(a.c); err != nil {
		return err
	}
	return fn(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "adminctl:", err)
	os.Exit(1)
}
