package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"libadmin/internal/console/api"
	"libadmin/internal/console/gateway"
	"libadmin/internal/console/guard"
	"libadmin/internal/console/session"
)

const defaultServer = "http://localhost:8080"

type env struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	statePath string
	server    string
	now       func() time.Time
	// テスト用
	doer gateway.Doer
}

type app struct {
	env
	in     *bufio.Reader
	state  *session.File
	client *api.Client
	guard  *guard.Guard
}

// errShown は通知済みのエラー（main で二重に表示しない）
var errShown = errors.New("shown")

// addressBar はコンソールの「アドレスバー」。state.yaml に残る
type addressBar struct {
	state *session.File
	out   io.Writer
}

func (b *addressBar) Location() string {
	if a := b.state.Address(); a != "" {
		return a
	}
	return "/"
}

func (b *addressBar) Push(address string) {
	if err := b.state.SetAddress(address); err != nil {
		log.Printf("[WARN] save address: %v", err)
	}
	if strings.HasPrefix(address, gateway.LoginPath) {
		fmt.Fprintln(b.out, "session expired or missing: run `libconsole login`")
	}
}

type printer struct{ w io.Writer }

func (p printer) Info(msg string)  { fmt.Fprintln(p.w, "info:", msg) }
func (p printer) Error(msg string) { fmt.Fprintln(p.w, "error:", msg) }

func run(ctx context.Context, args []string, e env) error {
	log.SetOutput(e.stderr)

	global := flag.NewFlagSet("libconsole", flag.ContinueOnError)
	global.SetOutput(e.stderr)
	global.Usage = func() { fmt.Fprint(e.stderr, usage) }
	server := global.String("server", "", "backend base URL")
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errShown
	}

	state, err := session.OpenFile(e.statePath)
	if err != nil {
		return err
	}
	base := firstNonEmpty(*server, e.server, state.Server(), defaultServer)
	if *server != "" && *server != state.Server() {
		if err := state.SetServer(*server); err != nil {
			return err
		}
	}

	a := &app{env: e, in: bufio.NewReader(e.stdin), state: state}
	nav := &addressBar{state: state, out: e.stderr}
	store := session.NewScoped(state, &session.Memory{})
	var opts []gateway.Option
	if e.doer != nil {
		opts = append(opts, gateway.WithDoer(e.doer))
	}
	a.client = api.New(gateway.New(base, store, nav, printer{e.stderr}, opts...))
	a.guard = guard.New(ctx, a.client)
	defer a.guard.Wait()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "login":
		return a.login(ctx, cmdArgs)
	case "logout":
		return a.logout()
	case "help":
		global.Usage()
		return nil
	}

	// 起動時のセッション確認
	if err := a.guard.Bootstrap(ctx, nav.Location()); err != nil {
		return err
	}

	switch cmd {
	case "whoami":
		return a.whoami(ctx)
	case "books", "readers", "records":
		return a.list(ctx, cmd, cmdArgs)
	case "book":
		return a.book(ctx, cmdArgs)
	case "reader":
		return a.reader(ctx, cmdArgs)
	case "record":
		return a.record(ctx, cmdArgs)
	case "borrow":
		return a.borrow(ctx, cmdArgs)
	case "return":
		return a.returnBook(ctx, cmdArgs)
	case "pay":
		return a.pay(ctx, cmdArgs)
	}
	return errors.Errorf("unknown command %q", cmd)
}

// navigate はアドレスを書き換えてルートガードを発火させる
func (a *app) navigate(path string, q url.Values) {
	addr := path
	if len(q) > 0 {
		addr += "?" + q.Encode()
	}
	if err := a.state.SetAddress(addr); err != nil {
		log.Printf("[WARN] save address: %v", err)
	}
	a.guard.RouteChanged(addr)
}

// current は path の画面にいるときだけそのクエリを返す
func (a *app) current(path string) url.Values {
	u, err := url.Parse(a.state.Address())
	if err != nil || u.Path != path {
		return url.Values{}
	}
	return u.Query()
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.stdout, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSpace(line), nil
}

// reportable は main が表示すべき文言。gateway が通知済みなら ""
func reportable(err error) string {
	if errors.Is(err, errShown) || errors.Is(err, flag.ErrHelp) {
		return ""
	}
	var ge *gateway.Error
	if errors.As(err, &ge) {
		if ge.Message != "" || ge.Status == 401 {
			return ""
		}
	}
	return "error: " + err.Error()
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
