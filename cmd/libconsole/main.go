// Command libconsole is the terminal front end of the library admin server.
//
//	libconsole [-server URL] <command> [args]
//
// The console remembers its current screen address between runs, the way a
// browser keeps its location: list commands rewrite that address and read
// their filters back from it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/shopspring/decimal"

	"libadmin/internal/console/session"
)

const usage = `usage: libconsole [-server URL] <command> [args]

commands:
  login [-u user] [-p password]     log in and return to the previous screen
  logout                            forget the stored token
  whoami                            show the current account
  books   [-filter k=v]... [-page N] [-size N] [-clear]
  readers [-filter k=v]... [-page N] [-size N] [-clear]
  records [-filter k=v]... [-page N] [-size N] [-clear]
                                    ranges: -filter return_date=2024-01-01..2024-01-31
  book   show|add|edit|delist [isbn] [k=v]...
  reader show|add|edit|delete [id_card] [k=v]...
  record show <uuid>
  borrow [-reader kw] [-book kw] [-due YYYY-MM-DD | -days N]
  return <uuid>
  pay <uuid> <amount>
`

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	statePath, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, os.Args[1:], env{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		statePath: statePath,
		server:    os.Getenv(session.EnvServer),
		now:       time.Now,
	})
	if err != nil {
		if msg := reportable(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}
