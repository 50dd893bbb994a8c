package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"libadmin/internal/borrowing"
	"libadmin/internal/console/api"
	"libadmin/internal/console/gateway"
	"libadmin/internal/console/listquery"
	"libadmin/internal/console/typeahead"
	"libadmin/internal/console/view"
)

const dateLayout = "2006-01-02"

// repeatable -filter k=v
type kvFlag map[string]string

func (f kvFlag) String() string { return fmt.Sprint(map[string]string(f)) }

func (f kvFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return errors.Errorf("want key=value, got %q", s)
	}
	f[strings.TrimSpace(k)] = strings.TrimSpace(v)
	return nil
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// ===== auth =====

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// ログイン画面へ。戻り先はすでに redirect に載っていればそれを使う
	here := (&addressBar{state: a.state}).Location()
	if !strings.HasPrefix(here, gateway.LoginPath) {
		here = gateway.LoginRedirect(here)
		if err := a.state.SetAddress(here); err != nil {
			return err
		}
	}

	var err error
	if *user == "" {
		if *user, err = a.prompt("username: "); err != nil {
			return err
		}
	}
	if *pass == "" {
		if *pass, err = a.prompt("password: "); err != nil {
			return err
		}
	}
	if _, err := a.client.Login(ctx, *user, *pass); err != nil {
		return err
	}

	back, err := gateway.DecodeRedirect(here)
	if err != nil || back == "" || strings.HasPrefix(back, gateway.LoginPath) {
		back = "/"
	}
	if err := a.state.SetAddress(back); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "logged in as %s, back to %s\n", *user, back)
	return nil
}

func (a *app) logout() error {
	if err := a.state.Clear(); err != nil {
		return err
	}
	if err := a.state.SetAddress(gateway.LoginPath); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	acc, err := a.client.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s (%s)\n", acc.Username, acc.Role)
	return nil
}

// ===== list screens =====

func screenFor(cmd string) listquery.Screen {
	switch cmd {
	case "readers":
		return listquery.Readers
	case "records":
		return listquery.Records
	}
	return listquery.Books
}

func (a *app) list(ctx context.Context, cmd string, args []string) error {
	screen := screenFor(cmd)
	fs := a.flags(cmd)
	filters := kvFlag{}
	fs.Var(filters, "filter", "filter key=value (repeatable)")
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 0, "page size")
	clearAll := fs.Bool("clear", false, "drop all filters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := a.current(screen.Path)
	switch {
	case *clearAll:
		q = listquery.Clear(q)
	case len(filters) > 0:
		values, err := formValues(screen, filters)
		if err != nil {
			return err
		}
		q = listquery.Submit(q, values)
	}
	if *page > 0 || *size > 0 {
		st := screen.Load(q)
		p, s := st.Page, st.Size
		if *page > 0 {
			p = *page
		}
		if *size > 0 {
			s = *size
		}
		q = listquery.Paginate(q, p, s)
	}
	a.navigate(screen.Path, q)

	st := screen.Load(q)
	switch cmd {
	case "readers":
		res, err := a.client.ListReaders(ctx, st.Filters, st.Page, st.Size)
		if err != nil {
			return err
		}
		return view.Readers(a.stdout, res, st.Page, st.Size)
	case "records":
		res, err := a.client.ListRecords(ctx, st.Filters, st.Page, st.Size)
		if err != nil {
			return err
		}
		return view.Records(a.stdout, res, st.Page, st.Size, a.now())
	}
	res, err := a.client.ListBooks(ctx, st.Filters, st.Page, st.Size)
	if err != nil {
		return err
	}
	return view.Books(a.stdout, res, st.Page, st.Size)
}

// formValues はフォーム入力を住所の値に変換する（範囲は start..end）
func formValues(screen listquery.Screen, in map[string]string) (map[string]string, error) {
	known := map[string]bool{}
	for _, k := range screen.Keys {
		known[k] = true
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if !known[k] {
			return nil, errors.Errorf("unknown filter %q for %s (known: %s)", k, screen.Path, strings.Join(screen.Keys, ", "))
		}
		if v != "" && isRangeKey(screen, k) {
			from, to, ok := strings.Cut(v, "..")
			if !ok {
				return nil, errors.Errorf("%s wants start..end", k)
			}
			start, err := parseDay(from, false)
			if err != nil {
				return nil, err
			}
			end, err := parseDay(to, true)
			if err != nil {
				return nil, err
			}
			v = listquery.EncodeRange(start, end)
		}
		out[k] = v
	}
	return out, nil
}

func isRangeKey(screen listquery.Screen, k string) bool {
	for _, r := range screen.RangeKeys {
		if r == k {
			return true
		}
	}
	return false
}

// 日付だけなら終端はその日の終わり
func parseDay(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errors.Errorf("bad date %q (want YYYY-MM-DD)", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// ===== books / readers =====

func (a *app) book(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("book show|add|edit|delist")
	}
	switch args[0] {
	case "show":
		isbn, err := arg(args, 1, "isbn")
		if err != nil {
			return err
		}
		a.navigate("/books/settlein", url.Values{"isbn": {isbn}})
		b, err := a.client.GetBook(ctx, isbn)
		if err != nil {
			return err
		}
		return view.Book(a.stdout, b)
	case "add":
		a.navigate("/books/settlein", nil)
		f, err := fields(args[1:], bookTypes)
		if err != nil {
			return err
		}
		b, err := a.client.CreateBook(ctx, f)
		if err != nil {
			return err
		}
		return view.Book(a.stdout, b)
	case "edit":
		isbn, err := arg(args, 1, "isbn")
		if err != nil {
			return err
		}
		a.navigate("/books/settlein", url.Values{"isbn": {isbn}})
		f, err := fields(args[2:], bookTypes)
		if err != nil {
			return err
		}
		b, err := a.client.UpdateBook(ctx, isbn, f)
		if err != nil {
			return err
		}
		return view.Book(a.stdout, b)
	case "delist":
		isbn, err := arg(args, 1, "isbn")
		if err != nil {
			return err
		}
		return a.client.DelistBook(ctx, isbn)
	}
	return errors.Errorf("unknown book action %q", args[0])
}

func (a *app) reader(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("reader show|add|edit|delete")
	}
	switch args[0] {
	case "show":
		id, err := arg(args, 1, "id_card")
		if err != nil {
			return err
		}
		a.navigate("/readers/info", url.Values{"id_card": {id}})
		r, err := a.client.GetReader(ctx, id)
		if err != nil {
			return err
		}
		return view.Reader(a.stdout, r)
	case "add":
		a.navigate("/readers/info", nil)
		f, err := fields(args[1:], readerTypes)
		if err != nil {
			return err
		}
		r, err := a.client.CreateReader(ctx, f)
		if err != nil {
			return err
		}
		return view.Reader(a.stdout, r)
	case "edit":
		id, err := arg(args, 1, "id_card")
		if err != nil {
			return err
		}
		a.navigate("/readers/info", url.Values{"id_card": {id}})
		f, err := fields(args[2:], readerTypes)
		if err != nil {
			return err
		}
		r, err := a.client.UpdateReader(ctx, id, f)
		if err != nil {
			return err
		}
		return view.Reader(a.stdout, r)
	case "delete", "delist":
		id, err := arg(args, 1, "id_card")
		if err != nil {
			return err
		}
		return a.client.DeleteReader(ctx, id)
	}
	return errors.Errorf("unknown reader action %q", args[0])
}

func arg(args []string, i int, name string) (string, error) {
	if len(args) <= i || strings.TrimSpace(args[i]) == "" {
		return "", errors.Errorf("%s is required", name)
	}
	return strings.TrimSpace(args[i]), nil
}

type fieldType int

const (
	textField fieldType = iota
	intField
	dateField
	genderField
)

var (
	bookTypes = map[string]fieldType{
		"isbn": textField, "name": textField, "author": textField, "publisher": textField,
		"publish_date": dateField, "count": intField, "cover": textField,
	}
	readerTypes = map[string]fieldType{
		"id_card": textField, "name": textField, "phone": intField, "address": textField, "gender": genderField,
	}
)

// fields は k=v 引数を送信用の値にする
func fields(args []string, types map[string]fieldType) (api.Fields, error) {
	out := api.Fields{}
	for _, kv := range args {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.Errorf("want key=value, got %q", kv)
		}
		typ, known := types[k]
		if !known {
			return nil, errors.Errorf("unknown field %q", k)
		}
		switch typ {
		case intField:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, errors.Errorf("%s must be a number", k)
			}
			out[k] = n
		case dateField:
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return nil, errors.Errorf("%s must be YYYY-MM-DD", k)
			}
			out[k] = t
		case genderField:
			switch strings.ToLower(v) {
			case "0", "male", "m":
				out[k] = 0
			case "1", "female", "f":
				out[k] = 1
			default:
				return nil, errors.Errorf("gender must be male or female")
			}
		default:
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no fields given")
	}
	return out, nil
}

// ===== records =====

func (a *app) record(ctx context.Context, args []string) error {
	if len(args) < 2 || args[0] != "show" {
		return errors.New("record show <uuid>")
	}
	return a.showRecord(ctx, args[1])
}

func (a *app) showRecord(ctx context.Context, uuid string) error {
	a.navigate("/borrowing_records/detail", url.Values{"uuid": {uuid}})
	r, err := a.client.GetRecord(ctx, uuid)
	if err != nil {
		return err
	}
	return view.Record(a.stdout, r, a.now())
}

// 返却は延滞金を払い終えるまで受け付けない
func (a *app) returnBook(ctx context.Context, args []string) error {
	uuid, err := arg(args, 0, "uuid")
	if err != nil {
		return err
	}
	a.navigate("/borrowing_records/detail", url.Values{"uuid": {uuid}})
	r, err := a.client.GetRecord(ctx, uuid)
	if err != nil {
		return err
	}
	if !borrowing.CanReturn(r.Amount, r.Paid, r.Returned) {
		if r.Returned == 1 {
			return errors.New("already returned")
		}
		return errors.Errorf("late fee outstanding: %s", borrowing.Outstanding(r.Amount, r.Paid).StringFixed(2))
	}
	if err := a.client.Return(ctx, uuid); err != nil {
		return err
	}
	return a.showRecord(ctx, uuid)
}

func (a *app) pay(ctx context.Context, args []string) error {
	uuid, err := arg(args, 0, "uuid")
	if err != nil {
		return err
	}
	raw, err := arg(args, 1, "amount")
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return errors.Errorf("amount must be a positive number, got %q", raw)
	}
	a.navigate("/borrowing_records/detail", url.Values{"uuid": {uuid}})
	r, err := a.client.GetRecord(ctx, uuid)
	if err != nil {
		return err
	}
	if !borrowing.CanPay(r.Amount, r.Paid) {
		return errors.New("nothing to pay")
	}
	r, err = a.client.Pay(ctx, uuid, amount)
	if err != nil {
		return err
	}
	return view.Record(a.stdout, r, a.now())
}

// ===== borrow =====

func (a *app) borrow(ctx context.Context, args []string) error {
	fs := a.flags("borrow")
	readerKw := fs.String("reader", "", "initial reader keyword")
	bookKw := fs.String("book", "", "initial book keyword")
	due := fs.String("due", "", "return date YYYY-MM-DD")
	days := fs.Int("days", 30, "loan length when -due is not given")
	delay := fs.Duration("delay", typeahead.DefaultDelay, "typeahead delay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a.navigate("/borrowing_records/borrow", nil)

	returnDate := a.now().AddDate(0, 0, *days)
	if *due != "" {
		t, err := parseDay(*due, true)
		if err != nil {
			return err
		}
		returnDate = t
	}

	fmt.Fprintln(a.stdout, "type to search, #N to pick a candidate")
	reader, err := pick[api.Reader](ctx, a, "reader> ", *readerKw, *delay, a.client.SearchReaders,
		func(r api.Reader) string { return r.IDCard + "  " + r.Name })
	if err != nil {
		return err
	}
	book, err := pick[api.Book](ctx, a, "book> ", *bookKw, *delay, a.client.SearchBooks,
		func(b api.Book) string { return fmt.Sprintf("%s  %s  (stock %d)", b.ISBN, b.Name, b.Count) })
	if err != nil {
		return err
	}

	rec, err := a.client.Borrow(ctx, reader.IDCard, book.ISBN, returnDate)
	if err != nil {
		return err
	}
	a.navigate("/borrowing_records/detail", url.Values{"uuid": {rec.UUID}})
	return view.Record(a.stdout, rec, a.now())
}

// pick は入力ごとに typeahead へ流し、#N で候補を確定する
func pick[T any](ctx context.Context, a *app, label, initial string, delay time.Duration,
	search typeahead.SearchFunc[T], describe func(T) string) (T, error) {
	var zero T
	results := make(chan typeahead.Result[T], 1)
	s := typeahead.New(ctx, delay, search, func(r typeahead.Result[T]) {
		// 古い結果は捨てて最新だけ残す
		select {
		case <-results:
		default:
		}
		results <- r
	})
	defer s.Close()

	var candidates []T
	show := func(kw string) error {
		s.Type(kw)
		select {
		case r := <-results:
			if r.Err != nil {
				return r.Err
			}
			candidates = r.Items
		case <-time.After(delay + 30*time.Second):
			return errors.New("search timed out")
		case <-ctx.Done():
			return ctx.Err()
		}
		if len(candidates) == 0 {
			fmt.Fprintln(a.stdout, "  (no match)")
		}
		for i, c := range candidates {
			fmt.Fprintf(a.stdout, "  #%d  %s\n", i+1, describe(c))
		}
		return nil
	}

	if initial != "" {
		if err := show(initial); err != nil {
			return zero, err
		}
	}
	for {
		line, err := a.prompt(label)
		if err != nil {
			return zero, err
		}
		if strings.HasPrefix(line, "#") {
			n, err := strconv.Atoi(line[1:])
			if err != nil || n < 1 || n > len(candidates) {
				fmt.Fprintln(a.stdout, "  no such candidate")
				continue
			}
			return candidates[n-1], nil
		}
		if line == "" {
			continue
		}
		if err := show(line); err != nil {
			return zero, err
		}
	}
}
