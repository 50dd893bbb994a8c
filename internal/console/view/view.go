// Package view renders console screens as plain text tables.
package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"libadmin/internal/borrowing"
	"libadmin/internal/console/api"
)

const dateLayout = "2006-01-02"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func opt(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func optDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func Gender(g int) string {
	if g == 1 {
		return "female"
	}
	return "male"
}

// Badge は状態の表示
func Badge(s borrowing.Status) string {
	switch s {
	case borrowing.StatusReturned:
		return "[returned]"
	case borrowing.StatusDelayed:
		return "[DELAYED]"
	default:
		return "[borrowing]"
	}
}

// Actions は支払い・返却ボタンの可否。状態表示とは独立
func Actions(r api.Record) string {
	var acts []string
	if borrowing.CanPay(r.Amount, r.Paid) {
		acts = append(acts, "pay")
	}
	if borrowing.CanReturn(r.Amount, r.Paid, r.Returned) {
		acts = append(acts, "return")
	}
	if len(acts) == 0 {
		return "-"
	}
	return strings.Join(acts, ",")
}

func Footer(w io.Writer, page, size int, total int64) {
	pages := int64(1)
	if size > 0 && total > 0 {
		pages = (total + int64(size) - 1) / int64(size)
	}
	fmt.Fprintf(w, "page %d/%d  size %d  total %d\n", page, pages, size, total)
}

func Books(w io.Writer, p *api.Page[api.Book], page, size int) error {
	tw := table(w)
	fmt.Fprintln(tw, "ISBN\tNAME\tAUTHOR\tPUBLISHER\tPUBLISHED\tSTOCK")
	for _, b := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", b.ISBN, b.Name, b.Author, b.Publisher, optDate(b.PublishDate), b.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	Footer(w, page, size, p.Total)
	return nil
}

func Readers(w io.Writer, p *api.Page[api.Reader], page, size int) error {
	tw := table(w)
	fmt.Fprintln(tw, "ID CARD\tNAME\tGENDER\tPHONE\tADDRESS")
	for _, r := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.IDCard, r.Name, Gender(r.Gender), phone(r.Phone), opt(r.Address))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	Footer(w, page, size, p.Total)
	return nil
}

func phone(p *int64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatInt(*p, 10)
}

// 状態は now に対して毎回計算する
func Records(w io.Writer, p *api.Page[api.Record], page, size int, now time.Time) error {
	tw := table(w)
	fmt.Fprintln(tw, "UUID\tREADER\tBOOK\tDUE\tSTATUS\tFEE\tPAID\tACTIONS")
	for _, r := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.UUID,
			r.Reader.Name,
			r.Book.Name,
			r.ReturnDate.Local().Format(dateLayout),
			Badge(borrowing.Derive(r.ReturnDate, r.Returned, now)),
			r.Amount.StringFixed(2),
			r.Paid.StringFixed(2),
			Actions(r),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	Footer(w, page, size, p.Total)
	return nil
}

func Book(w io.Writer, b *api.Book) error {
	tw := table(w)
	fmt.Fprintf(tw, "ISBN\t%s\n", b.ISBN)
	fmt.Fprintf(tw, "Name\t%s\n", b.Name)
	fmt.Fprintf(tw, "Author\t%s\n", b.Author)
	fmt.Fprintf(tw, "Publisher\t%s\n", b.Publisher)
	fmt.Fprintf(tw, "Published\t%s\n", optDate(b.PublishDate))
	fmt.Fprintf(tw, "Stock\t%d\n", b.Count)
	fmt.Fprintf(tw, "Cover\t%s\n", opt(b.Cover))
	return tw.Flush()
}

func Reader(w io.Writer, r *api.Reader) error {
	tw := table(w)
	fmt.Fprintf(tw, "ID card\t%s\n", r.IDCard)
	fmt.Fprintf(tw, "Name\t%s\n", r.Name)
	fmt.Fprintf(tw, "Gender\t%s\n", Gender(r.Gender))
	fmt.Fprintf(tw, "Phone\t%s\n", phone(r.Phone))
	fmt.Fprintf(tw, "Address\t%s\n", opt(r.Address))
	return tw.Flush()
}

func Record(w io.Writer, r *api.Record, now time.Time) error {
	tw := table(w)
	fmt.Fprintf(tw, "UUID\t%s\n", r.UUID)
	fmt.Fprintf(tw, "Status\t%s\n", Badge(borrowing.Derive(r.ReturnDate, r.Returned, now)))
	fmt.Fprintf(tw, "Reader\t%s (%s)\n", r.Reader.Name, r.Reader.IDCard)
	fmt.Fprintf(tw, "Book\t%s (%s)\n", r.Book.Name, r.Book.ISBN)
	fmt.Fprintf(tw, "Borrowed\t%s\n", r.CreatedAt.Local().Format(dateLayout))
	fmt.Fprintf(tw, "Due\t%s\n", r.ReturnDate.Local().Format(dateLayout))
	fmt.Fprintf(tw, "Returned\t%s\n", optDate(r.ReturnedAt))
	fmt.Fprintf(tw, "Late fee\t%s\n", r.Amount.StringFixed(2))
	fmt.Fprintf(tw, "Paid\t%s\n", r.Paid.StringFixed(2))
	fmt.Fprintf(tw, "Outstanding\t%s\n", borrowing.Outstanding(r.Amount, r.Paid).StringFixed(2))
	fmt.Fprintf(tw, "Actions\t%s\n", Actions(*r))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Punishments) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = table(w)
	fmt.Fprintln(tw, "PAYMENT\tAMOUNT\tPAID AT")
	for _, p := range r.Punishments {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.UUID, p.Amount.StringFixed(2), p.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
