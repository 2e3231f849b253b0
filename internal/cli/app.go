package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"saldo/internal/aggregate"
	"saldo/internal/calendar"
	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/filter"
	"saldo/internal/ledger"
	"saldo/internal/stats"
	"saldo/internal/view"
)

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage")

// Remote is the data store surface the terminal client talks to.
type Remote interface {
	ledger.Remote
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]core.Category, error)
}

// App runs one terminal client command against a remote store.
type App struct {
	Remote Remote
	Out    io.Writer
	// In is read for delete confirmations.
	In  io.Reader
	Now func() time.Time

	bus    *events.Bus
	guard  view.DeleteGuard
	txs    *view.Transactions
	ledger *ledger.View
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"list":           {"list [-month YYYY-MM] [-account ID | -category NAME] [-mode daily|monthly|total]", (*App).list},
	"days":           {"days [-month YYYY-MM] [-account ID | -category NAME]", (*App).days},
	"months":         {"months [-month YYYY-MM] [-account ID | -category NAME]", (*App).months},
	"summary":        {"summary [-month YYYY-MM] [-mode daily|monthly|total] [-account ID | -category NAME]", (*App).summary},
	"stats":          {"stats [-month YYYY-MM] [-kind expense|income] [-window month|all] [-account ID | -category NAME]", (*App).stats},
	"calendar":       {"calendar [-month YYYY-MM] [-account ID | -category NAME]", (*App).calendar},
	"add":            {"add -amount N [-kind expense|income] [-category NAME] [-desc TEXT] [-account ID] [-date YYYY-MM-DD] [-transfer]", (*App).add},
	"delete":         {"delete [-yes] ID", (*App).delete},
	"categories":     {"categories", (*App).categories},
	"accounts":       {"accounts", (*App).accounts},
	"account-add":    {"account-add -name NAME -type cash|bank|card|other [-balance N] [-currency EUR] [-last4 NNNN]", (*App).accountAdd},
	"account-delete": {"account-delete [-yes] ID", (*App).accountDelete},
}

// Usage writes the command list.
func Usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: saldo <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// Run dispatches args[0] to its command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		Usage(a.Out)
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		Usage(a.Out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	a.bus = events.NewBus()
	a.txs = view.NewTransactions(a.Remote, a.bus, view.WithMonth(core.MonthOf(a.Now())), view.WithRegistry(a.registry(ctx)))
	a.ledger = ledger.New(a.Remote, a.bus)
	defer a.txs.Close()
	defer a.ledger.Close()

	return cmd.run(a, ctx, args[1:])
}

// registry merges the server's categories into the presets. A failed fetch
// falls back to the presets.
func (a *App) registry(ctx context.Context) *core.Registry {
	reg := core.NewRegistry(core.PresetCategories)
	cats, err := a.Remote.Categories(ctx)
	if err != nil {
		return reg
	}
	for _, c := range cats {
		reg.Register(c)
	}
	return reg
}

type viewFlags struct {
	month, account, category, mode string
}

func (f *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.month, "month", "", "month as YYYY-MM (default current)")
	fs.StringVar(&f.account, "account", "", "only this account")
	fs.StringVar(&f.category, "category", "", "only this category")
	fs.StringVar(&f.mode, "mode", "daily", "daily, monthly or total")
}

// apply pushes the selections into the view and loads the list.
func (a *App) apply(ctx context.Context, f viewFlags) error {
	if f.month != "" {
		m, err := core.ParseMonth(f.month)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		a.txs.SetMonth(m)
	}
	switch {
	case f.account != "" && f.category != "":
		return fmt.Errorf("%w: -account and -category are mutually exclusive", ErrUsage)
	case f.account != "":
		a.txs.SetFilter(filter.Account(f.account))
	case f.category != "":
		a.txs.SetFilter(filter.Category(f.category))
	}
	mode, err := aggregate.ParseViewMode(f.mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	a.txs.SetMode(mode)
	return a.txs.Refresh(ctx)
}

func (a *App) parse(name string, args []string, setup func(fs *flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Out)
	setup(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return fs, nil
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
}

func (a *App) list(ctx context.Context, args []string) error {
	var vf viewFlags
	if _, err := a.parse("list", args, vf.register); err != nil {
		return err
	}
	if err := a.apply(ctx, vf); err != nil {
		return err
	}

	var txs []core.Transaction
	switch a.txs.Mode() {
	case aggregate.ViewTotal:
		txs = a.txs.Cumulative()
	case aggregate.ViewMonthly:
		for _, b := range a.txs.Months() {
			txs = append(txs, b.Items...)
		}
	default:
		for _, b := range a.txs.Days() {
			txs = append(txs, b.Items...)
		}
	}
	tw := a.table()
	fmt.Fprintln(tw, "DATE\tAMOUNT\tCATEGORY\tDESCRIPTION\tACCOUNT\tID")
	for _, t := range txs {
		date, _ := t.DateKey()
		amount := t.Amount.String()
		if t.IsTransfer() {
			amount += " (transfer)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", date, amount, t.Category, t.Description, t.AccountID, t.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return a.printSummary()
}

func (a *App) printSummary() error {
	sum, err := a.txs.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "\nincome %s  expense %s  net %s\n", sum.Income, sum.Expense, sum.Net)
	return nil
}

func (a *App) days(ctx context.Context, args []string) error {
	var vf viewFlags
	if _, err := a.parse("days", args, vf.register); err != nil {
		return err
	}
	if err := a.apply(ctx, vf); err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "DATE\tINCOME\tEXPENSE\tNET\tITEMS")
	for _, b := range a.txs.Days() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", b.Date, b.Income, b.Expense, b.Net(), len(b.Items))
	}
	return tw.Flush()
}

func (a *App) months(ctx context.Context, args []string) error {
	var vf viewFlags
	if _, err := a.parse("months", args, vf.register); err != nil {
		return err
	}
	if err := a.apply(ctx, vf); err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tNET\tITEMS")
	for _, b := range a.txs.Months() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", b.Month, b.Income, b.Expense, b.Net(), len(b.Items))
	}
	return tw.Flush()
}

func (a *App) summary(ctx context.Context, args []string) error {
	var vf viewFlags
	if _, err := a.parse("summary", args, vf.register); err != nil {
		return err
	}
	if err := a.apply(ctx, vf); err != nil {
		return err
	}
	sum, err := a.txs.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s %s\n", a.txs.Mode(), a.txs.Month())
	fmt.Fprintf(a.Out, "income  %s\nexpense %s\nnet     %s\n", sum.Income, sum.Expense, sum.Net)
	return nil
}

func (a *App) stats(ctx context.Context, args []string) error {
	var (
		vf     viewFlags
		kind   string
		window string
	)
	if _, err := a.parse("stats", args, func(fs *flag.FlagSet) {
		vf.register(fs)
		fs.StringVar(&kind, "kind", "expense", "expense or income")
		fs.StringVar(&window, "window", "month", "month or all")
	}); err != nil {
		return err
	}
	k, ok := core.ParseKind(kind)
	if !ok {
		return fmt.Errorf("%w: -kind must be expense or income", ErrUsage)
	}
	w, err := stats.ParseWindow(window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := a.apply(ctx, vf); err != nil {
		return err
	}
	res, err := a.txs.Stats(w, k)
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Fprintf(a.Out, "no %s in this window\n", res.Kind)
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "CATEGORY\tTOTAL\tSHARE\tCOUNT")
	for _, c := range res.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%d\n", c.Label, c.Total, c.Percent, c.Count)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\t\n", res.Total)
	return tw.Flush()
}

func (a *App) calendar(ctx context.Context, args []string) error {
	var vf viewFlags
	if _, err := a.parse("calendar", args, vf.register); err != nil {
		return err
	}
	if err := a.apply(ctx, vf); err != nil {
		return err
	}
	page, err := a.txs.Calendar()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, page.Month)
	fmt.Fprintln(a.Out, " Su  Mo  Tu  We  Th  Fr  Sa")
	for _, week := range page.Weeks {
		var b strings.Builder
		for _, c := range week {
			if c.Blank() {
				b.WriteString("    ")
				continue
			}
			fmt.Fprintf(&b, "%3d%s", c.Day, marker(c.Indicator))
		}
		fmt.Fprintln(a.Out, strings.TrimRight(b.String(), " "))
	}
	fmt.Fprintln(a.Out, "+ net positive  - net negative  = balanced")
	return nil
}

func marker(i calendar.Indicator) string {
	switch i {
	case calendar.Positive:
		return "+"
	case calendar.Negative:
		return "-"
	case calendar.Zero:
		return "="
	default:
		return " "
	}
}

func (a *App) add(ctx context.Context, args []string) error {
	var (
		draft    core.TransactionDraft
		kind     string
		date     string
		transfer bool
	)
	if _, err := a.parse("add", args, func(fs *flag.FlagSet) {
		fs.StringVar(&draft.Amount, "amount", "", "positive amount, e.g. 12.50")
		fs.StringVar(&kind, "kind", "expense", "expense or income")
		fs.StringVar(&draft.Category, "category", "", "category label")
		fs.StringVar(&draft.Description, "desc", "", "description")
		fs.StringVar(&draft.AccountID, "account", "", "account id")
		fs.StringVar(&draft.Currency, "currency", "", "currency code")
		fs.StringVar(&date, "date", "", "date as YYYY-MM-DD (default now)")
		fs.BoolVar(&transfer, "transfer", false, "mark as a transfer between own accounts")
	}); err != nil {
		return err
	}
	k, ok := core.ParseKind(kind)
	if !ok {
		return fmt.Errorf("%w: -kind must be expense or income", ErrUsage)
	}
	draft.Kind = k
	if transfer {
		draft.Source = core.SourceTransfer
	}
	draft.Timestamp = core.NowTimestamp(a.Now())
	if date != "" {
		draft.Timestamp = date
	}

	t, err := a.txs.Create(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created %s %s %s\n", t.ID, t.Amount, t.Category)
	return nil
}

// confirm runs the two-tap guard: the first tap arms id, the confirmation
// taps again with whatever the user typed back.
func (a *App) confirm(id string, yes bool) bool {
	a.guard.Tap(id)
	if yes {
		return a.guard.Tap(id)
	}
	fmt.Fprintf(a.Out, "type the id again to delete %s: ", id)
	if a.In == nil {
		a.guard.Reset()
		return false
	}
	line, _ := bufio.NewReader(a.In).ReadString('\n')
	return a.guard.Tap(strings.TrimSpace(line))
}

func (a *App) delete(ctx context.Context, args []string) error {
	var yes bool
	fs, err := a.parse("delete", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&yes, "yes", false, "skip confirmation")
	})
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: delete takes one transaction id", ErrUsage)
	}
	id := fs.Arg(0)
	if !a.confirm(id, yes) {
		fmt.Fprintln(a.Out, "not deleted")
		return nil
	}
	if err := a.txs.Refresh(ctx); err != nil {
		return err
	}
	if err := a.txs.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "deleted %s\n", id)
	return nil
}

func (a *App) categories(ctx context.Context, args []string) error {
	cats, err := a.Remote.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Fprintln(a.Out, c.Label)
	}
	return nil
}

func (a *App) accounts(ctx context.Context, args []string) error {
	if err := a.ledger.Refresh(ctx); err != nil {
		return err
	}
	a.printAccounts()
	return nil
}

func (a *App) printAccounts() {
	tw := a.table()
	fmt.Fprintln(tw, "NAME\tTYPE\tBALANCE\tCURRENCY\tLAST4\tID")
	for _, acc := range a.ledger.Accounts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", acc.Name, acc.Type, acc.Balance, acc.Currency, acc.Last4, acc.ID)
	}
	_ = tw.Flush()
	s := a.ledger.Summary()
	fmt.Fprintf(a.Out, "\nassets %s  liabilities %s  net %s\n", s.Assets, s.Liabilities, s.Net)
}

func (a *App) accountAdd(ctx context.Context, args []string) error {
	var (
		draft core.AccountDraft
		typ   string
	)
	if _, err := a.parse("account-add", args, func(fs *flag.FlagSet) {
		fs.StringVar(&draft.Name, "name", "", "account name")
		fs.StringVar(&typ, "type", "bank", "cash, bank, card or other")
		fs.StringVar(&draft.Balance, "balance", "", "opening balance, may be negative")
		fs.StringVar(&draft.Currency, "currency", "", "currency code")
		fs.StringVar(&draft.Last4, "last4", "", "last four card digits")
	}); err != nil {
		return err
	}
	draft.Type = core.AccountType(typ)
	created, err := a.ledger.Create(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created %s %s\n", created.ID, created.Name)
	return nil
}

func (a *App) accountDelete(ctx context.Context, args []string) error {
	var yes bool
	fs, err := a.parse("account-delete", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&yes, "yes", false, "skip confirmation")
	})
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: account-delete takes one account id", ErrUsage)
	}
	id := fs.Arg(0)
	if !a.confirm(id, yes) {
		fmt.Fprintln(a.Out, "not deleted")
		return nil
	}
	if err := a.ledger.Refresh(ctx); err != nil {
		return err
	}
	if err := a.ledger.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "deleted %s\n", id)
	a.printAccounts()
	return nil
}
