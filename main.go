package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mkmccarty/IdleResearchPlanner/src/config"
	"github.com/mkmccarty/IdleResearchPlanner/src/pricedb"
	"github.com/mkmccarty/IdleResearchPlanner/src/ranking"
	"github.com/mkmccarty/IdleResearchPlanner/src/report"
	"github.com/mkmccarty/IdleResearchPlanner/src/research"
	"github.com/mkmccarty/IdleResearchPlanner/src/state"
	"github.com/mkmccarty/IdleResearchPlanner/src/store"
	"github.com/mkmccarty/IdleResearchPlanner/src/units"
	"github.com/mkmccarty/IdleResearchPlanner/src/version"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Launch parameters to override .config.json parameters
var (
	ConfigFile = flag.String("config", "./.config.json", "Configuration file")
	DataDir    = flag.String("data", "", "Directory holding the database and state files")
	LogLevel   = flag.String("loglevel", "", "Log level (debug, info, warn, error)")
)

const usage = `usage: planner [flags] <command> [args]

commands:
  rank [-n N]                      next research purchases by payback
  quote <research> <level>         cost and payback of one level
  advance <research>               buy the current level
  record <research> <price>        record the price of the current level, e.g. 4.25B
  complete <research>              mark the current level as the last level
  needs                            list researches waiting for a price
  discount <level>                 set the discount level
  level <research> <level>         set a research level
  reset                            put every research back at its start level
  add <research> <kind> <percent>  add a research track (fixed-percent, double, triple)
  version                          print the version
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	if err := initLaunchParameters(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logFile, err := initLogging()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	if err := run(flag.Args(), os.Stdout); err != nil {
		log.Error().Err(err).Strs("args", flag.Args()).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initLaunchParameters() error {
	flag.Parse()

	if err := config.ReadConfig(*ConfigFile); err != nil {
		return err
	}
	if *DataDir != "" {
		config.DataDir = *DataDir
	}
	if *LogLevel != "" {
		config.LogLevel = *LogLevel
	}
	return nil
}

func initLogging() (*os.File, error) {
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", config.LogLevel)
	}
	f, err := os.OpenFile(config.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}

func run(args []string, out io.Writer) error {
	a, err := openPlanner(store.New(config.DataDir, config.KeepBackups), out)
	if err != nil {
		return err
	}
	return a.dispatch(args)
}

// planner holds the loaded database and state for one command.
type planner struct {
	storage *store.Store
	db      *pricedb.Database
	st      *state.State
	out     io.Writer
}

func openPlanner(storage *store.Store, out io.Writer) (*planner, error) {
	db := pricedb.New()
	if storage.Has(pricedb.StorageKey) {
		var err error
		if db, err = pricedb.Load(storage); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("no database yet, starting empty")
	}

	st, err := state.Load(storage, db)
	if err != nil {
		return nil, err
	}
	return &planner{storage: storage, db: db, st: st, out: out}, nil
}

func (a *planner) dispatch(args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "rank":
		return a.rank(rest)
	case "quote":
		return a.quote(rest)
	case "advance":
		return a.advance(rest)
	case "record":
		return a.record(rest)
	case "complete":
		return a.complete(rest)
	case "needs":
		a.printRequests()
		return nil
	case "discount":
		return a.discount(rest)
	case "level":
		return a.level(rest)
	case "reset":
		a.st.Reset()
		return a.saveState()
	case "add":
		return a.add(rest)
	case "version":
		fmt.Fprintln(a.out, version.String())
		return nil
	}
	return errors.Errorf("unknown command %q", cmd)
}

func wantArgs(args []string, names ...string) error {
	if len(args) != len(names) {
		return errors.Errorf("expected arguments: %v", names)
	}
	return nil
}

func (a *planner) research(name string) (*research.Research, error) {
	r, ok := a.st.Research(name)
	if !ok {
		if suggestions := a.st.Suggest(name); len(suggestions) > 0 {
			return nil, errors.Wrapf(state.ErrUnknownResearch, "%q, did you mean %q", name, suggestions[0])
		}
		return nil, errors.Wrapf(state.ErrUnknownResearch, "%q", name)
	}
	return r, nil
}

func (a *planner) rank(args []string) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.SetOutput(a.out)
	n := fs.Int("n", config.TopCount, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return errors.Errorf("-n must be positive, got %d", *n)
	}

	entries := ranking.New(a.st.Researches(), a.st.DiscountLevel).Take(*n)
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Nothing can be ranked yet.")
		return nil
	}
	report.RenderRanking(a.out, entries)
	return nil
}

func (a *planner) quote(args []string) error {
	if err := wantArgs(args, "research", "level"); err != nil {
		return err
	}
	r, err := a.research(args[0])
	if err != nil {
		return err
	}
	level, err := strconv.Atoi(args[1])
	if err != nil || level < 0 {
		return errors.Errorf("invalid level %q", args[1])
	}
	entry, ok := r.NextPayback(a.st.DiscountLevel, level)
	if !ok {
		fmt.Fprintf(a.out, "%s level %d: nothing known\n", r.Name, level)
		return nil
	}
	report.RenderQuote(a.out, entry)
	return nil
}

func (a *planner) advance(args []string) error {
	if err := wantArgs(args, "research"); err != nil {
		return err
	}
	r, err := a.research(args[0])
	if err != nil {
		return err
	}
	if r.IsComplete() {
		return errors.Errorf("%s is already at its last level", r.Name)
	}
	r.AdvanceLevel()
	log.Info().Str("research", r.Name).Int("level", r.Level).Msg("advanced")
	if err := a.saveState(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now level %d\n", r.Name, r.Level)
	return nil
}

func (a *planner) record(args []string) error {
	if len(args) < 2 {
		return errors.New("expected arguments: research price")
	}
	r, err := a.research(args[0])
	if err != nil {
		return err
	}
	amount, unit, err := units.ParseValueWithUnit(strings.Join(args[1:], " "))
	if errors.Is(err, units.ErrUnknownUnit) {
		return errors.Wrapf(err, "known units: %s", knownUnits())
	}
	if err != nil {
		return err
	}
	if err := r.Elem.RecordObservedPrice(r.Level, a.st.DiscountLevel, amount, unit.Short); err != nil {
		return err
	}
	log.Info().
		Str("research", r.Name).
		Int("level", r.Level).
		Int("discount", a.st.DiscountLevel).
		Str("price", amount.String()+unit.Short).
		Msg("price recorded")
	return a.saveDatabase()
}

func knownUnits() string {
	var codes []string
	for _, u := range units.All() {
		if u.Short != "" {
			codes = append(codes, u.Short)
		}
	}
	return strings.Join(codes, " ")
}

func (a *planner) complete(args []string) error {
	if err := wantArgs(args, "research"); err != nil {
		return err
	}
	r, err := a.research(args[0])
	if err != nil {
		return err
	}
	r.Elem.MarkCompleted(r.Level)
	log.Info().Str("research", r.Name).Int("last_level", r.Level).Msg("marked completed")
	return a.saveDatabase()
}

func (a *planner) discount(args []string) error {
	if err := wantArgs(args, "level"); err != nil {
		return err
	}
	discount, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Errorf("invalid discount level %q", args[0])
	}
	if err := a.st.SetDiscountLevel(discount); err != nil {
		return err
	}
	return a.saveState()
}

func (a *planner) level(args []string) error {
	if err := wantArgs(args, "research", "level"); err != nil {
		return err
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Errorf("numeric level needed for %s", args[0])
	}
	if err := a.st.SetLevel(args[0], level); err != nil {
		return err
	}
	return a.saveState()
}

func (a *planner) add(args []string) error {
	if err := wantArgs(args, "research", "kind", "percent"); err != nil {
		return err
	}
	kind, err := pricedb.ParseKind(args[1])
	if err != nil {
		return err
	}
	percent, err := decimal.NewFromString(args[2])
	if err != nil || percent.IsNegative() {
		return errors.Errorf("invalid percent %q", args[2])
	}
	if err := a.db.Add(args[0], pricedb.NewElem(kind, percent, nil)); err != nil {
		return err
	}
	a.st.Sync(a.db)
	if err := a.db.Save(a.storage); err != nil {
		return err
	}
	return a.saveState()
}

func (a *planner) saveState() error {
	if err := a.st.Save(a.storage); err != nil {
		return err
	}
	a.printRequests()
	return nil
}

func (a *planner) saveDatabase() error {
	if err := a.db.Save(a.storage); err != nil {
		return err
	}
	a.printRequests()
	return nil
}

func (a *planner) printRequests() {
	requests := slices.Collect(ranking.ResearchesNeedingData(a.st))
	report.RenderRequests(a.out, a.st.DiscountLevel, requests)
}
