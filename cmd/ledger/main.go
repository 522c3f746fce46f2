package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/infrastructure/config"
	"github.com/abacus/ledger/internal/infrastructure/event"
	"github.com/abacus/ledger/internal/infrastructure/logger"
	"github.com/abacus/ledger/internal/infrastructure/persistence"
	"github.com/abacus/ledger/internal/infrastructure/pool"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer func() {
		_ = db.Close()
	}()

	bus := event.NewInMemoryEventBus(log)
	pools := pool.NewPools()

	ctx := context.Background()

	switch args[0] {
	case "tree":
		err = runTree(ctx, db, log, bus, pools, args[1:])
	case "total":
		err = runTotal(ctx, db, log, bus, pools, args[1:])
	case "check":
		err = runCheck(ctx, db, log, bus, pools, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func sectionByName(name string) (ledger.Section, error) {
	for _, section := range ledger.Sections() {
		if section.String() == name {
			return section, nil
		}
	}
	return 0, fmt.Errorf("unknown section %q", name)
}

func newStore(db *persistence.Database, log *zap.Logger, bus *event.InMemoryEventBus, pools *pool.Pools, name string) (*persistence.SectionStore, error) {
	section, err := sectionByName(name)
	if err != nil {
		return nil, err
	}
	return persistence.NewSectionStore(db.DB, log, section, pools, bus), nil
}

// runTree prints the chart of accounts of one section as an indented tree.
func runTree(ctx context.Context, db *persistence.Database, log *zap.Logger, bus *event.InMemoryEventBus, pools *pool.Pools, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ledger tree <section>")
	}

	store, err := newStore(db, log, bus, pools, args[0])
	if err != nil {
		return err
	}

	nodes, err := store.BuildTree(ctx)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	printSubtree(nodes[ledger.RootID], 0)
	return nil
}

func printSubtree(node *ledger.Node, depth int) {
	if node.ID != ledger.RootID {
		marker := ""
		if node.Branch {
			marker = "/"
		}
		fmt.Printf("%s%d %s%s\n", strings.Repeat("  ", depth-1), node.ID, node.Name, marker)
	}
	for _, child := range node.Children {
		printSubtree(child, depth+1)
	}
}

// runTotal recomputes and prints the totals of one leaf account.
func runTotal(ctx context.Context, db *persistence.Database, log *zap.Logger, bus *event.InMemoryEventBus, pools *pool.Pools, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: ledger total <section> <node-id>")
	}

	store, err := newStore(db, log, bus, pools, args[0])
	if err != nil {
		return err
	}

	nodeID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid node id %q", args[1])
	}

	nodes, err := store.BuildTree(ctx)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	node := nodes[nodeID]
	if node == nil {
		return fmt.Errorf("node %d not found in section %s", nodeID, args[0])
	}

	if err := store.LeafTotal(ctx, node); err != nil {
		return fmt.Errorf("leaf total: %w", err)
	}

	fmt.Printf("%d %s\n  initial: %s\n  final:   %s\n",
		node.ID, node.Name, node.InitialTotal, node.FinalTotal)
	return nil
}

// runCheck bulk-writes a toggle column on every transaction of a section.
func runCheck(ctx context.Context, db *persistence.Database, log *zap.Logger, bus *event.InMemoryEventBus, pools *pool.Pools, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: ledger check <section> <column> <set|unset|reverse>")
	}

	store, err := newStore(db, log, bus, pools, args[0])
	if err != nil {
		return err
	}

	column := args[1]
	switch args[2] {
	case "set":
		return store.UpdateCheckState(ctx, column, true, persistence.CheckSet)
	case "unset":
		return store.UpdateCheckState(ctx, column, false, persistence.CheckSet)
	case "reverse":
		return store.UpdateCheckState(ctx, column, nil, persistence.CheckReverse)
	default:
		return fmt.Errorf("unknown mode %q", args[2])
	}
}

func printUsage() {
	fmt.Println("Usage: ledger [-log-level <level>] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  tree <section>                      Print the account tree of a section")
	fmt.Println("  total <section> <node-id>           Recompute and print one leaf's totals")
	fmt.Println("  check <section> <column> <mode>     Bulk-toggle a transaction column (set, unset, reverse)")
	fmt.Println()
	fmt.Println("Sections: finance, product, task, stakeholder, purchase, sales")
}
