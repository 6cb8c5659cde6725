// Command bookctl is the operator CLI: it migrates and seeds the database,
// retires sections and inspects availability without the HTTP server.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/answer"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/service"
	"github.com/iliyamo/table-reservation/internal/utils"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is what every subcommand shares once the database is open.
type app struct {
	log   *zap.Logger
	db    *sql.DB
	store *repository.Store
	rules config.BookingConfig
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.log.Sync()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "Operate the table reservation database",
		Long: `Operator commands for the table reservation service.

Examples:
  bookctl migrate                       # create tables and seed the floor plan
  bookctl purge Rooftop --hard          # remove a retired section for good
  bookctl sections --all                # print the floor plan
  bookctl availability --date 2026-07-01 --time 19:00
  bookctl times --date 2026-07-01 --party 4
  bookctl ask "do you have parking?"
`,
		SilenceUsage: true,
	}
	cmd.AddCommand(migrateCmd(), purgeCmd(), sectionsCmd(), availabilityCmd(), timesCmd(), askCmd())
	return cmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// open connects with only the database settings, so the CLI runs without
// the server's JWT and port variables.
func open(ctx context.Context) (*app, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	log, err := utils.NewLogger(cfg.Env)
	if err != nil {
		return nil, err
	}
	rules, err := config.LoadBookingConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, database.Params{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{log: log, db: db, store: repository.NewStore(db), rules: rules}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	var (
		layoutFile string
		noSeed     bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed the floor plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.Migrate(ctx, a.db); err != nil {
				return err
			}
			a.log.Info("schema up to date")
			if noSeed {
				return nil
			}
			if layoutFile == "" {
				layoutFile = a.rules.LayoutFile
			}
			layout, err := config.LoadLayout(layoutFile)
			if err != nil {
				return err
			}
			report, err := service.NewInventoryService(a.store, a.log).Seed(ctx, layout, a.rules.RetiredSections)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	cmd.Flags().StringVar(&layoutFile, "layout", "", "Floor plan file (default $LAYOUT_FILE)")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "Only create the schema")
	return cmd
}

func purgeCmd() *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:   "purge SECTION...",
		Short: "Retire sections and cancel their reservations",
		Long: `Retire the named sections.

By default sections and tables are deactivated and their confirmed
reservations cancelled. With --hard the rows are deleted instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := service.NewInventoryService(a.store, a.log).Purge(ctx, args, hard)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "Delete rows instead of deactivating them")
	return cmd
}

func sectionsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Print sections and their tables by priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			out, err := service.NewInventoryService(a.store, a.log).Sections(ctx, all)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive sections and tables")
	return cmd
}

func availabilityCmd() *cobra.Command {
	var q service.AvailabilityQuery
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Summarize free tables for a date and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			svc := service.NewReservationService(a.store, a.rules, nil, a.log)
			sum, err := svc.CheckAvailability(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(sum)
		},
	}
	cmd.Flags().StringVar(&q.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&q.Time, "time", "", "Clock time as HH:MM")
	cmd.Flags().StringVar(&q.Section, "section", "", "Section name or part of it")
	cmd.Flags().IntVar(&q.NextHours, "next-hours", 0, "Look this many hours ahead from now instead")
	return cmd
}

func timesCmd() *cobra.Command {
	var (
		date    string
		party   int
		section string
	)
	cmd := &cobra.Command{
		Use:   "times",
		Short: "List bookable start times per section for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			svc := service.NewReservationService(a.store, a.rules, nil, a.log)
			if date == "" {
				date = svc.Now().Format("2006-01-02")
			}
			times, err := svc.AvailableTimes(ctx, date, party, section)
			if err != nil {
				return err
			}
			return printJSON(times)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&party, "party", 2, "Party size")
	cmd.Flags().StringVar(&section, "section", "", "Only this section")
	return cmd
}

func askCmd() *cobra.Command {
	var (
		layoutFile string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a guest question from the layout's FAQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			log, err := utils.NewLogger(os.Getenv("APP_ENV"))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signalContext()
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			rules, err := config.LoadBookingConfig()
			if err != nil {
				return err
			}
			if layoutFile == "" {
				layoutFile = rules.LayoutFile
			}
			layout, err := config.LoadLayout(layoutFile)
			if err != nil {
				return err
			}
			cands, err := answer.Candidates(config.LoadAnswerConfig(), answer.NewKnowledge(layout.FAQ), log)
			if err != nil {
				return err
			}
			a, err := answer.Negotiate(ctx, log, cands...)
			if err != nil {
				return err
			}
			if cl, ok := a.(io.Closer); ok {
				defer cl.Close()
			}
			ans, err := a.Answer(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(ans)
		},
	}
	cmd.Flags().StringVar(&layoutFile, "layout", "", "Floor plan file (default $LAYOUT_FILE)")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "Give up after this long")
	return cmd
}
