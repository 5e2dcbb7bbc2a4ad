// Command quizctl manages accounts and seed data for the quiz gateway.
//
//	quizctl user add -u NAME -p PASS [--quizzer]
//	quizctl token -u NAME
//	quizctl seed -f seed.yaml
//	quizctl events [--after SEQ] [--limit N]
//
// It reads the same configuration as the gateway (CONFIG_FILE plus env).
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const usage = `usage:
  quizctl user add -u NAME -p PASS [--quizzer]
  quizctl token -u NAME
  quizctl seed -f seed.yaml
  quizctl events [--after SEQ] [--limit N]`

type app struct {
	cfg   config.Config
	log   *logger.Logger
	db    *sql.DB
	store *quiz.SQLStore
	svc   *quiz.Service
	close func()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	ctx := context.Background()
	switch os.Args[1] {
	case "user":
		if len(os.Args) < 3 || os.Args[2] != "add" {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = a.userAdd(ctx, os.Args[3:])
	case "token":
		err = a.token(ctx, os.Args[2:])
	case "seed":
		err = a.seed(ctx, os.Args[2:])
	case "events":
		err = a.eventFeed(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(string(cfg.Mode), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)
	return &app{
		cfg:   cfg,
		log:   log,
		db:    dbh,
		store: store,
		svc:   quiz.NewService(store, log),
		close: func() {
			_ = dbh.Close()
			log.Sync()
		},
	}, nil
}

func (a *app) userAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	quizzer := fs.Bool("quizzer", false, "create a quiz author instead of a quiz taker")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		return fmt.Errorf("-p is required")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	u, err := a.svc.RegisterUser(ctx, *username, hash, *quizzer)
	if err != nil {
		return err
	}
	fmt.Printf("created user %d (%s, %s)\n", u.ID, u.Username, u.Role())
	return nil
}

func (a *app) token(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.store.GetUserByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("user %q: %w", *username, err)
	}
	tok, err := auth.NewAuthService(a.cfg.AuthSecret, a.cfg.TokenTTL).IssueJWT(u.ID, u.Username, u.Role())
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func (a *app) seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	path := fs.String("f", "seed.yaml", "seed file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	sf, err := decodeSeed(f)
	if err != nil {
		return err
	}
	res, err := applySeed(ctx, a.svc, a.store, sf, auth.HashPassword)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d users, %d questions, %d quizzes, %d assignments\n",
		res.Users, res.Questions, res.Quizzes, res.Assignments)
	return nil
}

func (a *app) eventFeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	after := fs.Int64("after", 0, "print events with a sequence number above SEQ")
	limit := fs.Int("limit", 100, "maximum number of events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	last, err := printEvents(ctx, os.Stdout, events.NewEventRepo(a.db), *after, *limit)
	if err != nil {
		return err
	}
	a.log.Debug("events printed", "after", *after, "last", last)
	return nil
}
