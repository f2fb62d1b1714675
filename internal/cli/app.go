package cli

import (
	"fmt"

	"github.com/efisher/whoopsync/internal/adapter/driven/sqlite"
	"github.com/efisher/whoopsync/internal/adapter/driven/whoop"
	"github.com/efisher/whoopsync/internal/application"
	"github.com/efisher/whoopsync/internal/config"
	"github.com/efisher/whoopsync/internal/ratelimit"
)

// app is the composition root shared by all commands: configuration,
// database, repositories, and the services wired on top of them.
type app struct {
	cfg *config.Config
	db  *sqlite.DB

	limiter *ratelimit.Limiter
	oauth   *whoop.OAuth
	tokens  *application.TokenManager

	users   *sqlite.UserRepo
	cursors *sqlite.CursorRepo
	stores  application.CollectorStores
}

// newApp loads configuration, opens the database, runs migrations, and
// builds the service graph.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	oauth := whoop.NewOAuth(whoop.OAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
	})

	cursors := sqlite.NewCursorRepo(db)
	a := &app{
		cfg:     cfg,
		db:      db,
		limiter: ratelimit.New(cfg.MaxRequestsPerMinute, cfg.RateSafetyMargin),
		oauth:   oauth,
		tokens:  application.NewTokenManager(sqlite.NewTokenRepo(db, cfg.EncryptionKey), oauth),
		users:   sqlite.NewUserRepo(db),
		cursors: cursors,
		stores: application.CollectorStores{
			Sleep:    sqlite.NewSleepRepo(db),
			Recovery: sqlite.NewRecoveryRepo(db),
			Workout:  sqlite.NewWorkoutRepo(db),
			Cycle:    sqlite.NewCycleRepo(db),
			Cursors:  cursors,
		},
	}

	return a, nil
}

func (a *app) Close() {
	a.db.Close()
}

// collectorFor builds a Collector for one user, sharing the process-wide
// rate limiter and token manager across all of them.
func (a *app) collectorFor(userID int64) *application.Collector {
	client := whoop.NewClient(userID, a.tokens, a.limiter, whoop.WithBaseURL(a.cfg.APIBaseURL))
	return application.NewCollector(userID, client, a.tokens, a.stores)
}
