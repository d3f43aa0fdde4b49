package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/princinho/stackforum/config"
	"github.com/princinho/stackforum/database"
	"github.com/princinho/stackforum/repositories"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	mongoURI string
	dbName   string
	driver   string
	verbose  bool
)

// openSet opens the repositories commands run against. Tests replace it.
var openSet = openRepos

var rootCmd = &cobra.Command{
	Use:   "forumctl",
	Short: "Operator tooling for the forum backend",
	Long: `forumctl runs maintenance tasks against the forum database.

Settings are read from the environment (and an optional .env file) the same
way the server reads them; flags override them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (defaults to MONGODB_URI)")
	rootCmd.PersistentFlags().StringVar(&dbName, "database", "", "Database name (defaults to DATABASE_NAME)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Storage driver, only mongo is supported (defaults to DB_DRIVER)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func loadConfig() *config.Config {
	_ = godotenv.Load()
	cfg := config.FromEnv(os.Getenv)
	if mongoURI != "" {
		cfg.MongoURI = mongoURI
	}
	if dbName != "" {
		cfg.DatabaseName = dbName
	}
	if driver != "" {
		cfg.DBDriver = driver
	}
	return cfg
}

// openRepos returns the repositories for cfg and a function releasing them.
func openRepos(ctx context.Context, cfg *config.Config) (repositories.Set, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		return repositories.Set{}, nil, errors.New("the memory driver keeps no data between runs, use --driver mongo")
	case config.DriverMongo:
		if cfg.MongoURI == "" {
			return repositories.Set{}, nil, fmt.Errorf("--mongo-uri or MONGODB_URI is required")
		}
		db, err := database.Connect(ctx, cfg.MongoURI, cfg.DatabaseName, cfg.DBTimeout)
		if err != nil {
			return repositories.Set{}, nil, err
		}
		closeFn := func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Warn("mongo disconnect failed", "err", err)
			}
		}
		return repositories.NewMongoSet(db), closeFn, nil
	}
	return repositories.Set{}, nil, fmt.Errorf("unknown driver %q", cfg.DBDriver)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
