package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/auth"
	"github.com/nerrad567/gray-logic-controller/internal/discovery"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

func newSettingsCmd(path func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Export or import persisted entity settings",
		Long: `Settings are stored per entity ("actuator/lamp", "area/kitchen", ...)
in the controller database. The exchange format is one JSON object mapping
store names to their flat key/value settings.`,
	}

	export := &cobra.Command{
		Use:     "export",
		Short:   "Write every settings store as JSON to stdout",
		Example: "  graylogic settings export > settings.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return exportSettings(cmd.Context(), path(), cmd.OutOrStdout())
		},
	}

	imp := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace settings stores from a JSON export ('-' reads stdin)",
		Long: `Replace settings stores from a JSON export. Each store named in the
file is overwritten as a whole; stores not named are left untouched.
A running controller only picks up the change after a restart.`,
		Example: "  graylogic settings import settings.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			n, err := importSettings(cmd.Context(), path(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d settings stores\n", n)
			return nil
		},
	}

	cmd.AddCommand(export, imp)
	return cmd
}

func openRepository(ctx context.Context, configPath string) (*settings.SQLiteRepository, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return settings.NewSQLiteRepository(db.DB), db.Close, nil
}

func exportSettings(ctx context.Context, configPath string, w io.Writer) error {
	repo, closeDB, err := openRepository(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeDB() //nolint:errcheck // read-only use

	stores, err := repo.Stores(ctx)
	if err != nil {
		return fmt.Errorf("listing settings stores: %w", err)
	}
	out := make(map[string]settings.Snapshot, len(stores))
	for _, name := range stores {
		snap, err := repo.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("loading settings store %s: %w", name, err)
		}
		out[name] = snap
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func importSettings(ctx context.Context, configPath string, r io.Reader) (int, error) {
	var in map[string]settings.Snapshot
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return 0, fmt.Errorf("decoding settings export: %w", err)
	}

	repo, closeDB, err := openRepository(ctx, configPath)
	if err != nil {
		return 0, err
	}
	defer closeDB() //nolint:errcheck // writes are committed per store

	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := repo.Save(ctx, name, in[name]); err != nil {
			return 0, fmt.Errorf("saving settings store %s: %w", name, err)
		}
	}
	return len(names), nil
}

func newTokenCmd(path func() string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for mutating API requests",
		Long: `Issue an HS256 bearer token signed with security.jwt.secret. Send it as
"Authorization: Bearer <token>" on POST requests to the API.`,
		Example: "  graylogic token --subject wall-panel --ttl 720h",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(path())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			token, err := api.IssueToken(cfg.Security.JWT, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject, logged with each request")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "hash-password",
		Short:   "Hash a password read from stdin for security.users",
		Example: `  printf '%s' 'correct horse' | graylogic hash-password`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(string(data), "\r\n")
			if password == "" {
				return errors.New("empty password")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newDiscoverCmd(path func() string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:     "discover",
		Short:   "Find controllers on the local network via mDNS",
		Example: "  graylogic discover --timeout 3s",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(path())
			if errors.Is(err, fs.ErrNotExist) {
				cfg, err = config.Default(), nil
			}
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			found, err := discovery.Scan(ctx, cfg.Discovery)
			if err != nil {
				return err
			}
			return printControllers(cmd.OutOrStdout(), found)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for answers")
	return cmd
}

func printControllers(w io.Writer, found []discovery.Controller) error {
	if len(found) == 0 {
		_, err := fmt.Fprintln(w, "no controllers found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tSITE\tVERSION\tURL")
	for _, c := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Instance, c.SiteID, c.Version, c.URL())
	}
	return tw.Flush()
}
