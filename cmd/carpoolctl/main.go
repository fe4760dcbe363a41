// Command carpoolctl is the operator CLI: it applies the schema, inspects
// the pending pool and a driver's earnings, and mints caller tokens.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/domain"
	"carpool/internal/logger"
	"carpool/internal/middleware"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "carpoolctl",
		Short:        "Operate the carpool service",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout for database operations")

	cmd.AddCommand(migrateCmd(), groupsCmd(), earningsCmd(), tokenCmd())
	return cmd
}

func timeoutCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	d, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), d)
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return app.NewDatabase(ctx, cfg.Database, nil)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := timeoutCtx(cmd)
			defer cancel()

			db, err := openDB(ctx, config.Load())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Print the pending requests grouped by route",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := timeoutCtx(cmd)
			defer cancel()

			cfg := config.Load()
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewGroupingService(postgres.NewRideRequestRepository(db), app.FarePolicy(cfg.Fare), logger.Discard())
			// The operator reads the same view a driver does.
			groups, err := svc.PendingGroups(ctx, domain.Caller{ID: "carpoolctl", Role: domain.RoleDriver})
			if err != nil {
				return err
			}
			return printGroups(cmd.OutOrStdout(), groups)
		},
	}
}

func printGroups(w io.Writer, groups []domain.RouteGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "no pending requests")
		return err
	}
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%-24s -> %-24s seats=%-3d earnings=%.2f requests=%d\n",
			g.Pickup, g.Destination, g.TotalSeats, g.TotalEarnings, len(g.RequestIDs)); err != nil {
			return err
		}
	}
	return nil
}

func earningsCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "earnings DRIVER_ID",
		Short: "Print a driver's monthly and total earnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := timeoutCtx(cmd)
			defer cancel()

			db, err := openDB(ctx, config.Load())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewEarningsService(postgres.NewRideRepository(db))
			e, err := svc.DriverEarnings(ctx, domain.Caller{ID: args[0], Role: domain.RoleDriver}, year, time.Month(month))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"driver_id":          args[0],
				"year":               e.Year,
				"month":              int(e.Month),
				"monthly_earnings":   e.Monthly,
				"total_earnings":     e.Total,
				"monthly_ride_count": e.MonthlyRideCount,
				"total_ride_count":   e.RideCount,
			})
		},
	}

	now := time.Now().UTC()
	cmd.Flags().IntVar(&year, "year", now.Year(), "Calendar year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "Calendar month (1-12)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token rider|driver ID",
		Short: "Mint a bearer token for a caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domain.Role(args[0])
			if role != domain.RoleRider && role != domain.RoleDriver {
				return fmt.Errorf("role must be rider or driver, got %q", args[0])
			}

			cfg := config.Load()
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), domain.Caller{ID: args[1], Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_TOKEN_TTL)")
	return cmd
}
