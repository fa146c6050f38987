package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"selfreg/internal/platform/config"
	"selfreg/internal/platform/httpserver"
	"selfreg/internal/platform/logger"
	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
)

// main wires high-level dependencies and hands control to cobra. Business
// logic lives in the internal service packages.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dotenv string
	root := &cobra.Command{
		Use:          "selfreg",
		Short:        "Email-only self registration service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dotenv, "env-file", ".env", "optional dotenv file loaded before the environment")

	root.AddCommand(newServeCmd(&dotenv), newRegisterCmd(&dotenv), newPendingCmd(&dotenv))
	return root
}

func newServeCmd(dotenv *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the self registration HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv(*dotenv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.close()

	srv := httpserver.New(cfg.Addr, a.router())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting selfreg", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.properties.Watch(gctx, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newRegisterCmd(dotenv *string) *cobra.Command {
	var (
		email  string
		realm  string
		tenant string
		props  []string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Run one lite registration without the HTTP layer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv(*dotenv)
			if err != nil {
				return err
			}
			properties, err := parseProperties(props)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := buildApp(ctx, cfg, logger.New(cfg.LogLevel, cfg.LogFormat))
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			defer a.close()

			req := &models.RegistrationRequest{Email: email, Realm: realm, Properties: properties}
			body, err := a.service.Register(ctx, req, domain.TenantDomain(tenant))
			if err != nil {
				var failure *models.Failure
				if errors.As(err, &failure) {
					_ = printJSON(cmd, map[string]string{"code": failure.Code, "message": failure.Message})
				}
				return err
			}
			switch body.Kind {
			case models.ResponseLegacyText:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), body.Text)
				return err
			case models.ResponseEmpty:
				return nil
			default:
				return printJSON(cmd, body.Entity)
			}
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address to register")
	cmd.Flags().StringVar(&realm, "realm", "", "user store domain (defaults to the primary domain)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant domain (defaults to the super tenant)")
	cmd.Flags().StringArrayVar(&props, "property", nil, "key=value claim, repeatable and order preserving")
	return cmd
}

// pendingView is what the pending command prints. The recovery id is the
// lookup key and is not echoed back.
type pendingView struct {
	Username            string            `json:"username"`
	TenantDomain        string            `json:"tenantDomain"`
	UserStoreDomain     string            `json:"userStoreDomain"`
	NotificationChannel string            `json:"notificationChannel"`
	CreatedAt           time.Time         `json:"createdAt"`
	Properties          []models.Property `json:"properties"`
}

func newPendingCmd(dotenv *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pending <recovery-id>",
		Short: "Show the registration awaiting confirmation under a recovery id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv(*dotenv)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := buildApp(ctx, cfg, logger.New(cfg.LogLevel, cfg.LogFormat))
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			defer a.close()

			reg, err := a.manager.Pending(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, pendingView{
				Username:            reg.Identity.Username,
				TenantDomain:        reg.Identity.TenantDomain.String(),
				UserStoreDomain:     reg.Identity.UserStoreDomain.String(),
				NotificationChannel: reg.NotificationChannel.String(),
				CreatedAt:           reg.CreatedAt,
				Properties:          reg.Properties,
			})
		},
	}
}

func parseProperties(raw []string) ([]models.Property, error) {
	properties := make([]models.Property, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("property %q: expected key=value", kv)
		}
		properties = append(properties, models.Property{Key: key, Value: value})
	}
	return properties, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
