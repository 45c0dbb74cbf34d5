package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/auth"
	"github.com/nerrad567/gray-logic-zigbee/internal/devicedb"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
)

// catalogFlags select the records a command builds its catalog from.
type catalogFlags struct {
	database  string
	noDefault bool
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.database, "database", "", "Local device database (YAML, or JSON by extension)")
	cmd.Flags().BoolVar(&f.noDefault, "no-default", false, "Skip the built-in device database")
}

func (f *catalogFlags) catalog() (*accessory.Catalog, error) {
	var records []devicedb.Record
	if !f.noDefault {
		builtin, err := devicedb.Default()
		if err != nil {
			return nil, err
		}
		records = append(records, builtin...)
	}
	if f.database != "" {
		local, err := devicedb.LoadFile(f.database)
		if err != nil {
			return nil, err
		}
		records = append(records, local...)
	}
	return platform.Populate(records)
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "accessoryctl",
		Short:         "Gray Logic Zigbee accessory tooling",
		Long:          "Offline tools for the Zigbee accessory service: identity resolution, device database validation and API tokens.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newResolveCmd(), newValidateCmd(), newTokenCmd())
	return root
}

// resolution is the JSON output of resolve.
type resolution struct {
	Manufacturer string              `json:"manufacturer"`
	Model        string              `json:"model"`
	Supported    bool                `json:"supported"`
	Binding      string              `json:"binding,omitempty"`
	Kind         string              `json:"kind,omitempty"`
	Services     []accessory.Service `json:"services,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var flags catalogFlags
	cmd := &cobra.Command{
		Use:   "resolve [manufacturer] [model]",
		Short: "Resolve a (manufacturer, model) pair to its handler",
		Long: "Look up the pair exactly as a device would report it and print the handler the service would attach. " +
			"Unsupported pairs exit with status 0 and supported=false.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := flags.catalog()
			if err != nil {
				return err
			}
			return resolve(cmd.OutOrStdout(), catalog, accessory.Device{
				IEEEAddress:  "0x0000000000000000",
				Manufacturer: args[0],
				Model:        args[1],
			})
		},
	}
	flags.register(cmd)
	return cmd
}

type offlinePlatform struct{}

func (offlinePlatform) Logger() accessory.Logger { return accessory.NoopLogger{} }

func resolve(w io.Writer, catalog *accessory.Catalog, dev accessory.Device) error {
	out := resolution{Manufacturer: dev.Manufacturer, Model: dev.Model}
	resolver := accessory.NewResolver(catalog)

	if b, ok := resolver.Resolve(dev.Identity()); ok {
		out.Supported = true
		out.Binding = b.Kind().String()
		h, err := resolver.Attach(accessory.BuildContext{Platform: offlinePlatform{}, Device: dev})
		if err != nil {
			return fmt.Errorf("building handler for %s: %w", dev.Identity(), err)
		}
		out.Kind = h.Kind()
		out.Services = h.Services()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a device database file",
		Long:  "Decode the file, validate every record and register it over the built-in table, as the service does at startup.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := devicedb.LoadFile(args[0])
			if err != nil {
				return err
			}
			catalog, err := platform.Populate(records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records ok, catalog has %d identities\n",
				args[0], len(records), catalog.Size())
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		configPath string
		subject    string
		role       string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token",
		Long:  "Sign a token with the service's JWT secret. The secret comes from --config, overridden by GRAYLOGIC_JWT_SECRET.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			cfg.Security.JWT.Secret = os.Getenv("GRAYLOGIC_JWT_SECRET")
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if !cfg.AuthEnabled() {
				return fmt.Errorf("no JWT secret configured: set security.jwt.secret or GRAYLOGIC_JWT_SECRET")
			}
			if ttl <= 0 {
				ttl = cfg.GetAccessTokenTTL()
			}
			token, err := auth.GenerateToken(subject, auth.Role(role), cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Service config file")
	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (required)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "Role: viewer or installer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default from config)")
	//nolint:errcheck // Flag is registered above
	cmd.MarkFlagRequired("subject")
	return cmd
}
