package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"piqrypt/internal/app"
)

var (
	home       string
	passphrase string
	configPath string
	wire       *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "piqrypt",
		Short: "Tamper-evident audit chains for agent sessions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load(configPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if cfg.Home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Home = filepath.Join(dir, ".piqrypt")
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			wire = app.NewWire(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.piqrypt)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&configPath, "config", "piqrypt.toml", "config file path")

	root.AddCommand(initCmd(), fingerprintCmd(), verifyCmd())
	return root.Execute()
}
