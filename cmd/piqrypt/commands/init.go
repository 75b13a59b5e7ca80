package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"piqrypt/internal/crypto"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a signing identity and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := crypto.GenerateIdentity()
			if err != nil {
				return err
			}
			if err := wire.Store.SaveIdentity(passphrase, id); err != nil {
				return err
			}
			wire.Log.Info().Str("agent_id", string(id.AgentID)).Msg("identity created")
			fmt.Printf("Identity created.\nAgent ID:    %s\nFingerprint: %s\n",
				id.AgentID, crypto.Fingerprint(id.PublicKey))
			return nil
		},
	}
}
