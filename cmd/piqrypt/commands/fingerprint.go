package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"piqrypt/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.Store.LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Agent ID:    %s\nFingerprint: %s\n",
				id.AgentID, crypto.Fingerprint(id.PublicKey))
			return nil
		},
	}
}
