package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"piqrypt/internal/verify"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <audit.json>",
		Short: "Audit an exported session for tampering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audit, err := wire.Store.LoadAudit(args[0])
			if err != nil {
				return err
			}
			report := verify.Report(verify.Session(audit))

			fmt.Printf("Session:    %s\n", audit.SessionID)
			fmt.Printf("Agents:     %d\n", report.Agents)
			fmt.Printf("Events:     %d\n", report.EventsTotal)
			fmt.Printf("Handshakes: %d co-signed\n", report.HandshakesCosigned)
			fmt.Printf("Forks:      %d\n", report.Forks)
			for _, e := range report.Errors {
				if e.Index >= 0 {
					fmt.Printf("  %s: %s at event %d\n", e.AgentID, e.Kind, e.Index)
				} else {
					fmt.Printf("  %s: %s\n", e.AgentID, e.Kind)
				}
			}
			if !report.Valid {
				return fmt.Errorf("verification failed: %d error(s)", len(report.Errors))
			}
			fmt.Println("OK: all chains intact")
			return nil
		},
	}
}
