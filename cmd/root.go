package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/cmd/kv"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "keyz",
		Short: "client for the keyz key-value store",
		Long: fmt.Sprintf(`keyz (v%s)

A client for the keyz key-value store. It talks to a keyz server over a
single tcp connection using a length-prefixed text protocol.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of keyz",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("keyz v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree and closes the client connection afterwards,
// whether the command succeeded or not
func run() error {
	err := RootCmd.Execute()
	if closeErr := kv.CloseClient(context.Background()); closeErr != nil {
		RootCmd.PrintErrln("Error:", closeErr)
		err = errors.Join(err, closeErr)
	}
	return err
}
