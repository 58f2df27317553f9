package kv

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/spf13/cobra"
	"strings"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Long:  "Sets the value for a key. With --ex the key expires after the given number of seconds.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			expireIn, err := cmd.Flags().GetUint64("ex")
			if err != nil {
				return err
			}

			var resp string
			if expireIn > 0 {
				resp, err = kvClient.SetEx(cmd.Context(), key, value, expireIn)
			} else {
				resp, err = kvClient.Set(cmd.Context(), key, value)
			}
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, err := kvClient.Get(cmd.Context(), key)
			if errors.Is(err, common.ErrGetFailed) {
				fmt.Printf("key=%s, found=false\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=true, resp=%s\n", key, resp)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, err := kvClient.Delete(cmd.Context(), key); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
	exinCmd = &cobra.Command{
		Use:   "exin [key]",
		Short: "Prints the seconds until a key expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			seconds, err := kvClient.ExpiresIn(cmd.Context(), key)
			if errors.Is(err, common.ErrExpiresInFailed) {
				fmt.Printf("key=%s does not expire\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, expiresIn=%ds\n", key, seconds)
			return nil
		},
	}
	sendCmd = &cobra.Command{
		Use:   "send [command...]",
		Short: "Sends a raw command and prints the response",
		Long: `Sends a raw command and prints the response, e.g. keyz kv send GET test.
The arguments are joined with single spaces, nothing is validated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if message == common.CmdClose {
				return fmt.Errorf("use of %s is not allowed, the connection is closed when the command finishes", common.CmdClose)
			}
			resp, err := kvClient.SendMessage(cmd.Context(), message)
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Uint64("ex", 0, "Expire the key after the given number of seconds (0 = never)")
}
