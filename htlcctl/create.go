package htlcctl

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/rpcclient"
)

func Create(rpcClient rpcclient.Client) *cobra.Command {
	var (
		taker        string
		secretHash   string
		timelock     uint64
		amount       string
		tokenAddress string
		tokenID      string
		tokenAmount  string
	)
	var cmd = &cobra.Command{
		Use:   "create",
		Short: "Lock funds in a new hash time-locked swap",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			resp, err := rpcClient.CreateSwap(types.RequestCreate{
				Taker:         taker,
				SecretHash:    secretHash,
				TimelockHours: timelock,
				Amount:        amount,
				TokenAddress:  tokenAddress,
				TokenID:       tokenID,
				TokenAmount:   tokenAmount,
			})
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println(color.GreenString("swap created with id %d", resp.SwapID))
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&taker, "taker", "", "address allowed to claim (default: anyone with the secret)")
	cmd.Flags().StringVar(&secretHash, "secret-hash", "", "sha256 hash of the secret, hex encoded")
	cmd.Flags().Uint64Var(&timelock, "timelock", 0, "refund timelock in hours (1 to 168)")
	cmd.Flags().StringVar(&amount, "amount", "", "native amount to lock")
	cmd.Flags().StringVar(&tokenAddress, "token-address", "", "token contract for a token swap")
	cmd.Flags().StringVar(&tokenID, "token-id", "", "token id for a token swap")
	cmd.Flags().StringVar(&tokenAmount, "token-amount", "", "token amount for a token swap")
	cmd.MarkFlagRequired("secret-hash")
	cmd.MarkFlagRequired("timelock")
	return cmd
}
