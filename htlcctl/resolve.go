package htlcctl

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/rpcclient"
)

func Claim(rpcClient rpcclient.Client) *cobra.Command {
	var (
		swapID uint64
		secret string
	)
	var cmd = &cobra.Command{
		Use:   "claim",
		Short: "Claim a swap by revealing its secret",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			resp, err := rpcClient.ClaimSwap(types.RequestClaim{
				SwapID: swapID,
				Secret: secret,
			})
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println(color.GreenString("swap %d claimed", resp.SwapID))
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().Uint64Var(&swapID, "swap-id", 0, "swap to claim")
	cmd.Flags().StringVar(&secret, "secret", "", "preimage of the swap's secret hash, hex encoded")
	cmd.MarkFlagRequired("swap-id")
	cmd.MarkFlagRequired("secret")
	return cmd
}

func Refund(rpcClient rpcclient.Client) *cobra.Command {
	var swapID uint64
	var cmd = &cobra.Command{
		Use:   "refund",
		Short: "Refund an expired swap back to its maker",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			resp, err := rpcClient.RefundSwap(types.RequestRefund{SwapID: swapID})
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println(color.GreenString("swap %d refunded", resp.SwapID))
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().Uint64Var(&swapID, "swap-id", 0, "swap to refund")
	cmd.MarkFlagRequired("swap-id")
	return cmd
}
