package htlcctl

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"

	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/rpcclient"
)

func Get(rpcClient rpcclient.Client) *cobra.Command {
	var swapID uint64
	var cmd = &cobra.Command{
		Use:   "get",
		Short: "Show a swap record",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			swap, err := rpcClient.GetSwap(types.RequestGetSwap{SwapID: swapID})
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}

			asset := swap.Amount
			if swap.TokenAddress != "" {
				asset = fmt.Sprintf("%s of token %s (id %s)", swap.TokenAmount, swap.TokenAddress, swap.TokenID)
			}
			taker := swap.Taker
			if taker == "" {
				taker = "open"
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Swap ID", "Maker", "Taker", "Locked", "Deadline", "Status"})
			t.AppendRow(table.Row{
				swap.SwapID,
				swap.Maker,
				taker,
				asset,
				time.Unix(swap.Deadline, 0).UTC().Format(time.RFC3339),
				swap.Status,
			})
			t.Render()
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().Uint64Var(&swapID, "swap-id", 0, "swap to look up")
	cmd.MarkFlagRequired("swap-id")
	return cmd
}

func Status(rpcClient rpcclient.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "status",
		Short: "Show contract-wide counters",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			nextID, err := rpcClient.GetNextSwapID()
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fees, err := rpcClient.GetCollectedFees()
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			paused, err := rpcClient.IsPaused()
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Next Swap ID", "Collected Fees", "Paused"})
			t.AppendRow(table.Row{nextID, fees, paused})
			t.Render()
		},
		DisableAutoGenTag: true,
	}
	return cmd
}

func Balance(rpcClient rpcclient.Client) *cobra.Command {
	var account string
	var cmd = &cobra.Command{
		Use:   "balance",
		Short: "Show an account's native balance held by the escrow",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			resp, err := rpcClient.BalanceOf(types.RequestBalance{Account: account})
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Printf("%s: %s\n", resp.Account, resp.Balance)
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&account, "account", "", "account address to query")
	cmd.MarkFlagRequired("account")
	return cmd
}
