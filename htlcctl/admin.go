package htlcctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/rpcclient"
)

func SetAdmin(rpcClient rpcclient.Client) *cobra.Command {
	var admin string
	var cmd = &cobra.Command{
		Use:   "set-admin",
		Short: "Hand the admin role to another address",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			if err := rpcClient.SetAdmin(types.RequestSetAdmin{Admin: admin}); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println("admin updated to", admin)
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&admin, "admin", "", "new admin address")
	cmd.MarkFlagRequired("admin")
	return cmd
}

func SetFee(rpcClient rpcclient.Client) *cobra.Command {
	var feeBps uint64
	var cmd = &cobra.Command{
		Use:   "set-fee",
		Short: "Set the fee charged on native swaps, in basis points",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			if err := rpcClient.SetFeePercentage(types.RequestSetFee{FeeBps: feeBps}); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println("fee updated to", feeBps, "bps")
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().Uint64Var(&feeBps, "fee-bps", 0, "fee in basis points (max 500)")
	cmd.MarkFlagRequired("fee-bps")
	return cmd
}

func Pause(rpcClient rpcclient.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "pause",
		Short: "Stop new swaps and claims",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			if err := rpcClient.Pause(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println("contract paused")
		},
		DisableAutoGenTag: true,
	}
	return cmd
}

func Unpause(rpcClient rpcclient.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "unpause",
		Short: "Resume swaps and claims",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			if err := rpcClient.Unpause(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Println("contract unpaused")
		},
		DisableAutoGenTag: true,
	}
	return cmd
}

func WithdrawFees(rpcClient rpcclient.Client) *cobra.Command {
	var recipient string
	var cmd = &cobra.Command{
		Use:   "withdraw-fees",
		Short: "Move collected fees to a recipient",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			resp, err := rpcClient.WithdrawFees(types.RequestWithdrawFees{Recipient: recipient})
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Printf("withdrew %s to %s\n", resp.Amount, recipient)
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&recipient, "recipient", "", "address that receives the fees")
	cmd.MarkFlagRequired("recipient")
	return cmd
}

func Deposit(rpcClient rpcclient.Client) *cobra.Command {
	var (
		account string
		amount  string
	)
	var cmd = &cobra.Command{
		Use:   "deposit",
		Short: "Credit an account's native balance",
		Run: func(c *cobra.Command, args []string) {
			if err := rpcClient.Login(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to login: %w", err))
			}
			if err := rpcClient.Deposit(types.RequestDeposit{Account: account, Amount: amount}); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to send request: %w", err))
			}
			fmt.Printf("credited %s to %s\n", amount, account)
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&account, "account", "", "account address to credit")
	cmd.Flags().StringVar(&amount, "amount", "", "native amount to credit")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("amount")
	return cmd
}
