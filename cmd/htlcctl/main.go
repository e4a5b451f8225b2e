package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/swaplock/htlcd/htlcctl"
	"github.com/swaplock/htlcd/rpcclient"
	"github.com/swaplock/htlcd/utils"
)

func main() {
	envConfig, err := utils.LoadConfig(utils.DefaultConfigPath())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	endpoint := os.Getenv("HTLCD_URL")
	if endpoint == "" {
		endpoint = "http://localhost:8299"
	}

	var account uint64
	if v := os.Getenv("HTLCD_ACCOUNT"); v != "" {
		account, err = strconv.ParseUint(v, 10, 32)
		if err != nil {
			fmt.Println("invalid HTLCD_ACCOUNT:", err)
			os.Exit(1)
		}
	}

	keys, err := utils.NewKeys(envConfig.Mnemonic)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	key, err := keys.GetKey(uint32(account), 0)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	ecdsaKey, err := key.ECDSA()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	rpcClient := rpcclient.NewClient(ecdsaKey, endpoint)

	var rootCmd = &cobra.Command{
		Use:   "htlcctl",
		Short: "Command line client for the escrow daemon",
	}
	rootCmd.AddCommand(htlcctl.Create(rpcClient))
	rootCmd.AddCommand(htlcctl.Claim(rpcClient))
	rootCmd.AddCommand(htlcctl.Refund(rpcClient))
	rootCmd.AddCommand(htlcctl.Get(rpcClient))
	rootCmd.AddCommand(htlcctl.Status(rpcClient))
	rootCmd.AddCommand(htlcctl.Balance(rpcClient))
	rootCmd.AddCommand(htlcctl.SetAdmin(rpcClient))
	rootCmd.AddCommand(htlcctl.SetFee(rpcClient))
	rootCmd.AddCommand(htlcctl.Pause(rpcClient))
	rootCmd.AddCommand(htlcctl.Unpause(rpcClient))
	rootCmd.AddCommand(htlcctl.WithdrawFees(rpcClient))
	rootCmd.AddCommand(htlcctl.Deposit(rpcClient))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
