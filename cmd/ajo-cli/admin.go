package main

import (
	"fmt"
	"io"
	"strings"
)

func runAdminCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, adminUsage())
		return 1
	}
	switch args[0] {
	case "config":
		return callAndPrint("savings_platformConfig", map[string]string{}, stdout, stderr)
	case "fee":
		fs := newFlagSet("admin fee", stderr)
		bps := fs.Int("bps", -1, "platform fee in basis points (max 1000)")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		if *bps < 0 {
			return printError(stderr, "--bps is required")
		}
		return callAndPrint("savings_setPlatformFee", map[string]int{"feeBps": *bps}, stdout, stderr)
	case "collector":
		fs := newFlagSet("admin collector", stderr)
		address := fs.String("address", "", "bech32 account receiving payout fees")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		if strings.TrimSpace(*address) == "" {
			return printError(stderr, "--address is required")
		}
		return callAndPrint("savings_setFeeCollector", map[string]string{"collector": strings.TrimSpace(*address)}, stdout, stderr)
	case "pause":
		return callAndPrint("savings_pauseModule", map[string]string{}, stdout, stderr)
	case "resume":
		return callAndPrint("savings_resumeModule", map[string]string{}, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown admin subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, adminUsage())
		return 1
	}
}

func adminUsage() string {
	return "Usage: ajo-cli admin <config|fee|collector|pause|resume> [flags]"
}

func runBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("balance", stderr)
	address := fs.String("address", "", "bech32 account")
	asset := fs.String("asset", "NGN", "asset symbol")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*address) == "" {
		return printError(stderr, "--address is required")
	}
	return callAndPrint("bank_balance", map[string]string{"address": strings.TrimSpace(*address), "asset": *asset}, stdout, stderr)
}

func runMint(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("mint", stderr)
	to := fs.String("to", "", "bech32 account to credit")
	asset := fs.String("asset", "NGN", "asset symbol")
	amount := fs.String("amount", "", "amount in base units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*to) == "" || strings.TrimSpace(*amount) == "" {
		return printError(stderr, "--to and --amount are required")
	}
	return callAndPrint("bank_mint", map[string]string{
		"to":     strings.TrimSpace(*to),
		"asset":  *asset,
		"amount": strings.TrimSpace(*amount),
	}, stdout, stderr)
}
