package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ajochain/rpc"
)

const (
	rpcURLEnv     = "AJO_RPC_URL"
	rpcTokenEnv   = "AJO_RPC_TOKEN"
	defaultRPCURL = "http://127.0.0.1:8080"
)

var (
	rpcEndpoint  = defaultRPCEndpoint()
	rpcAuthToken = os.Getenv(rpcTokenEnv)

	// rpcCall is swapped out in tests.
	rpcCall = callRPC
)

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:], stdout, stderr)
	case "address":
		return runAddress(args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdout, stderr)
	case "plan":
		return runPlanCommand(args[1:], stdout, stderr)
	case "admin":
		return runAdminCommand(args[1:], stdout, stderr)
	case "balance":
		return runBalance(args[1:], stdout, stderr)
	case "mint":
		return runMint(args[1:], stdout, stderr)
	case "audit":
		return runAuditCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.Join([]string{
		"Usage: ajo-cli [--rpc URL] <command> [flags]",
		"",
		"Commands:",
		"  keygen    create an encrypted keystore",
		"  address   print the account of a keystore",
		"  token     issue a bearer token for an account",
		"  plan      create, join, contribute to and inspect savings plans",
		"  admin     platform fee, collector and module pause controls",
		"  balance   show an account balance",
		"  mint      credit an account from the development faucet",
		"  audit     export the audit trail",
	}, "\n")
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv(rpcURLEnv)); v != "" {
		return v
	}
	return defaultRPCURL
}

// applyGlobalFlags strips --rpc and --token before the subcommand.
func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "--token":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--rpc" {
				rpcEndpoint = args[i+1]
			} else {
				rpcAuthToken = args[i+1]
			}
			i++
		case strings.HasPrefix(arg, "--rpc="):
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
		case strings.HasPrefix(arg, "--token="):
			rpcAuthToken = strings.TrimPrefix(arg, "--token=")
		default:
			out = append(out, args[i:]...)
			return out, nil
		}
	}
	return out, nil
}

func callRPC(method string, params interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return rpc.NewClient(rpcEndpoint, rpcAuthToken, nil).Call(ctx, method, params, out)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printError(stderr io.Writer, msg string) int {
	fmt.Fprintf(stderr, "Error: %s\n", msg)
	return 1
}

// printRPCError renders node failures with their stable code so scripts can
// branch on it.
func printRPCError(stderr io.Writer, err error) int {
	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) {
		fmt.Fprintf(stderr, "Error %d: %s\n", rpcErr.Code, rpcErr.Message)
		return 1
	}
	return printError(stderr, err.Error())
}

func printJSON(stdout io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stdout, "%v\n", v)
	}
	return 0
}

// callAndPrint performs method and pretty-prints the raw result.
func callAndPrint(method string, params interface{}, stdout, stderr io.Writer) int {
	var result json.RawMessage
	if err := rpcCall(method, params, &result); err != nil {
		return printRPCError(stderr, err)
	}
	return printJSON(stdout, result)
}
