// Command shopledger-cli exports dashboards to files and announces sheet
// changes to running servers.
//
//	shopledger-cli export -view summary|ledger|transactions [-format csv|xlsx] [filters] [-o file]
//	shopledger-cli notify -spreadsheet <id> [-sheet <name>]
//	shopledger-cli notify -url <opensheet url>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"shopledger/internal/cli"
	"shopledger/internal/config"
	applog "shopledger/internal/log"
)

func main() {
	cli.LoadEnvFile()
	ctx := context.Background()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

const usageText = `usage:
  shopledger-cli export -view summary|ledger|transactions [-format csv|xlsx]
                        [-shop name] [-leader name] [-wallet w] [-type t]
                        [-date d] [-search text] [-o file|-]
  shopledger-cli notify -spreadsheet id [-sheet name]
  shopledger-cli notify -url sheet-url
`

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, stderr, applog.ComponentCLI)

	var err error
	switch args[0] {
	case "export":
		err = runExport(ctx, cfg, logger, args[1:], stdout, stderr)
	case "notify":
		err = runNotify(ctx, cfg, logger, args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usageText)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	default:
		logger.Error("Command failed", "command", args[0], applog.FieldError, err.Error())
		return 1
	}
}

// errUsage marks errors caused by bad flags rather than failed work.
var errUsage = errors.New("usage error")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
