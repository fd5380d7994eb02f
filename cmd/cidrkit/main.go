// cidrkit applies network arithmetic - summarization, subnetting, uneven
// splits, supernetting - to a configured set of IPv4/IPv6 networks and
// exports the result as text, MMDB or Parquet.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cidrkit/cidrkit/internal/config"
	"github.com/cidrkit/cidrkit/internal/run"
)

const version = "0.1.0"

func main() {
	var (
		configPath string
		quiet      bool
		showHelp   bool
		showVer    bool
	)

	flag.StringVar(&configPath, "config", "", "Path to TOML configuration file")
	flag.BoolVar(&quiet, "quiet", false, "Suppress progress output")
	flag.BoolVar(&showHelp, "help", false, "Show usage information")
	flag.BoolVar(&showVer, "version", false, "Show version information")

	flag.Usage = usage
	flag.Parse()

	if showVer {
		fmt.Printf("cidrkit version %s\n", version)
		os.Exit(0)
	}

	if showHelp {
		usage()
		os.Exit(0)
	}

	// Get config path from positional argument if not specified with flag
	if configPath == "" {
		if flag.NArg() == 0 {
			fmt.Fprint(os.Stderr, "Error: config file path required\n\n")
			usage()
			os.Exit(1)
		}
		configPath = flag.Arg(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run.Run(cfg, os.Stdout, quiet); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `cidrkit - Network arithmetic over IPv4/IPv6 CIDR blocks

USAGE:
    cidrkit [OPTIONS] <config-file>
    cidrkit --config <config-file> [OPTIONS]

OPTIONS:
    --config <file>    Path to TOML configuration file
    --quiet            Suppress progress output
    --help             Show this help message
    --version          Show version information

EXAMPLES:
    # Summarize the configured networks to stdout
    cidrkit summarize.toml

    # Using explicit flag
    cidrkit --config split.toml

    # Suppress progress output
    cidrkit --config export.toml --quiet

CONFIGURATION:
    [input]     networks = ["172.16.10.0/24", ...]  or  mmdb = "nets.mmdb"
    [operation] kind = "summarize" | "split" | "subnet" | "supernet" | "info"
                count = <n>      (split)
                prefix = <len>   (subnet, supernet)
    [output]    format = "text" | "mmdb" | "parquet"
                path = "out"     (required for mmdb and parquet)

`)
}
