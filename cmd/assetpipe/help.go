package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: assetpipe <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Build bundles, assets and pages")
	fmt.Fprintln(w, "  validate    Check the configuration without building")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'assetpipe help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: assetpipe build [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build one bundle per entry, the assets they import and one HTML page")
	fmt.Fprintln(w, "per configured page. Nothing is written when any file fails.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (default: assetpipe)")
	fmt.Fprintln(w, "  -m, --mode <s>            Mode: development, production, none")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "      --public-path <url>   URL prefix of emitted files")
	fmt.Fprintln(w, "      --manifest[=<name>]   Write a manifest (default: manifest.json)")
	fmt.Fprintln(w, "      --clean               Empty the output directory first")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Entries:")
	fmt.Fprintln(w, "      --entry <name=path>   Entry to build; repeatable, replaces configured entries")
	fmt.Fprintln(w, "      --only <name>         Build only this entry; repeatable")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel entry builds (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show every module and asset")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ASSETPIPE_CONFIG, ASSETPIPE_MODE, ASSETPIPE_OUTPUT_DIR,")
	fmt.Fprintln(w, "  ASSETPIPE_PUBLIC_PATH, ASSETPIPE_WORKERS")
	fmt.Fprintln(w, "  Flags override the environment, which overrides the config file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 success, 1 general, 2 usage or config, 3 missing file or output, 4 transform")
}

// printValidateUsage prints usage for the validate command.
func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: assetpipe validate [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the configuration: modes, entries, rule conflicts, stage names,")
	fmt.Fprintln(w, "name patterns and page chunks. No source file is read.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (default: assetpipe)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             List entries and pages")
}

// runHelp prints help for a specific command. It reports false for an
// unknown command.
func runHelp(args []string, env *Environment) bool {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return true
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "validate":
		printValidateUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: assetpipe version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: assetpipe help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return false
	}
	return true
}
