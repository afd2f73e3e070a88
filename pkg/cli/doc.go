/*
Package cli provides command-line helpers shared by the perfscore commands.

Output Formatting:

Commands support text, JSON and (where the result is a table) CSV output:

	format, err := cli.ParseFormat(flags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

A result renders itself as text by implementing TextWriter, and as CSV by
implementing Tabular.

Errors and Exit Codes:

ConfigError marks configuration and usage problems (exit code 2);
CommandError wraps failures of a command that did run (exit code 1).
ExitCode maps any returned error to the process exit status.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
