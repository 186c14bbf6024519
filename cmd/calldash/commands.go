package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/calldash/internal/backend"
	"github.com/kalambet/calldash/internal/config"
	"github.com/kalambet/calldash/internal/discovery"
	"github.com/kalambet/calldash/internal/storage"
)

// --- token ---

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign in to the backend and print the session token",
	Long: `Sign in to the backend and print the session token.

The token can be used as CALLDASH_BACKEND_TOKEN for the MCP tools and the
lookup commands. The password is read from --password, then
CALLDASH_PASSWORD, then the first line of stdin.

Examples:
  calldash token --email admin@consultadd.com
  echo "$PASSWORD" | calldash token --email admin@consultadd.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			password = os.Getenv("CALLDASH_PASSWORD")
		}
		if password == "" {
			line, err := readLine(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = line
		}
		if password == "" {
			return fmt.Errorf("a password is required")
		}

		gw, _, err := newGateway()
		if err != nil {
			return err
		}
		res, err := gw.Login(cmd.Context(), backend.Credentials{Email: email, Password: password})
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Token)
		return nil
	},
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	tokenCmd.Flags().String("email", "", "account email")
	tokenCmd.Flags().String("password", "", "account password")
}

// --- lookups ---

// lookupGateway returns the backend client and refuses to run without a
// service token.
func lookupGateway() (*backend.Client, string, error) {
	gw, token, err := newGateway()
	if err != nil {
		return nil, "", err
	}
	if token == "" {
		return nil, "", fmt.Errorf("no backend token configured; set CALLDASH_BACKEND_TOKEN (see `calldash token`)")
	}
	return gw, token, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var industriesCmd = &cobra.Command{
	Use:   "industries",
	Short: "List industries",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, token, err := lookupGateway()
		if err != nil {
			return err
		}
		industries, err := gw.Industries(cmd.Context(), token)
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(out, industries)
		}
		if len(industries) == 0 {
			fmt.Fprintln(out, "No industries found.")
			return nil
		}
		for _, ind := range industries {
			fmt.Fprintf(out, "%-24s %s\n", colorize(colorCyan, ind.IndustryCode), ind.Name)
		}
		return nil
	},
}

var companiesCmd = &cobra.Command{
	Use:   "companies <industry>",
	Short: "List the companies in an industry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, token, err := lookupGateway()
		if err != nil {
			return err
		}
		companies, err := gw.CompaniesByIndustry(cmd.Context(), token, args[0])
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(out, companies)
		}
		if len(companies) == 0 {
			fmt.Fprintln(out, "No companies found.")
			return nil
		}
		for _, c := range companies {
			sub := c.SubIndustry
			if sub == "" {
				sub = "-"
			}
			fmt.Fprintf(out, "%s  %-32s %s\n", colorize(colorCyan, c.ID.String()), c.CompanyName, sub)
		}
		return nil
	},
}

var callsCmd = &cobra.Command{
	Use:   "calls [company-id]",
	Short: "List discovery calls",
	Long: `List discovery calls: every call, the calls with one company, or with
--industry the calls of one industry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, token, err := lookupGateway()
		if err != nil {
			return err
		}
		industry, _ := cmd.Flags().GetString("industry")

		var calls []discovery.Call
		switch {
		case len(args) == 1:
			calls, err = gw.CallsByCompany(cmd.Context(), token, args[0])
		case industry != "":
			calls, err = gw.CallsByIndustry(cmd.Context(), token, industry)
		default:
			calls, err = gw.Calls(cmd.Context(), token)
		}
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(out, calls)
		}
		if len(calls) == 0 {
			fmt.Fprintln(out, "No calls found.")
			return nil
		}
		for _, c := range calls {
			writeCallLine(out, c)
		}
		return nil
	},
}

var callCmd = &cobra.Command{
	Use:   "call <id>",
	Short: "Show one discovery call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, token, err := lookupGateway()
		if err != nil {
			return err
		}
		call, err := gw.GetCall(cmd.Context(), token, args[0])
		if err != nil {
			return errors.New(backend.UserMessage(err))
		}
		if call == nil {
			return fmt.Errorf("call %s not found", args[0])
		}
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(out, call)
		}
		writeCallDetail(out, *call)
		return nil
	},
}

func writeCallDetail(w io.Writer, c discovery.Call) {
	fmt.Fprintf(w, "%s  %s\n", colorize(colorBold, c.CompanyName), c.CreatedAt.Date())
	if c.Stage != "" {
		fmt.Fprintf(w, "Stage: %s\n", colorize(stageColor(c.Stage), c.Stage))
	}
	if c.CallSummary != "" {
		fmt.Fprintf(w, "\n%s\n", c.CallSummary)
	}
	if len(c.ClientProblems) > 0 {
		fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Problems"))
		for _, p := range c.ClientProblems {
			mark := " "
			if p.Immediate() {
				mark = colorize(colorRed, "!")
			}
			fmt.Fprintf(w, " %s %s\n", mark, p.ProblemStatement)
		}
	}
	if len(c.SummaryRows) > 0 {
		fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Reactions"))
		for _, row := range c.SummaryRows {
			fmt.Fprintf(w, "  %s: %s\n", row.Problem, discovery.Reaction(row))
		}
	}
	if len(c.KeyTakeaways) > 0 {
		fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Key takeaways"))
		for _, t := range c.KeyTakeaways {
			fmt.Fprintf(w, "  - %s\n", t)
		}
	}
}

func init() {
	for _, c := range []*cobra.Command{industriesCmd, companiesCmd, callsCmd, callCmd} {
		c.Flags().Bool("json", false, "print raw JSON")
	}
	callsCmd.Flags().String("industry", "", "list the calls of this industry instead")
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect or purge stored session values",
}

var dataShowCmd = &cobra.Command{
	Use:   "show <namespace>",
	Short: "Show the values stored for one browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.Items(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No values stored.")
			return nil
		}
		for _, it := range items {
			fmt.Fprintf(out, "%s  %s = %s\n",
				it.UpdatedAt.Format(time.RFC3339),
				colorize(colorBold, it.Key),
				it.Value,
			)
		}
		return nil
	},
}

var dataPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stored session values",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if !confirm {
			printWarning("This deletes stored session values. Use --confirm to proceed.")
			return nil
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		printStep("Purging values older than %s...", olderThan)
		n, err := store.PurgeBefore(cmd.Context(), time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		printSuccess("Purged %d values", n)
		return nil
	},
}

func openStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Session.Storage != config.StorageSQLite {
		return nil, fmt.Errorf("session.storage is %q; nothing is persisted", cfg.Session.Storage)
	}
	return storage.Open(cfg.Storage.DataDir)
}

func init() {
	dataPurgeCmd.Flags().Bool("confirm", false, "confirm the purge")
	dataPurgeCmd.Flags().Duration("older-than", 0, "only purge values not written for this long")
	dataCmd.AddCommand(dataShowCmd)
	dataCmd.AddCommand(dataPurgeCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		fmt.Fprintf(out, "\n  file: %s\n", config.ConfigFilePath())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value in the config file. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
