package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-guard/guard"
	"github.com/nsxbet/sql-guard/internal/sqlparse"
	"github.com/nsxbet/sql-guard/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <sql-file>",
	Short: "Validate a SQL statement against the safety rule catalogue",
	Long: `Check reads a single SQL statement from a file (or stdin with "-") and
validates it against the configured rule catalogue, reporting every
violation found and its resolved strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("dialect", "d", "mysql", "SQL dialect (mysql, postgres)")
	checkCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	checkCmd.Flags().StringP("policy", "p", "", "path to guard configuration file")
	checkCmd.Flags().Bool("fail-on-block", true, "exit with non-zero code when the resolved strategy is BLOCK")
	checkCmd.Flags().Bool("strict-parse", false, "fail with position info on the first parse error instead of validating what the lenient parser could recover")

	_ = viper.BindPFlag("dialect", checkCmd.Flags().Lookup("dialect"))
	_ = viper.BindPFlag("output", checkCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("policy", checkCmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("fail-on-block", checkCmd.Flags().Lookup("fail-on-block"))
	_ = viper.BindPFlag("strict-parse", checkCmd.Flags().Lookup("strict-parse"))
}

func runCheck(cmd *cobra.Command, args []string) error {
	dialect, err := sqlparse.ParseDialect(viper.GetString("dialect"))
	if err != nil {
		return err
	}

	sqlFile := args[0]
	var sqlBytes []byte
	if sqlFile == "-" {
		sqlBytes, err = io.ReadAll(os.Stdin)
	} else {
		sqlBytes, err = os.ReadFile(sqlFile)
	}
	if err != nil {
		return errors.Wrapf(err, "read SQL input %s", sqlFile)
	}

	if viper.GetBool("strict-parse") {
		if _, err := sqlparse.Parse(dialect, string(sqlBytes), sqlparse.Strict); err != nil {
			var syn *sqlparse.SyntaxError
			if errors.As(err, &syn) {
				return errors.Wrapf(syn, "strict parse of %s", sqlFile)
			}
			return errors.Wrapf(err, "strict parse of %s", sqlFile)
		}
	}

	cfg, err := loadGuardConfig()
	if err != nil {
		return err
	}

	validator, err := guard.NewValidator(cfg)
	if err != nil {
		return errors.Wrap(err, "build validator")
	}
	defer validator.Close()

	sctx, err := guard.NewSqlContext(string(sqlBytes), dialect, guard.WithStatementID(sqlFile))
	if err != nil {
		return err
	}

	result, err := validator.Validate(context.Background(), sctx)
	if err != nil {
		return errors.Wrap(err, "validate statement")
	}

	if err := outputResult(result, viper.GetString("output")); err != nil {
		return err
	}

	if result.Strategy() == guard.Block && viper.GetBool("fail-on-block") {
		os.Exit(1)
	}
	return nil
}

func loadGuardConfig() (*guard.Config, error) {
	policyPath := viper.GetString("policy")
	if policyPath == "" {
		return guard.DefaultConfig(), nil
	}
	cfg, err := guard.LoadFromFile(policyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load policy file %s", policyPath)
	}
	return cfg, nil
}

func outputResult(result guard.ValidationResult, format string) error {
	switch format {
	case "json":
		return outputJSON(result)
	case "yaml":
		return outputYAML(result)
	case "text":
		return outputText(result)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func outputJSON(result guard.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(result guard.ValidationResult) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(result)
}

func outputText(result guard.ValidationResult) error {
	if result.Passed() {
		fmt.Println("No issues found.")
		return nil
	}

	for _, v := range result.Violations {
		fmt.Printf("[%s] %s: %s (strategy=%s)\n", v.Risk, v.Rule, v.Message, v.Strategy)
	}

	fmt.Println()
	fmt.Printf("Overall risk: %s, strategy: %s, %d violation(s)\n",
		result.RiskLevel(), result.Strategy(), len(result.Violations))

	if result.Strategy() == guard.Block {
		slog.Warn("statement blocked", logger.StatementID(result.StatementID))
	}
	return nil
}
