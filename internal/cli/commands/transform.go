package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapdetail/internal/cli/output"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
	"github.com/spf13/cobra"
)

// TransformOptions holds options for the transform command.
type TransformOptions struct {
	Format   string
	Branches bool
}

type branchJSON struct {
	Table        string `json:"table"`
	Alias        string `json:"alias"`
	DetailSelect string `json:"detail_select"`
}

type transformJSON struct {
	SQL      string       `json:"sql"`
	Detail   string       `json:"detail_sql"`
	From     string       `json:"from_inner"`
	Branches []branchJSON `json:"branches,omitempty"`
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform [sql]",
		Short: "Rewrite one statement into detail SQL",
		Long: `Rewrite a single aggregate statement and print its detail SQL and FROM
clause. The statement is read from the arguments or, without arguments,
from standard input.`,
		Example: `  leapdetail transform "SELECT SUM(A.BALANCE) FROM TABLE_GL A GROUP BY A.ORG"
  echo "SELECT COUNT(*) FROM TABLE_ACCOUNT A" | leapdetail transform --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Output format (text|json); defaults to --output")
	cmd.Flags().BoolVar(&opts.Branches, "branches", false, "Also list the rewritten UNION branches")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTransform(cmd *cobra.Command, args []string, opts *TransformOptions) error {
	switch opts.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown format %q (expected text or json)", opts.Format)
	}

	sql := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read statement: %w", err)
		}
		sql = string(data)
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	res, failure := cmdCtx.Transformer.Explain(sql)
	if !res.OK() {
		return fmt.Errorf("cannot rewrite statement: %s (%s)", failure, failure.Class())
	}

	var branches []detail.Branch
	if opts.Branches {
		branches = cmdCtx.Transformer.Branches(sql)
	}

	mode := r.EffectiveMode()
	if opts.Format == "json" {
		mode = output.ModeJSON
	} else if opts.Format == "text" {
		mode = output.ModeText
	}

	switch mode {
	case output.ModeJSON:
		out := transformJSON{SQL: detail.Normalize(sql), Detail: res.DetailSQL, From: res.FromInner}
		for _, b := range branches {
			out.Branches = append(out.Branches, branchJSON{
				Table:        b.Table.Key,
				Alias:        b.Table.Alias,
				DetailSelect: b.DetailSelect,
			})
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		transformMarkdown(r, res, branches)
	default:
		transformText(r, res, branches)
	}
	return nil
}

func transformText(r *output.Renderer, res detail.Result, branches []detail.Branch) {
	styles := r.Styles()

	r.Println(styles.Header2.Render("Detail SQL"))
	r.Println(styles.SQL.Render(res.DetailSQL))
	r.Println("")
	r.Println(styles.Header2.Render("FROM inner"))
	r.Println(styles.SQL.Render(res.FromInner))

	if len(branches) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Branches"))
		for i, b := range branches {
			r.Printf("  %d. %s %s\n", i+1, styles.Path.Render(b.Table.Key), styles.Muted.Render(b.Table.Alias))
		}
	}
}

func transformMarkdown(r *output.Renderer, res detail.Result, branches []detail.Branch) {
	r.Println(output.FormatHeader(2, "Detail SQL"))
	r.Println("")
	r.Println("```sql")
	r.Println(res.DetailSQL)
	r.Println("```")
	r.Println("")
	r.Println(output.FormatHeader(2, "FROM inner"))
	r.Println("")
	r.Println("```sql")
	r.Println(res.FromInner)
	r.Println("```")

	if len(branches) > 0 {
		r.Println("")
		r.Println(output.FormatHeader(2, "Branches"))
		r.Println("")
		for i, b := range branches {
			r.Printf("%d. `%s` %s\n", i+1, b.Table.Key, b.Table.Alias)
		}
	}
}
