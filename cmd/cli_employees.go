package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/access"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/spf13/cobra"
)

var directoryFlags struct {
	search     string
	department string
	branch     string
	access     string
	sort       string
	desc       bool
	page       int
	preset     string
	clear      bool
	out        string
}

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Browse the employee directory",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of the directory",
	Long:  `Prints the directory with the remembered filters, sort and columns; flags change them for this and later runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, store, state, err := openDirectory(ctx, env, cmd)
			if err != nil {
				return err
			}

			view, err := env.Services.Employees.View(ctx, sess.UpstreamToken, state)
			if err != nil {
				return err
			}
			if err := session.Set(ctx, store, employee.ViewStateKey, state); err != nil {
				env.Logger.Warn("failed to remember directory view", "error", err)
			}
			return printView(env, view)
		})
	},
}

var employeesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered directory to an XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, _, state, err := openDirectory(ctx, env, cmd)
			if err != nil {
				return err
			}
			if !sess.User.ParsedAccess().Can(access.CapExportDirectory) {
				return internal.ErrAccessDenied
			}

			f, err := os.Create(directoryFlags.out)
			if err != nil {
				return err
			}
			if err := env.Services.Employees.Export(ctx, sess.UpstreamToken, state, f); err != nil {
				_ = f.Close()
				_ = os.Remove(directoryFlags.out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Exported to %s\n", directoryFlags.out)
			return nil
		})
	},
}

// openDirectory checks the directory gate and returns the user's view state with
// the command flags applied.
func openDirectory(ctx context.Context, env *cliEnv, cmd *cobra.Command) (*auth.Session, *session.Store, employee.ViewState, error) {
	sess, err := env.Session(ctx)
	if err != nil {
		return nil, nil, employee.ViewState{}, err
	}
	if !sess.Allow(access.DirectoryTokens...) {
		return nil, nil, employee.ViewState{}, internal.ErrAccessDenied
	}

	store, err := env.Services.States.Open(ctx, sess.User.ID)
	if err != nil {
		return nil, nil, employee.ViewState{}, err
	}
	state, err := employee.ApplyQuery(session.Get(store, employee.ViewStateKey), directoryQuery(cmd))
	if err != nil {
		return nil, nil, employee.ViewState{}, err
	}
	return sess, store, state, nil
}

// directoryQuery turns the flags the user actually set into the query the HTTP handler takes.
func directoryQuery(cmd *cobra.Command) url.Values {
	q := url.Values{}
	flags := cmd.Flags()
	if flags.Changed("search") {
		q.Set("search", directoryFlags.search)
	}
	if flags.Changed("department") {
		q.Set("department", directoryFlags.department)
	}
	if flags.Changed("branch") {
		q.Set("branch", directoryFlags.branch)
	}
	if flags.Changed("access") {
		q.Set("access", directoryFlags.access)
	}
	if directoryFlags.clear {
		q.Set("clear", "true")
	}
	if directoryFlags.sort != "" {
		q.Set("sort", directoryFlags.sort)
		if directoryFlags.desc {
			q.Set("direction", string(employee.Descending))
		}
	}
	if directoryFlags.preset != "" {
		q.Set("preset", directoryFlags.preset)
	}
	if flags.Changed("page") {
		q.Set("page", strconv.Itoa(directoryFlags.page))
	}
	return q
}

func printView(env *cliEnv, view *employee.View) error {
	tw := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)

	headers := make([]string, 0, len(view.Columns))
	for _, c := range view.Columns {
		headers = append(headers, strings.ToUpper(c.Label))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	if view.EmptyMessage != "" {
		fmt.Fprintln(tw, view.EmptyMessage)
	}
	for _, u := range view.Rows {
		cells := make([]string, 0, len(view.Columns))
		for _, c := range view.Columns {
			cells = append(cells, employee.Cell(u, c.ID))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "\nPage %d of %d (%d employees), sorted by %s %s\n",
		view.Page.Page, view.TotalPages, view.TotalRows, view.Sort.Field, view.Sort.Direction)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{employeesListCmd, employeesExportCmd} {
		f := c.Flags()
		f.StringVar(&directoryFlags.search, "search", "", "name contains")
		f.StringVar(&directoryFlags.department, "department", "", "department equals")
		f.StringVar(&directoryFlags.branch, "branch", "", "branch equals")
		f.StringVar(&directoryFlags.access, "access", "", "access equals, or access group")
		f.StringVar(&directoryFlags.sort, "sort", "", "sort column")
		f.BoolVar(&directoryFlags.desc, "desc", false, "sort descending")
		f.StringVar(&directoryFlags.preset, "preset", "", "column preset: default, personal, employment, travel")
		f.BoolVar(&directoryFlags.clear, "clear", false, "clear all filters")
	}
	employeesListCmd.Flags().IntVar(&directoryFlags.page, "page", 1, "page number")
	employeesExportCmd.Flags().StringVarP(&directoryFlags.out, "out", "o", "employees.xlsx", "output file")

	employeesCmd.AddCommand(employeesListCmd)
	employeesCmd.AddCommand(employeesExportCmd)
	rootCmd.AddCommand(employeesCmd)
}
