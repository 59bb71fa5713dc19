package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/access"
	"github.com/frahmantamala/employee-console/internal/audit"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/spf13/cobra"
)

var auditFlags struct {
	entityType string
	entityID   string
	userID     string
	action     string
	status     string
	startDate  string
	endDate    string
	limit      int
	skip       int
	asJSON     bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read audit logs",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Search audit logs, or one entity's history when --entity-type and --entity-id are set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, err := auditSession(ctx, env)
			if err != nil {
				return err
			}

			v := url.Values{}
			setFlag(v, "entity_type", auditFlags.entityType)
			setFlag(v, "entity_id", auditFlags.entityID)
			setFlag(v, "user_id", auditFlags.userID)
			setFlag(v, "status", auditFlags.status)
			setFlag(v, "startDate", auditFlags.startDate)
			setFlag(v, "endDate", auditFlags.endDate)
			if auditFlags.limit > 0 {
				v.Set("limit", strconv.Itoa(auditFlags.limit))
			}
			if auditFlags.skip > 0 {
				v.Set("skip", strconv.Itoa(auditFlags.skip))
			}

			var page *audit.Page
			if auditFlags.entityType != "" && auditFlags.entityID != "" {
				setFlag(v, "actions", auditFlags.action)
				q, err := audit.ParseQuery(v)
				if err != nil {
					return err
				}
				page, err = env.Services.Audit.EntityHistory(ctx, sess.UpstreamToken, auditFlags.entityType, auditFlags.entityID, q)
				if err != nil {
					return err
				}
			} else {
				setFlag(v, "action", auditFlags.action)
				q, err := audit.ParseQuery(v)
				if err != nil {
					return err
				}
				page, err = env.Services.Audit.Search(ctx, sess.UpstreamToken, q)
				if err != nil {
					return err
				}
			}

			if auditFlags.asJSON {
				return env.printJSON(page)
			}
			if err := printLogs(env, page.AuditLogs); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "\nPage %d of %d (%d logs)\n", page.Page, page.TotalPages, page.TotalCount)
			return nil
		})
	},
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent audit logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, err := auditSession(ctx, env)
			if err != nil {
				return err
			}
			logs, err := env.Services.Audit.Recent(ctx, sess.UpstreamToken, auditFlags.limit)
			if err != nil {
				return err
			}
			if auditFlags.asJSON {
				return env.printJSON(logs)
			}
			return printLogs(env, logs)
		})
	},
}

func auditSession(ctx context.Context, env *cliEnv) (*auth.Session, error) {
	sess, err := env.Session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.User.ParsedAccess().Can(access.CapViewAudit) {
		return nil, internal.ErrAccessDenied
	}
	return sess, nil
}

func printLogs(env *cliEnv, logs []audit.Log) error {
	tw := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tENTITY\tACTION\tSTATUS\tUSER\tCHANGES")
	for _, l := range logs {
		fields := make([]string, 0, len(l.Changes))
		for _, c := range l.Changes {
			fields = append(fields, c.Field)
		}
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%s\t%s\t%s\n",
			l.Timestamp, l.EntityType, l.EntityID, l.Action, l.Status, l.User.Name, strings.Join(fields, ","))
	}
	return tw.Flush()
}

func setFlag(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func init() {
	f := auditListCmd.Flags()
	f.StringVar(&auditFlags.entityType, "entity-type", "", "entity type, e.g. user")
	f.StringVar(&auditFlags.entityID, "entity-id", "", "entity id")
	f.StringVar(&auditFlags.userID, "user", "", "acting user id")
	f.StringVar(&auditFlags.action, "action", "", "CREATE, UPDATE or DELETE (comma separated for entity history)")
	f.StringVar(&auditFlags.status, "status", "", "SUCCESS or FAILED")
	f.StringVar(&auditFlags.startDate, "start", "", "start date, YYYY-MM-DD")
	f.StringVar(&auditFlags.endDate, "end", "", "end date, YYYY-MM-DD")
	f.IntVar(&auditFlags.skip, "skip", 0, "logs to skip")

	for _, c := range []*cobra.Command{auditListCmd, auditRecentCmd} {
		c.Flags().IntVar(&auditFlags.limit, "limit", 10, "logs per page")
		c.Flags().BoolVar(&auditFlags.asJSON, "json", false, "print JSON")
	}

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditRecentCmd)
	rootCmd.AddCommand(auditCmd)
}
