package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a grade report",
	Long:  "Students get their PDF report. Teachers get the CSV gradebook of the student given with --student.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		username, password := credentials(cmd)
		sess, err := signIn(ctx, a, username, password)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}

		var doc models.Document
		switch sess.User.Role {
		case models.RoleStudent:
			doc, err = a.Student.ExportPDF(ctx, sess)
		default:
			studentID, _ := cmd.Flags().GetInt64("student")
			if studentID <= 0 {
				return fmt.Errorf("--student is required for teacher exports")
			}
			doc, err = a.Teacher.ExportCSV(ctx, sess, studentID)
		}
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = doc.Filename
		}
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(doc.Body))
		return nil
	},
}

func init() {
	credentialFlags(exportCmd)
	exportCmd.Flags().StringP("out", "o", "", "Output file (defaults to the report's own name)")
	exportCmd.Flags().Int64("student", 0, "Teacher only: student to export")
}
