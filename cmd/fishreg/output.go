package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ersonp/fishreg/internal/domain/entities"
)

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatContacts(w io.Writer, format string, contacts []*entities.Contact) error {
	switch format {
	case "json":
		if contacts == nil {
			contacts = []*entities.Contact{}
		}
		return writeJSON(w, contacts)
	case "csv":
		return formatContactsCSV(w, contacts)
	case "table":
		return formatContactsTable(w, contacts)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatContactsCSV(w io.Writer, contacts []*entities.Contact) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "full_name", "email", "phone", "city", "state", "organization_id", "sector", "total_comments", "total_meetings"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, c := range contacts {
		row := []string{
			c.ID,
			c.FullName,
			c.Email,
			c.Phone,
			c.City,
			c.State,
			c.OrganizationID,
			c.Sector,
			strconv.Itoa(c.TotalComments),
			strconv.Itoa(c.TotalMeetings),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatContactsTable(w io.Writer, contacts []*entities.Contact) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATE\tCOMMENTS\tMEETINGS")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			c.ID, c.DisplayName(), orDash(c.Email), orDash(c.State), c.TotalComments, c.TotalMeetings)
	}
	return tw.Flush()
}

func formatClusters(w io.Writer, clusters []entities.DuplicateCluster) {
	if len(clusters) == 0 {
		fmt.Fprintln(w, "No duplicate clusters found.")
		return
	}

	for i, cluster := range clusters {
		p := cluster.Primary
		fmt.Fprintf(w, "Cluster %d: %s %s", i+1, p.ID, p.DisplayName())
		if p.Email != "" {
			fmt.Fprintf(w, " <%s>", p.Email)
		}
		fmt.Fprintln(w)
		for _, dup := range cluster.Duplicates {
			fmt.Fprintf(w, "  %.2f  %s %s  (%s)\n",
				dup.Score, dup.Contact.ID, dup.Contact.DisplayName(), strings.Join(dup.Reasons, "; "))
		}
	}
}

func formatStatistics(w io.Writer, stats *entities.DuplicateStatistics) {
	fmt.Fprintf(w, "Total contacts:               %s\n", humanize.Comma(int64(stats.TotalContacts)))
	fmt.Fprintf(w, "Shared-email groups:          %s\n", humanize.Comma(int64(stats.ExactEmailDuplicateGroups)))
	fmt.Fprintf(w, "Shared name+state groups:     %s\n", humanize.Comma(int64(stats.NameStateDuplicateGroups)))
	fmt.Fprintf(w, "Estimated duplicate contacts: %s\n", humanize.Comma(int64(stats.EstimatedDuplicateCount)))
}

func formatContactDetail(w io.Writer, c *entities.Contact, comments []entities.Comment, history []entities.AuditEntry, now time.Time) {
	fmt.Fprintf(w, "%s  %s\n", c.ID, c.DisplayName())
	fmt.Fprintf(w, "  Email:      %s\n", orDash(c.Email))
	fmt.Fprintf(w, "  Phone:      %s\n", orDash(c.Phone))
	fmt.Fprintf(w, "  Location:   %s\n", orDash(strings.Trim(c.City+", "+c.State, ", ")))
	fmt.Fprintf(w, "  Sector:     %s\n", orDash(c.Sector))
	fmt.Fprintf(w, "  Comments:   %d\n", c.TotalComments)
	fmt.Fprintf(w, "  Meetings:   %d\n", c.TotalMeetings)
	if c.LastEngagement != nil {
		fmt.Fprintf(w, "  Last seen:  %s\n", humanize.RelTime(*c.LastEngagement, now, "ago", "from now"))
	}
	fmt.Fprintf(w, "  Created:    %s\n", humanize.RelTime(c.CreatedAt, now, "ago", "from now"))

	if len(comments) > 0 {
		fmt.Fprintf(w, "\nComments (%d):\n", len(comments))
		for _, cm := range comments {
			fmt.Fprintf(w, "  %s  %s  %s\n", cm.SubmittedAt.Format("2006-01-02"), cm.ID, orDash(cm.ActionID))
		}
	}
	if len(history) > 0 {
		fmt.Fprintf(w, "\nHistory:\n")
		for _, h := range history {
			fmt.Fprintf(w, "  %s  %s\n", h.CreatedAt.Format(time.RFC3339), h.Action)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
