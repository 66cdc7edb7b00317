package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"activitynotifier/internal/models"
	"activitynotifier/internal/notify"

	"gopkg.in/yaml.v3"
)

// outputResult writes result to w in the requested format.
func outputResult(w io.Writer, result any, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	default:
		return outputTable(w, result)
	}
}

func outputJSON(w io.Writer, result any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}

func outputTable(out io.Writer, result any) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case *models.ActivityResult:
		return outputActivityTable(w, r)
	case *models.SimulateResponse:
		return outputSimulateTable(w, r)
	case *models.IdentityRateLimits:
		return outputStatusTable(w, r)
	case *models.ResetRateLimitsResponse:
		fmt.Fprintf(w, "%s\t%s\n", r.Identity, r.Message)
		return nil
	case *models.UserProfile:
		return outputProfileTable(w, r)
	case []*models.UserProfile:
		return outputUsersTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(out, result)
	}
}

func outputActivityTable(w *tabwriter.Writer, r *models.ActivityResult) error {
	fmt.Fprintf(w, "EVENT:\t%s\n", r.EventID)
	fmt.Fprintf(w, "SUCCESS:\t%t\n", r.Success)
	fmt.Fprintf(w, "LOGGED:\t%t\n", r.ActivityLogged)
	fmt.Fprintf(w, "NOTIFIED:\t%t\n", r.NotificationSent)
	fmt.Fprintf(w, "RATE LIMITED:\t%t\n", r.RateLimited)
	if r.Message != "" {
		fmt.Fprintf(w, "MESSAGE:\t%s\n", r.Message)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "ERROR:\t%s\n", r.Error)
	}

	if len(r.PerChannel) > 0 {
		fmt.Fprintln(w, "\nCHANNEL\tSTATUS\tDETAIL")
		for _, ch := range models.Channels {
			o, ok := r.PerChannel[ch]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ch, o.Status, outcomeDetail(o))
		}
	}

	return nil
}

func outcomeDetail(o models.DispatchOutcome) string {
	switch {
	case o.Error != "":
		return o.Error
	case o.ResetAt != nil:
		return "resets " + o.ResetAt.Local().Format(time.RFC3339)
	default:
		return ""
	}
}

func outputSimulateTable(w *tabwriter.Writer, r *models.SimulateResponse) error {
	fmt.Fprintf(w, "EVENTS:\t%d\n\n", r.Count)

	fmt.Fprintln(w, "IDENTITY\tKIND\tCHANNEL\tLOGGED\tNOTIFIED\tRATE LIMITED")
	for _, e := range r.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%t\n",
			notify.ShortIdentity(e.Identity), e.Kind, e.Channel,
			e.Result.ActivityLogged, e.Result.NotificationSent, e.Result.RateLimited)
	}

	return nil
}

func outputStatusTable(w *tabwriter.Writer, r *models.IdentityRateLimits) error {
	fmt.Fprintf(w, "IDENTITY:\t%s\n\n", r.Identity)

	fmt.Fprintln(w, "LIMITER\tCURRENT\tMAX\tREMAINING\tRESETS IN")
	rows := []struct {
		name   string
		status *models.RateLimitStatus
	}{
		{"activity", r.Activity},
		{string(models.ChannelEmail), r.Email},
		{string(models.ChannelSMS), r.SMS},
		{string(models.ChannelChat), r.Chat},
	}
	for _, row := range rows {
		if row.status == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", row.name)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", row.name,
			row.status.Current, row.status.Max, row.status.Remaining,
			row.status.TimeRemaining.Round(time.Second))
	}

	return nil
}

func outputProfileTable(w *tabwriter.Writer, p *models.UserProfile) error {
	fmt.Fprintf(w, "IDENTITY:\t%s\n", p.Identity)
	fmt.Fprintf(w, "EMAIL:\t%s\n", p.Email)
	fmt.Fprintf(w, "PHONE:\t%s\n\n", p.Phone)

	fmt.Fprintln(w, "ACTIVITY\tCHANNEL")
	for _, k := range models.ActivityKinds {
		fmt.Fprintf(w, "%s\t%s\n", k, p.PreferenceFor(k))
	}

	return nil
}

func outputUsersTable(w *tabwriter.Writer, profiles []*models.UserProfile) error {
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Identity < profiles[j].Identity })

	fmt.Fprintln(w, "IDENTITY\tEMAIL\tPHONE\tCREATED")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Identity, orDash(p.Email), orDash(p.Phone),
			p.CreatedAt.Local().Format(time.RFC3339))
	}

	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
