package sweep

// Skip records why one candidate was passed over.
type Skip struct {
	TicketID string
	Reason   string
}

// Report is the outcome of one sweep run. ConfigSkipped marks the
// degraded-but-safe mode where the sweep examined nothing because its
// configuration was absent or invalid.
type Report struct {
	Examined      int
	Applied       int
	Skips         []Skip
	ConfigSkipped bool
	ConfigWarning string
}

func (r *Report) skip(ticketID, reason string) {
	r.Skips = append(r.Skips, Skip{TicketID: ticketID, Reason: reason})
}

func skippedConfig(warning string) Report {
	return Report{ConfigSkipped: true, ConfigWarning: warning}
}
