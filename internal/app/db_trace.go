package app

import "strings"

// Traced statements are collapsed to single-line form and capped so a
// bulk insert does not blow up span payloads.
const tracedQueryCap = 512

func formatDBQueryForTrace(query string) string {
	flat := strings.Join(strings.Fields(query), " ")
	if len(flat) > tracedQueryCap {
		return flat[:tracedQueryCap] + "..."
	}
	return flat
}
