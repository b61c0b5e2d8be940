package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "timestamp", "actor_user_id", "actor_email", "action", "target_type", "target_id", "details"}

// WriteCSV encodes entries with a header row.
func WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		var actorID, actorEmail string
		if e.ActorUserID != nil {
			actorID = strconv.FormatInt(*e.ActorUserID, 10)
		}
		if e.Actor != nil {
			actorEmail = e.Actor.Email
		}
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.UTC().Format(time.RFC3339),
			actorID,
			actorEmail,
			e.Action,
			e.TargetType,
			e.TargetID,
			string(e.Details),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
