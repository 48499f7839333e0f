package store

import "fmt"

// ChartPoint is one bucket of a time-series chart.
type ChartPoint struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// bucketFormatFor maps a requested period to a strftime format and a
// lookback window, matching the four periods spec.md §6 names.
func bucketFormatFor(period string) (format string, sinceExpr string, ok bool) {
	switch period {
	case "1h":
		return "%Y-%m-%d %H:%M", "-1 hours", true
	case "24h":
		return "%Y-%m-%d %H:00", "-24 hours", true
	case "7d":
		return "%Y-%m-%d", "-7 days", true
	case "30d":
		return "%Y-%m-%d", "-30 days", true
	default:
		return "", "", false
	}
}

// MessagesChart returns grouped chat_history counts for a bot (or all bots
// when botId is empty), bucketed per period. Plain SQL strftime
// aggregation — the same direct-SQL-read posture the teacher takes for
// reporting, no extra dependency needed.
func (s *Store) MessagesChart(botId, period string) ([]ChartPoint, error) {
	format, since, ok := bucketFormatFor(period)
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	query := `SELECT strftime(?, timestamp) AS bucket, COUNT(*) FROM chat_history
		WHERE timestamp >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', ?)`
	args := []any{format, since}
	if botId != "" {
		query += ` AND bot_id = ?`
		args = append(args, botId)
	}
	query += ` GROUP BY bucket ORDER BY bucket ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("messages chart: %w", err)
	}
	defer rows.Close()

	var points []ChartPoint
	for rows.Next() {
		var p ChartPoint
		if err := rows.Scan(&p.Bucket, &p.Count); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Store) CountBots() (total, active, running int, err error) {
	err = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(is_active),0), COALESCE(SUM(is_running),0) FROM bots`).
		Scan(&total, &active, &running)
	return
}
