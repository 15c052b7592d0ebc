package database

// RunReport holds metadata about one generation run.
type RunReport struct {
	ID           int64
	Date         string
	Market       string
	SignalCount  int
	ArticleCount int
	GeneratedAt  string
}

// InsertRun records a completed generation run.
func (db *DB) InsertRun(date, market string, signalCount, articleCount int) error {
	_, err := db.conn.Exec(
		"INSERT INTO runs (date, market, signal_count, article_count) VALUES (?, ?, ?, ?)",
		date, market, signalCount, articleCount,
	)
	return err
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunReport, error) {
	rows, err := db.conn.Query(
		"SELECT id, date, market, signal_count, article_count, generated_at FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunReport
	for rows.Next() {
		var r RunReport
		if err := rows.Scan(&r.ID, &r.Date, &r.Market, &r.SignalCount, &r.ArticleCount, &r.GeneratedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CachedContentCount returns how many article bodies are cached.
func (db *DB) CachedContentCount() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM article_content").Scan(&n)
	return n, err
}
