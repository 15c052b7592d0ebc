package database

import "database/sql"

// GetContent returns cached body text for an article URL, or "" when
// not cached.
func (db *DB) GetContent(url string) (string, error) {
	var content string
	err := db.conn.QueryRow("SELECT content FROM article_content WHERE url = ?", url).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// PutContent caches body text for an article URL.
func (db *DB) PutContent(url, content string) error {
	_, err := db.conn.Exec(
		"INSERT INTO article_content (url, content) VALUES (?, ?) ON CONFLICT(url) DO UPDATE SET content = excluded.content",
		url, content,
	)
	return err
}
