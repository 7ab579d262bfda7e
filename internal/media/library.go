package media

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// sizeSuffixRe matches resized-variant suffixes like "-300x200.jpg" that
// the hosting platform appends to attachment URLs.
var sizeSuffixRe = regexp.MustCompile(`-\d+x\d+(\.\w+)$`)

// fileExtRe matches values that end in a plausible file extension.
var fileExtRe = regexp.MustCompile(`\.\w{2,5}$`)

// Library resolves references against the attachments table.
type Library struct {
	db *sql.DB
}

// NewLibrary creates an attachment library over the given database.
func NewLibrary(db *sql.DB) *Library {
	return &Library{db: db}
}

// Resolve tries, in order: exact URL match (with and without a size
// suffix), filename suffix match, then free-text title search.
func (l *Library) Resolve(ctx context.Context, value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if IsURL(value) {
		if id, ok := l.byURL(ctx, value); ok {
			return id, true
		}
		if stripped := sizeSuffixRe.ReplaceAllString(value, "$1"); stripped != value {
			if id, ok := l.byURL(ctx, stripped); ok {
				return id, true
			}
		}
		return 0, false
	}

	if fileExtRe.MatchString(value) {
		if id, ok := l.byFilename(ctx, path.Base(value)); ok {
			return id, true
		}
	}

	return l.byTitle(ctx, value)
}

func (l *Library) byURL(ctx context.Context, url string) (int64, bool) {
	var id int64
	err := l.db.QueryRowContext(ctx, `SELECT id FROM attachments WHERE url = ? ORDER BY id DESC LIMIT 1`, url).Scan(&id)
	return id, l.reportLookup(err, "url")
}

func (l *Library) byFilename(ctx context.Context, filename string) (int64, bool) {
	var id int64
	err := l.db.QueryRowContext(ctx,
		`SELECT id FROM attachments WHERE file LIKE ? ESCAPE '\' ORDER BY id DESC LIMIT 1`,
		"%"+escapeLike(filename)).Scan(&id)
	return id, l.reportLookup(err, "filename")
}

func (l *Library) byTitle(ctx context.Context, text string) (int64, bool) {
	var id int64
	err := l.db.QueryRowContext(ctx,
		`SELECT id FROM attachments WHERE title LIKE ? ESCAPE '\' ORDER BY id DESC LIMIT 1`,
		"%"+escapeLike(text)+"%").Scan(&id)
	return id, l.reportLookup(err, "title")
}

func (l *Library) reportLookup(err error, kind string) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Warn().Err(err).Str("lookup", kind).Msg("media: attachment lookup failed")
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
