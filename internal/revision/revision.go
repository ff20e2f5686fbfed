package revision

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
)

// Base is the sentinel identifier meaning "no revisions applied".
const Base = ""

// StepFunc performs one direction of a schema change inside the caller's
// transaction. The transaction boundary is the unit of atomicity: a step that
// partially succeeds before failing leaves no committed effects.
type StepFunc func(ctx context.Context, tx *sql.Tx) error

// Revision is one versioned, reversible schema-change unit. Revisions are
// authored offline and are immutable once created; editing a revision after it
// has been applied anywhere is a user error, not a supported operation.
type Revision struct {
	// ID uniquely identifies the revision. Identifiers are opaque strings.
	ID string

	// Down lists the predecessor revision identifiers. Empty for the root
	// revision; more than one entry marks a merge revision joining branches.
	Down []string

	// Label is the human-readable description of the change.
	Label string

	// UpSQL and DownSQL hold the schema change for SQL-backed revisions.
	// Multiple statements are separated by semicolons.
	UpSQL   string
	DownSQL string

	// UpFunc and DownFunc override the SQL bodies for revisions authored in
	// Go. When set, the corresponding SQL field is ignored.
	UpFunc   StepFunc
	DownFunc StepFunc
}

// IsRoot reports whether the revision has no predecessor.
func (r *Revision) IsRoot() bool {
	return len(r.Down) == 0
}

// IsMerge reports whether the revision joins more than one branch.
func (r *Revision) IsMerge() bool {
	return len(r.Down) > 1
}

// Apply executes the revision's upgrade step inside tx.
func (r *Revision) Apply(ctx context.Context, tx *sql.Tx) error {
	if r.UpFunc != nil {
		return r.UpFunc(ctx, tx)
	}
	return execStatements(ctx, tx, r.UpSQL)
}

// Revert executes the revision's downgrade step inside tx.
func (r *Revision) Revert(ctx context.Context, tx *sql.Tx) error {
	if r.DownFunc != nil {
		return r.DownFunc(ctx, tx)
	}
	return execStatements(ctx, tx, r.DownSQL)
}

// Checksum returns the content address of the revision: a blake2b-256 digest
// over the identifier, predecessor links and script bodies, hex encoded.
// Go-backed steps contribute a fixed marker since function bodies are not
// addressable.
func (r *Revision) Checksum() string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(r.ID))
	for _, down := range r.Down {
		h.Write([]byte("\x00" + down))
	}
	h.Write([]byte("\x00" + r.Label))
	if r.UpFunc != nil {
		h.Write([]byte("\x00func"))
	} else {
		h.Write([]byte("\x00" + r.UpSQL))
	}
	if r.DownFunc != nil {
		h.Write([]byte("\x00func"))
	} else {
		h.Write([]byte("\x00" + r.DownSQL))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// execStatements splits body on semicolons and executes each non-empty
// statement in order within tx. An empty body is a no-op step, as produced
// by freshly drafted revisions and merge revisions that only join branches.
func execStatements(ctx context.Context, tx *sql.Tx, body string) error {
	for i, stmt := range splitStatements(body) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}

	return nil
}

// splitStatements breaks a SQL script into individual statements. Semicolons
// inside single-quoted literals, line and block comments, and BEGIN/CASE ...
// END blocks (trigger bodies) do not split.
func splitStatements(body string) []string {
	var statements []string
	var current strings.Builder
	var word strings.Builder
	depth := 0
	inLiteral := false
	inLineComment := false
	inBlockComment := false

	// Block keywords are tracked so a trigger body stays one statement.
	flushWord := func() {
		switch strings.ToUpper(word.String()) {
		case "BEGIN", "CASE":
			depth++
		case "END":
			if depth > 0 {
				depth--
			}
		}
		word.Reset()
	}

	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case inLineComment:
			current.WriteRune(r)
			if r == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			current.WriteRune(r)
			if r == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				current.WriteRune(runes[i+1])
				i++
				inBlockComment = false
			}
		case inLiteral:
			current.WriteRune(r)
			if r == '\'' {
				inLiteral = false
			}
		case r == '\'':
			flushWord()
			inLiteral = true
			current.WriteRune(r)
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			flushWord()
			inLineComment = true
			current.WriteRune(r)
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			flushWord()
			inBlockComment = true
			current.WriteRune(r)
		case r == ';':
			flushWord()
			if depth > 0 {
				current.WriteRune(r)
				continue
			}
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
			current.WriteRune(r)
		default:
			flushWord()
			current.WriteRune(r)
		}
	}
	flushWord()

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
