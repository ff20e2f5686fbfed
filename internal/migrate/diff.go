package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/example/schemakit/internal/revision"
)

// tableShape is a parsed CREATE TABLE statement.
type tableShape struct {
	name    string
	columns []columnShape
}

// columnShape is one column within a CREATE TABLE statement.
type columnShape struct {
	name       string
	definition string // type plus column constraints
}

// DiffSchemas compares two schema DDL texts and produces the upgrade and
// downgrade SQL to move from old to new: added/dropped tables, added/dropped
// columns, and added/dropped indexes. Column type changes and renames are not
// detected; those need a hand-written revision. The output is a best-effort
// structural draft that always requires human review before it is committed
// to the revision directory, and is never applied automatically.
func DiffSchemas(oldDDL, newDDL string) (upSQL, downSQL string) {
	oldTables := parseTableShapes(oldDDL)
	newTables := parseTableShapes(newDDL)
	oldIndexes := parseIndexShapes(oldDDL)
	newIndexes := parseIndexShapes(newDDL)

	var up, down []string

	for name, newTable := range newTables {
		oldTable, exists := oldTables[name]
		if !exists {
			up = append(up, renderCreateTable(newTable))
			down = append(down, fmt.Sprintf("DROP TABLE IF EXISTS %s;", name))
			continue
		}

		oldCols := columnsByName(oldTable.columns)
		newCols := columnsByName(newTable.columns)

		for colName, def := range newCols {
			if _, exists := oldCols[colName]; !exists {
				up = append(up, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", name, colName, def))
				down = append(down, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", name, colName))
			}
		}
		for colName, def := range oldCols {
			if _, exists := newCols[colName]; !exists {
				up = append(up, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", name, colName))
				down = append(down, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", name, colName, def))
			}
		}
	}

	for name, oldTable := range oldTables {
		if _, exists := newTables[name]; !exists {
			up = append(up, fmt.Sprintf("DROP TABLE IF EXISTS %s;", name))
			down = append(down, renderCreateTable(oldTable))
		}
	}

	for idxName, idxSQL := range newIndexes {
		if _, exists := oldIndexes[idxName]; !exists {
			up = append(up, idxSQL+";")
			down = append(down, fmt.Sprintf("DROP INDEX IF EXISTS %s;", idxName))
		}
	}
	for idxName, idxSQL := range oldIndexes {
		if _, exists := newIndexes[idxName]; !exists {
			up = append(up, fmt.Sprintf("DROP INDEX IF EXISTS %s;", idxName))
			down = append(down, idxSQL+";")
		}
	}

	sort.Strings(up)
	sort.Strings(down)

	return strings.Join(up, "\n"), strings.Join(down, "\n")
}

// HistoryDDL returns the concatenated upgrade SQL of every ancestor of upTo
// in application order, approximating the schema shape implied by the
// history's cumulative effect. ALTER statements contribute their text but the
// structural comparison only reads CREATE statements, which is why diff
// output stays a draft.
func HistoryDDL(store *revision.Store, upTo string) (string, error) {
	if upTo == revision.Base {
		return "", nil
	}

	wanted, err := store.Ancestors(upTo)
	if err != nil {
		return "", err
	}

	ordered, err := store.List()
	if err != nil {
		return "", err
	}

	var parts []string
	for _, rev := range ordered {
		if wanted[rev.ID] && rev.UpSQL != "" {
			parts = append(parts, rev.UpSQL)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// NewRevisionID generates an identifier for a drafted revision: the first 12
// hex characters of a random UUID, matching the width of hand-authored ids.
func NewRevisionID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

// WriteDraft writes a draft revision YAML file into dir and returns its path.
// The draft is parented on down (empty for a root draft) and must be reviewed
// before being treated as part of the history.
func WriteDraft(dir, label string, down []string, upSQL, downSQL string) (string, error) {
	if strings.TrimSpace(label) == "" {
		return "", fmt.Errorf("draft revision needs a label")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create revision directory %s: %w", dir, err)
	}

	file := revision.File{
		ID:        NewRevisionID(),
		Down:      revision.StringList(down),
		Label:     label,
		Upgrade:   ensureTrailingNewline(upSQL),
		Downgrade: ensureTrailingNewline(downSQL),
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return "", fmt.Errorf("encode draft revision: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.yaml", file.ID, slugify(label)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write draft revision %s: %w", path, err)
	}

	return path, nil
}

var (
	createTablePattern = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)\s*\(([\s\S]*?)\)\s*;`)
	createIndexPattern = regexp.MustCompile(`(?i)(CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)\s+ON\s+\w+\s*\([^)]+\))\s*;?`)
	slugPattern        = regexp.MustCompile(`[^a-z0-9]+`)
)

func parseTableShapes(ddl string) map[string]tableShape {
	tables := make(map[string]tableShape)
	for _, m := range createTablePattern.FindAllStringSubmatch(ddl, -1) {
		tables[m[1]] = tableShape{name: m[1], columns: parseColumnShapes(m[2])}
	}
	return tables
}

func parseColumnShapes(body string) []columnShape {
	var cols []columnShape
	for _, line := range strings.Split(body, ",") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Table-level constraints are not columns.
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "PRIMARY KEY") ||
			strings.HasPrefix(upper, "FOREIGN KEY") ||
			strings.HasPrefix(upper, "CHECK") ||
			strings.HasPrefix(upper, "UNIQUE") ||
			strings.HasPrefix(upper, "CONSTRAINT") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		cols = append(cols, columnShape{name: parts[0], definition: strings.Join(parts[1:], " ")})
	}
	return cols
}

func parseIndexShapes(ddl string) map[string]string {
	indexes := make(map[string]string)
	for _, m := range createIndexPattern.FindAllStringSubmatch(ddl, -1) {
		indexes[m[2]] = strings.TrimSpace(m[1])
	}
	return indexes
}

func columnsByName(cols []columnShape) map[string]string {
	m := make(map[string]string, len(cols))
	for _, c := range cols {
		m[c.name] = c.definition
	}
	return m
}

func renderCreateTable(t tableShape) string {
	defs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		defs = append(defs, fmt.Sprintf("    %s %s", c.name, c.definition))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", t.name, strings.Join(defs, ",\n"))
}

func slugify(label string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(slug, "_")
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
