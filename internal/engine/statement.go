package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sqlharness/internal/session"
)

type stmtKind int

const (
	stmtSQL stmtKind = iota
	stmtQuery
	stmtSet
	stmtAddResource
	stmtListResources
	stmtLoadData
	stmtShowTables
)

type statement struct {
	kind stmtKind
	text string

	// SET
	key      string
	value    string
	hasValue bool

	// ADD / LIST
	resource session.ResourceKind
	path     string

	// LOAD DATA
	local     bool
	overwrite bool
	table     string
}

var (
	loadDataRe   = regexp.MustCompile(`(?is)^LOAD\s+DATA\s+(LOCAL\s+)?INPATH\s+'([^']*)'\s+(OVERWRITE\s+)?INTO\s+TABLE\s+([A-Za-z_][A-Za-z0-9_.]*)$`)
	showTablesRe = regexp.MustCompile(`(?i)^SHOW\s+TABLES$`)

	queryKeywords = map[string]bool{
		"SELECT": true, "WITH": true, "VALUES": true, "PRAGMA": true,
		"EXPLAIN": true, "DESCRIBE": true, "DESC": true, "SHOW": true,
		"FROM": true, "TABLE": true, "SUMMARIZE": true,
	}
)

// Normalize trims whitespace and trailing semicolons and puts text in NFC
// form so keyword matching is stable.
func Normalize(text string) string {
	s := norm.NFC.String(strings.TrimSpace(text))
	return strings.TrimSpace(strings.TrimRight(s, "; \t\r\n"))
}

func parseStatement(text string) (statement, error) {
	s := Normalize(text)
	st := statement{kind: stmtSQL, text: s}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return st, newError(CodeBadStatement, text, "empty statement")
	}
	head := strings.ToUpper(fields[0])

	switch head {
	case "SET":
		st.kind = stmtSet
		rest := strings.TrimSpace(s[len(fields[0]):])
		if rest == "" {
			return st, nil
		}
		key, value, ok := strings.Cut(rest, "=")
		st.key = strings.TrimSpace(key)
		st.value = strings.TrimSpace(value)
		st.hasValue = ok
		if st.key == "" {
			return st, newError(CodeBadStatement, text, "SET without a key")
		}
		return st, nil

	case "ADD", "LIST":
		if len(fields) < 2 {
			break
		}
		kind, ok := session.ParseResourceKind(strings.ToUpper(fields[1]))
		if !ok {
			break
		}
		st.resource = kind
		if head == "LIST" {
			st.kind = stmtListResources
			return st, nil
		}
		if len(fields) != 3 {
			return st, newError(CodeBadStatement, text, "ADD %s takes exactly one path", kind)
		}
		st.kind = stmtAddResource
		st.path = strings.Trim(fields[2], `'"`)
		return st, nil

	case "LOAD":
		m := loadDataRe.FindStringSubmatch(s)
		if m == nil {
			return st, newError(CodeBadStatement, text, "malformed LOAD DATA")
		}
		st.kind = stmtLoadData
		st.local = m[1] != ""
		st.path = m[2]
		st.overwrite = m[3] != ""
		st.table = m[4]
		return st, nil

	case "SHOW":
		if showTablesRe.MatchString(s) {
			st.kind = stmtShowTables
			return st, nil
		}
	}

	if queryKeywords[head] {
		st.kind = stmtQuery
	}
	return st, nil
}
