package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/sos2a/assessment/internal/assessment"
)

// ConfigFileNames are skipped when scanning directories for submissions.
var ConfigFileNames = map[string]bool{
	"sos2a.yaml": true,
	"sos2a.yml":  true,
}

// Submission is one assessment file loaded from disk.
type Submission struct {
	Raw         assessment.RawInput
	SourcePath  string
	ContentHash string   // SHA-256 hex of the canonical JSON encoding
	AlsoFoundIn []string // other source paths with identical answers (populated by dedup)
}

// LoadSubmissions loads assessment submissions from a path.
// If path is a file, that file must parse as a submission.
// If path is a directory, its top-level .yaml/.yml/.json files are loaded
// and anything unparseable is skipped with a warning.
func LoadSubmissions(path string) ([]Submission, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("assessment path not found: %s", path)
	}

	if !info.IsDir() {
		sub, err := loadSingleFile(path)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, fmt.Errorf("%s: not an assessment file", path)
		}
		return []Submission{*sub}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var subs []Submission
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || ConfigFileNames[name] {
			continue
		}
		sub, err := loadSingleFile(filepath.Join(path, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipped %s: %v\n", filepath.Join(path, name), err)
			continue
		}
		if sub != nil {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

// LoadSubmissionsRecursive walks the tree rooted at path. When dedup is true,
// submissions with identical answers collapse into one representative with
// AlsoFoundIn populated; otherwise clashing IDs are qualified by directory.
func LoadSubmissionsRecursive(path string, dedup bool) ([]Submission, error) {
	absRoot, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("assessment path not found: %s", path)
	}
	if !info.IsDir() {
		return LoadSubmissions(path)
	}

	var all []Submission
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || ConfigFileNames[d.Name()] {
			return nil
		}
		sub, loadErr := loadSingleFile(p)
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipped %s: %v\n", p, loadErr)
			return nil
		}
		if sub != nil {
			relPath, _ := filepath.Rel(absRoot, p)
			sub.SourcePath = relPath
			sub.Raw.SourcePath = relPath
			all = append(all, *sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if dedup {
		return deduplicate(all), nil
	}
	return qualifyConflictingIDs(all), nil
}

func loadSingleFile(path string) (*Submission, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".json":
		return loadJSON(path)
	}
	return nil, nil
}

var submissionKeys = []string{"organization", "questionnaire", "matrix"}

func loadYAML(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if !hasAnyKey(probe, submissionKeys...) {
		return nil, nil
	}

	var raw assessment.RawInput
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return finish(path, raw, probe)
}

func loadJSON(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if !hasAnyKey(probe, submissionKeys...) {
		return nil, nil
	}

	var raw assessment.RawInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return finish(path, raw, probe)
}

// finish fills identity fields the file left out. The ID falls back to the
// filename; organization name and industry also accept legacy alias keys.
func finish(path string, raw assessment.RawInput, probe map[string]any) (*Submission, error) {
	stem := filenameStem(path)
	raw.ID = coalesce(raw.ID, stem)
	raw.SourcePath = path

	org := getMap(probe, "organization")
	raw.Organization.Name = coalesce(raw.Organization.Name, firstString(org, "organization_name", "company"), nameFromStem(stem))
	raw.Organization.Industry = coalesce(raw.Organization.Industry, firstString(org, "sector", "vertical"))

	hash, err := contentHash(raw)
	if err != nil {
		return nil, err
	}
	return &Submission{Raw: raw, SourcePath: path, ContentHash: hash}, nil
}

func contentHash(raw assessment.RawInput) (string, error) {
	answers := struct {
		Questionnaire []assessment.DomainAnswer `json:"questionnaire"`
		Matrix        []assessment.MatrixItem   `json:"matrix"`
	}{raw.Questionnaire, raw.Matrix}
	b, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("hash answers: %w", err)
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:]), nil
}

func deduplicate(subs []Submission) []Submission {
	groups := make(map[string][]int) // hash → indices
	var order []string

	for i, s := range subs {
		if _, seen := groups[s.ContentHash]; !seen {
			order = append(order, s.ContentHash)
		}
		groups[s.ContentHash] = append(groups[s.ContentHash], i)
	}

	var result []Submission
	for _, hash := range order {
		indices := groups[hash]
		rep := subs[indices[0]]
		for _, idx := range indices[1:] {
			rep.AlsoFoundIn = append(rep.AlsoFoundIn, subs[idx].SourcePath)
		}
		result = append(result, rep)
	}
	return qualifyConflictingIDs(result)
}

func qualifyConflictingIDs(subs []Submission) []Submission {
	idCount := make(map[string]int)
	for _, s := range subs {
		idCount[s.Raw.ID]++
	}

	for i := range subs {
		if idCount[subs[i].Raw.ID] > 1 {
			dir := filepath.Dir(subs[i].SourcePath)
			if dir != "." && dir != "" {
				subs[i].Raw.ID = filepath.ToSlash(dir) + "/" + subs[i].Raw.ID
			}
		}
	}
	return subs
}

// helpers

func filenameStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func nameFromStem(stem string) string {
	s := strings.ReplaceAll(stem, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func getMap(m map[string]any, key string) map[string]any {
	if mm, ok := m[key].(map[string]any); ok {
		return mm
	}
	return nil
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := getString(m, k); s != "" {
			return s
		}
	}
	return ""
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
