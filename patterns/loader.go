package patterns

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/cadenzalabs/harmonia/logging"
)

// Loader loads and validates pattern documents. Loading is all-or-nothing:
// a document with any schema violation is rejected, never partially applied.
type Loader struct {
	validate *validator.Validate
	logger   logging.Logger
}

// NewLoader creates a pattern document loader
func NewLoader() *Loader {
	return &Loader{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger: logging.WithFields(logging.Fields{
			"component": "pattern_loader",
		}),
	}
}

// Load reads, parses and validates a single pattern document.
// YAML and JSON documents are both accepted.
func (l *Loader) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern document %s: %w", path, err)
	}

	return l.Parse(data, path)
}

// Parse validates raw document bytes. The sourceFile is recorded on every
// pattern and referenced by schema and duplicate-id errors.
func (l *Loader) Parse(data []byte, sourceFile string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{File: sourceFile, Path: "$", Reason: err.Error()}
	}

	if err := l.validateDocument(&doc, sourceFile); err != nil {
		return nil, err
	}

	for i := range doc.Patterns {
		doc.Patterns[i].SourceFile = sourceFile
	}

	l.logger.Debug("Loaded pattern document", logging.Fields{
		"file":     sourceFile,
		"patterns": len(doc.Patterns),
	})

	return &doc, nil
}

// Merge unions the pattern arrays of multiple documents. The same pattern ID
// appearing in two files is an error naming both source files.
func (l *Loader) Merge(paths ...string) (*Document, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no pattern documents to merge")
	}

	merged := &Document{Version: SchemaVersion}
	seen := make(map[string]string) // pattern id -> source file

	for _, path := range paths {
		doc, err := l.Load(path)
		if err != nil {
			return nil, err
		}

		for _, p := range doc.Patterns {
			if firstFile, ok := seen[p.ID]; ok {
				return nil, &DuplicateIDError{ID: p.ID, FirstFile: firstFile, SecondFile: path}
			}
			seen[p.ID] = path
			merged.Patterns = append(merged.Patterns, p)
		}
	}

	l.logger.Info("Merged pattern documents", logging.Fields{
		"files":    len(paths),
		"patterns": len(merged.Patterns),
	})

	return merged, nil
}

// validateDocument applies struct-tag validation plus the cross-field checks
// tags cannot express, producing path-qualified errors throughout
func (l *Loader) validateDocument(doc *Document, sourceFile string) error {
	if err := l.validate.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &SchemaError{
				File:   sourceFile,
				Path:   namespaceToPath(fe.Namespace()),
				Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return &SchemaError{File: sourceFile, Path: "$", Reason: err.Error()}
	}

	if doc.Version > SchemaVersion {
		return &SchemaError{
			File:   sourceFile,
			Path:   "version",
			Reason: fmt.Sprintf("document version %d is newer than supported version %d", doc.Version, SchemaVersion),
		}
	}

	seen := make(map[string]int)
	for i, p := range doc.Patterns {
		prefix := fmt.Sprintf("patterns[%d]", i)

		if prev, ok := seen[p.ID]; ok {
			return &SchemaError{
				File:   sourceFile,
				Path:   prefix + ".id",
				Reason: fmt.Sprintf("duplicate of patterns[%d].id %q", prev, p.ID),
			}
		}
		seen[p.ID] = i

		for j, track := range p.Track {
			if track != TrackFunctional && track != TrackModal {
				return &SchemaError{
					File:   sourceFile,
					Path:   fmt.Sprintf("%s.track[%d]", prefix, j),
					Reason: fmt.Sprintf("unknown track %q (want %q or %q)", track, TrackFunctional, TrackModal),
				}
			}
		}

		hasRoman := len(p.Matchers.RomanSeq) > 0
		hasChord := len(p.Matchers.ChordSeq) > 0
		switch {
		case !hasRoman && !hasChord:
			return &SchemaError{
				File:   sourceFile,
				Path:   prefix + ".matchers",
				Reason: "one of roman_seq or chord_seq is required",
			}
		case hasRoman && hasChord:
			return &SchemaError{
				File:   sourceFile,
				Path:   prefix + ".matchers",
				Reason: "roman_seq and chord_seq are mutually exclusive",
			}
		}

		w := p.Matchers.Window
		if w.MinLen > 0 && w.MaxLen > 0 && w.MaxLen < w.MinLen {
			return &SchemaError{
				File:   sourceFile,
				Path:   prefix + ".matchers.window.max_len",
				Reason: fmt.Sprintf("max_len %d is smaller than min_len %d", w.MaxLen, w.MinLen),
			}
		}
	}

	return nil
}

// namespaceToPath converts a validator namespace such as
// "Document.Patterns[2].Evidence.Weight" into "patterns[2].evidence.weight"
func namespaceToPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		parts = parts[1:] // drop the root struct name
	}
	for i, part := range parts {
		parts[i] = snakeCase(part)
	}
	return strings.Join(parts, ".")
}

func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 && field[i-1] != '[' {
				prev := rune(field[i-1])
				if !unicode.IsUpper(prev) || (i+1 < len(field) && unicode.IsLower(rune(field[i+1]))) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
