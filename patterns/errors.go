package patterns

import "fmt"

// SchemaError reports a pattern document that violates the schema.
// Path is the offending field in document notation, e.g. "patterns[2].evidence.weight".
type SchemaError struct {
	File   string
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("pattern schema violation at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("pattern schema violation in %s at %s: %s", e.File, e.Path, e.Reason)
}

// DuplicateIDError reports the same pattern ID declared by two documents
type DuplicateIDError struct {
	ID         string
	FirstFile  string
	SecondFile string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate pattern id %q declared by both %s and %s",
		e.ID, e.FirstFile, e.SecondFile)
}

// DuplicateNameError reports a confidence function name registered twice
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("confidence function %q is already registered", e.Name)
}

// UnknownPluginError reports a confidence function name with no registration
type UnknownPluginError struct {
	Name string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown confidence function %q", e.Name)
}
