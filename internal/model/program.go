package model

// ProgramDefinition is immutable reference data describing one benefit
// program. Definitions are authored externally and read-only to the
// evaluation core.
type ProgramDefinition struct {
	ID           string  `json:"id"`
	Jurisdiction string  `json:"jurisdiction"`
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	Pathway      Pathway `json:"pathway"`
	Description  string  `json:"description,omitempty"`
}
