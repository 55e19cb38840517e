package logging

// Standardized attribute keys. Using constants keeps log lines greppable
// across packages.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldFile      = "file"
	FieldStage     = "stage"
)
