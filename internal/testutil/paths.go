package testutil

// Test fixture paths relative to the repository root.
// These constants should be used instead of hardcoding paths in test files.
const (
	// SampleTablesDir holds the sample type tables.
	SampleTablesDir = "typetable/testdata"

	// SampleTable is the 32-bit table in SampleTablesDir that TaskImage is laid out for.
	SampleTable = "sample_x86"
)
