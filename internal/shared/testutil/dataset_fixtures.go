package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// RawSourceHeader is the header line of an unprocessed monitoring export,
// exactly as the agency ships it.
const RawSourceHeader = `STATION CODE,LOCATIONS,STATE,Temp,D.O. (mg/l),PH,CONDUCTIVITY (µhos/cm),B.O.D. (mg/l),NITRATENAN N+ NITRITENANN (mg/l),FECAL COLIFORM (MPN/100ml),TOTAL COLIFORM (MPN/100ml)Mean,year`

// DatasetFixtures provides raw source files and scenario data for dataset
// pipeline and API testing.
type DatasetFixtures struct {
	TestDataDir string
}

// NewDatasetFixtures creates a new fixtures manager rooted at testDataDir.
func NewDatasetFixtures(testDataDir string) *DatasetFixtures {
	return &DatasetFixtures{
		TestDataDir: testDataDir,
	}
}

// ValidSourceCSV returns a well-formed monitoring export covering the
// classification branches: acidic, neutral and alkaline pH, low through high
// conductivity, and both compliant and non-compliant stations.
func (f *DatasetFixtures) ValidSourceCSV() string {
	return RawSourceHeader + `
1001,MANDOVI AT PANAJI,GOA,26.5,6.2,7.1,210,1.2,0.45,90,180,2003
1002,ZUARI AT CORTALIM,GOA,27.0,6.5,7.4,420,1.6,0.52,140,260,2004
1399,PERIYAR AT ALUVA,KERALA,28.1,4.3,6.1,860,4.2,1.10,880,1400,2003
1400,BHARATHAPUZHA,KERALA,27.4,3.8,8.9,1035,5.1,1.30,1100,1650,2005
2153,SUTLEJ AT ROPAR,PUNJAB,22.0,7.1,7.8,190,0.9,0.38,60,120,2004
2154,BEAS AT MIRTHAL,PUNJAB,21.3,7.4,8.0,240,0.8,0.30,45,95,2006
3021,YAMUNA AT NIZAMUDDIN,DELHI,24.8,2.1,7.3,1480,9.6,2.40,2400,5200,2005
4010,GODAVARI AT NASHIK,MAHARASHTRA,25.2,6.8,7.6,510,2.2,0.70,310,540,2006
`
}

// SourceCSVWithDuplicates returns an export where two rows are exact
// repeats of earlier rows. Deduplication keeps the first occurrence.
func (f *DatasetFixtures) SourceCSVWithDuplicates() string {
	return RawSourceHeader + `
1001,MANDOVI AT PANAJI,GOA,26.5,6.2,7.1,210,1.2,0.45,90,180,2003
1002,ZUARI AT CORTALIM,GOA,27.0,6.5,7.4,420,1.6,0.52,140,260,2004
1001,MANDOVI AT PANAJI,GOA,26.5,6.2,7.1,210,1.2,0.45,90,180,2003
2153,SUTLEJ AT ROPAR,PUNJAB,22.0,7.1,7.8,190,0.9,0.38,60,120,2004
1002,ZUARI AT CORTALIM,GOA,27.0,6.5,7.4,420,1.6,0.52,140,260,2004
`
}

// SourceCSVWithGaps returns an export with missing measurements, both as
// empty cells and as the NAN token the agency uses.
func (f *DatasetFixtures) SourceCSVWithGaps() string {
	return RawSourceHeader + `
1001,MANDOVI AT PANAJI,GOA,26.5,,7.1,210,1.2,0.45,90,180,2003
1002,ZUARI AT CORTALIM,GOA,27.0,6.5,NAN,420,1.6,0.52,140,260,2004
1399,PERIYAR AT ALUVA,KERALA,NAN,4.3,6.1,,4.2,1.10,880,1400,2003
2153,SUTLEJ AT ROPAR,PUNJAB,22.0,7.1,7.8,190,0.9,0.38,60,120,2004
`
}

// SourceCSVUnknownRegion returns an export containing one station whose
// state name is not in the gazetteer, so it resolves to no coordinates.
func (f *DatasetFixtures) SourceCSVUnknownRegion() string {
	return RawSourceHeader + `
1001,MANDOVI AT PANAJI,GOA,26.5,6.2,7.1,210,1.2,0.45,90,180,2003
9901,OUSTERI LAKE,PONDICHERY,29.0,5.8,7.2,350,1.9,0.60,200,380,2005
`
}

// CreateSourceFile writes a source CSV to the given path, creating parent
// directories as needed.
func (f *DatasetFixtures) CreateSourceFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write source file: %w", err)
	}
	return nil
}

// CreateCorruptedSourceFile writes various malformed source files for
// error-path testing.
func (f *DatasetFixtures) CreateCorruptedSourceFile(path, corruptionType string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var data []byte

	switch corruptionType {
	case "empty":
		data = []byte{}
	case "header_only":
		data = []byte(RawSourceHeader + "\n")
	case "ragged_row":
		data = []byte(RawSourceHeader + "\n1001,MANDOVI AT PANAJI,GOA,26.5\n")
	case "binary_data":
		data = make([]byte, 256)
		for i := range data {
			data[i] = byte(i)
		}
	default:
		return fmt.Errorf("unknown corruption type: %s", corruptionType)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corrupted file: %w", err)
	}
	return nil
}

// GenerateTestDataFiles materializes every fixture scenario under
// TestDataDir.
func (f *DatasetFixtures) GenerateTestDataFiles() error {
	if err := os.MkdirAll(f.TestDataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create test data directory: %w", err)
	}

	sources := map[string]string{
		"valid_source.csv":   f.ValidSourceCSV(),
		"duplicate_rows.csv": f.SourceCSVWithDuplicates(),
		"missing_values.csv": f.SourceCSVWithGaps(),
		"unknown_region.csv": f.SourceCSVUnknownRegion(),
	}
	for filename, content := range sources {
		path := filepath.Join(f.TestDataDir, filename)
		if err := f.CreateSourceFile(path, content); err != nil {
			return fmt.Errorf("failed to create %s: %w", filename, err)
		}
	}

	corrupted := []string{"empty", "header_only", "ragged_row", "binary_data"}
	for _, kind := range corrupted {
		path := filepath.Join(f.TestDataDir, kind+".csv")
		if err := f.CreateCorruptedSourceFile(path, kind); err != nil {
			return fmt.Errorf("failed to create corrupted file %s: %w", kind, err)
		}
	}

	return nil
}

// CleanupTestData removes all generated fixture files.
func (f *DatasetFixtures) CleanupTestData() error {
	return os.RemoveAll(f.TestDataDir)
}

// WriteSourceCSV writes content to a fresh temp file and returns its path.
// The file is removed when the test finishes.
func WriteSourceCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "water_quality.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write source CSV: %v", err)
	}
	return path
}
