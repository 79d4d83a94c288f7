package files

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDetermineFileFullPath(t *testing.T) {
	type testCase struct {
		name         string
		inputPath    string
		nameTemplate string
		forceFolder  bool
		expectFile   string
		expectFolder string
		setup        func(t *testing.T) (inputPath, expectFile, expectFolder string)
	}

	tmpDir := t.TempDir()

	tests := []testCase{
		{
			name:         "Directory path with name template",
			inputPath:    tmpDir,
			nameTemplate: "output.sarif",
			expectFile:   filepath.Join(tmpDir, "output.sarif"),
			expectFolder: tmpDir,
		},
		{
			name:         "Existing file with extension",
			nameTemplate: "ignored.sarif",
			setup: func(t *testing.T) (string, string, string) {
				f := filepath.Join(tmpDir, "data.sarif")
				if err := os.WriteFile(f, []byte("test"), 0o644); err != nil {
					t.Fatalf("setup: %v", err)
				}
				return f, f, tmpDir
			},
		},
		{
			name:         "Path with no extension, treat as folder",
			inputPath:    filepath.Join(tmpDir, "output_folder"),
			nameTemplate: "report.sarif",
			expectFile:   filepath.Join(tmpDir, "output_folder", "report.sarif"),
			expectFolder: filepath.Join(tmpDir, "output_folder"),
		},
		{
			name:         "Non-existent file with extension",
			inputPath:    filepath.Join(tmpDir, "nonexistent.sarif"),
			nameTemplate: "ignored.sarif",
			expectFile:   filepath.Join(tmpDir, "nonexistent.sarif"),
			expectFolder: tmpDir,
		},
		{
			name:         "Trailing separator is a folder",
			inputPath:    filepath.Join(tmpDir, "out.d") + string(filepath.Separator),
			nameTemplate: "a.sarif",
			expectFile:   filepath.Join(tmpDir, "out.d", "a.sarif"),
			expectFolder: filepath.Join(tmpDir, "out.d"),
		},
		{
			name:         "Forced folder",
			inputPath:    filepath.Join(tmpDir, "merged.sarif"),
			nameTemplate: "a.sarif",
			forceFolder:  true,
			expectFile:   filepath.Join(tmpDir, "merged.sarif", "a.sarif"),
			expectFolder: filepath.Join(tmpDir, "merged.sarif"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualPath := tt.inputPath
			expectFile := tt.expectFile
			expectFolder := tt.expectFolder

			if tt.setup != nil {
				actualPath, expectFile, expectFolder = tt.setup(t)
			}

			filePath, folderPath, err := DetermineFileFullPath(actualPath, tt.nameTemplate, tt.forceFolder)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if filePath != expectFile {
				t.Errorf("Expected file path %s, got %s", expectFile, filePath)
			}
			if folderPath != expectFolder {
				t.Errorf("Expected folder path %s, got %s", expectFolder, folderPath)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.sarif")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected no temporary files left behind, got %d entries", len(entries))
	}
}

func TestWriteFileExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sarif")

	if err := WriteFileExclusive(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	err := WriteFileExclusive(path, []byte("second"), 0o644)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("Expected fs.ErrExist, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "first" {
		t.Errorf("Existing file was clobbered: %q", data)
	}
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.sarif", "a.sarif", "c.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	got, err := ExpandPatterns([]string{
		filepath.Join(dir, "*.sarif"),
		filepath.Join(dir, "a.sarif"),
		filepath.Join(dir, "missing.sarif"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.sarif"),
		filepath.Join(dir, "b.sarif"),
		filepath.Join(dir, "missing.sarif"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if _, err := ExpandPatterns([]string{filepath.Join(dir, "*.xml")}); err == nil {
		t.Error("Expected an error for a pattern without matches")
	}
}
