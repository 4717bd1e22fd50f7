package ports

// FileSystem abstracts the file operations used for outputs and debug dumps.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data, creating parent directories.
	// Readers never observe a partially written file.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error
}
