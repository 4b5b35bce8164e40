package sb3

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/scrapile/pkgs/scratch"
)

// maxProjectLen bounds the decompressed project document
const maxProjectLen = 64 * 1024 * 1024

// Read reads an .sb3 archive and returns its project document and the hash
// Write would have reported for it.
func Read(r io.ReaderAt, size int64) (*scratch.Project, [32]byte, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("open archive: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == ProjectFile {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, [32]byte{}, fmt.Errorf("archive has no %s", ProjectFile)
	}
	if entry.UncompressedSize64 > maxProjectLen {
		return nil, [32]byte{}, fmt.Errorf("%s is %d bytes, exceeds maximum %d", ProjectFile, entry.UncompressedSize64, maxProjectLen)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("open %s: %w", ProjectFile, err)
	}
	defer rc.Close()

	doc, err := io.ReadAll(io.LimitReader(rc, maxProjectLen+1))
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("read %s: %w", ProjectFile, err)
	}
	if len(doc) > maxProjectLen {
		return nil, [32]byte{}, fmt.Errorf("%s exceeds maximum %d bytes", ProjectFile, maxProjectLen)
	}

	var p scratch.Project
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, [32]byte{}, fmt.Errorf("decode %s: %w", ProjectFile, err)
	}
	return &p, blake2b.Sum256(doc), nil
}

// ReadBytes is Read over an in-memory archive
func ReadBytes(data []byte) (*scratch.Project, [32]byte, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}
