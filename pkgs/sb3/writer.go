// Package sb3 packages a Scratch project document as an .sb3 archive: a zip
// holding project.json next to the assets it references.
package sb3

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/scrapile/pkgs/scratch"
)

const (
	// ProjectFile is the archive entry holding the project document
	ProjectFile = "project.json"

	// BackdropFile is the archive entry of the blank stage backdrop
	BackdropFile = scratch.BackdropMD5Ext
)

// backdropSVG is the empty 2x2 vector the stage costume points at
const backdropSVG = `<svg version="1.1" width="2" height="2" viewBox="-1 -1 2 2" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
  <!-- Exported by Scratch - http://scratch.mit.edu/ -->
</svg>`

// Write writes p to w as an .sb3 archive and returns the BLAKE2b-256 hash of
// the project document it contains.
func Write(w io.Writer, p *scratch.Project) ([32]byte, error) {
	wr := &Writer{w: w}
	return wr.WriteProject(p)
}

// WriteFile writes p to the .sb3 file at path, replacing it
func WriteFile(path string, p *scratch.Project) ([32]byte, error) {
	f, err := os.Create(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("create %s: %w", path, err)
	}
	hash, err := Write(f, p)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return [32]byte{}, fmt.Errorf("write %s: %w", path, err)
	}
	return hash, nil
}

// Writer handles writing projects to the archive format.
type Writer struct {
	w io.Writer
}

// WriteProject writes the archive to the underlying writer.
// Layout: project.json (deflated) | <backdrop md5>.svg (deflated)
func (wr *Writer) WriteProject(p *scratch.Project) ([32]byte, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode %s: %w", ProjectFile, err)
	}

	zw := zip.NewWriter(wr.w)
	if err := writeEntry(zw, ProjectFile, doc); err != nil {
		return [32]byte{}, err
	}
	if err := writeEntry(zw, BackdropFile, []byte(backdropSVG)); err != nil {
		return [32]byte{}, err
	}
	if err := zw.Close(); err != nil {
		return [32]byte{}, fmt.Errorf("finish archive: %w", err)
	}
	return blake2b.Sum256(doc), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	return nil
}
