package cvatconv

// Backup archive assembly.

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// Archive layout.
const (
	taskFileName        = "task.json"
	annotationsFileName = "annotations.json"
	dataDirName         = "data"
	manifestFileName    = "manifest.jsonl"
	indexFileName       = "index.json"
)

// partSuffix is appended to the archive path while the archive is being written.
const partSuffix = ".part"

// Backup holds the documents and images of a backup archive.
type Backup struct {
	Task        TaskDescriptor
	Annotations *AnnotationSet
	Manifest    []byte   // Serialised manifest.
	Index       Index    // Index of Manifest.
	Images      []string // Source image paths, copied to data/ under their file names.
}

// WriteBackup writes the backup to the staging directory stagingDir and compresses it into the
// archive at outPath. Leftovers of a previous run in stagingDir are deleted first.
//
// An archive of a previous run at outPath is removed first. On success the staging directory is
// removed. On failure it is left in place for inspection and no archive exists at outPath.
func WriteBackup(outPath, stagingDir string, b Backup, log logrus.FieldLogger) error {
	if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove the previous archive %q: %w", outPath, err)
	}

	if err := stage(stagingDir, b); err != nil {
		return err
	}
	log.WithField("staging_dir", stagingDir).Debug("Staged backup")

	if err := zipStagingDir(outPath, stagingDir); err != nil {
		return err
	}

	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to remove the staging directory %q: %w", stagingDir, err)
	}

	return nil
}

// stage writes all documents and image copies of b to a fresh stagingDir.
func stage(stagingDir string, b Backup) error {
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to clear the staging directory %q: %w", stagingDir, err)
	}
	dataDir := filepath.Join(stagingDir, dataDirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create the staging directory %q: %w", stagingDir, err)
	}

	// Documents.
	annotations := []*AnnotationSet{b.Annotations}
	if err := writeJSONFile(filepath.Join(stagingDir, taskFileName), b.Task, false); err != nil {
		return err
	}
	err := writeJSONFile(filepath.Join(stagingDir, annotationsFileName), annotations, true)
	if err != nil {
		return err
	}
	manifestPath := filepath.Join(dataDir, manifestFileName)
	if err := os.WriteFile(manifestPath, b.Manifest, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", manifestPath, err)
	}
	if err := writeJSONFile(filepath.Join(dataDir, indexFileName), b.Index, false); err != nil {
		return err
	}

	// Images.
	for _, src := range b.Images {
		name := filepath.Base(src)
		if name == manifestFileName || name == indexFileName {
			return fmt.Errorf("image %q collides with the archive file %s/%s", src, dataDirName, name)
		}
		if err := copyFile(filepath.Join(dataDir, name), src); err != nil {
			return fmt.Errorf("failed to stage image %q: %w", src, err)
		}
	}

	return nil
}

// writeJSONFile serialises v to path, indented by two spaces if indent is set.
func writeJSONFile(path string, v interface{}, indent bool) error {
	var enc []byte
	var err error
	if indent {
		enc, err = jsonAPI.MarshalIndent(v, "", "  ")
	} else {
		enc, err = jsonAPI.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to serialise %q: %w", path, err)
	}

	if err := os.WriteFile(path, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", path, err)
	}
	return nil
}

// zipStagingDir compresses the staged backup into the archive at outPath. The archive is written
// next to outPath and only renamed to outPath once it is complete.
func zipStagingDir(outPath, stagingDir string) (err error) {
	members := []string{taskFileName, annotationsFileName}
	dataFiles, err := filesByExtInDir(filepath.Join(stagingDir, dataDirName))
	if err != nil {
		return err
	}
	for _, name := range dataFiles {
		members = append(members, path.Join(dataDirName, name))
	}

	partPath := outPath + partSuffix
	file, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create the archive %q: %w", partPath, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(partPath)
		}
	}()

	zw := zip.NewWriter(file)
	for _, name := range members {
		if err = addZipMember(zw, stagingDir, name); err != nil {
			_ = zw.Close()
			_ = file.Close()
			return fmt.Errorf("failed to add %q to the archive: %w", name, err)
		}
	}
	if err = zw.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to finish the archive %q: %w", partPath, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to write the archive %q: %w", partPath, err)
	}

	if err = os.Rename(partPath, outPath); err != nil {
		return fmt.Errorf("failed to move the archive to %q: %w", outPath, err)
	}
	return nil
}

// addZipMember compresses the file at the slash separated path name, relative to root, into zw
// under the same relative name.
func addZipMember(zw *zip.Writer, root, name string) (err error) {
	src := filepath.Join(root, filepath.FromSlash(name))
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
