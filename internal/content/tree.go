package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"lectern/internal/fileutil"
	"lectern/internal/services"
)

// ParseTree decodes a content tree document. Missing episode maps decode as empty.
func ParseTree(data []byte) (Tree, error) {
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode content tree: %w", err)
	}
	if tree == nil {
		tree = Tree{}
	}
	for id, series := range tree {
		if series == nil {
			tree[id] = &SeriesContent{Episodes: map[string]*Overlay{}}
			continue
		}
		if series.Episodes == nil {
			series.Episodes = map[string]*Overlay{}
		}
		for epID, overlay := range series.Episodes {
			if overlay == nil {
				series.Episodes[epID] = &Overlay{}
			}
		}
	}
	return tree, nil
}

// LoadTree reads the tree at path. A missing file yields an empty tree and exists=false.
func LoadTree(path string) (tree Tree, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Tree{}, false, nil
		}
		return nil, false, fmt.Errorf("read content tree %s: %w", path, err)
	}
	tree, err = ParseTree(data)
	if err != nil {
		return nil, true, services.Wrap(services.ErrSchemaMismatch, "content", "parse tree", path, err)
	}
	return tree, true, nil
}

// EncodeTree renders tree with sorted keys, two-space indentation and a
// trailing newline. HTML characters are left unescaped.
func EncodeTree(tree Tree) ([]byte, error) {
	if tree == nil {
		tree = Tree{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode content tree: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveResult describes a completed SaveTree call.
type SaveResult struct {
	Path      string
	Backup    string
	Unchanged bool
}

// SaveTree backs up the existing file at path, atomically replaces it with the
// encoded tree and verifies the written file decodes to the same bytes. On
// verification failure the backup is restored. A tree identical to the file on
// disk is not rewritten and no backup is taken. Callers hold the tree lock.
func SaveTree(path string, tree Tree, now time.Time) (SaveResult, error) {
	result := SaveResult{Path: path}
	encoded, err := EncodeTree(tree)
	if err != nil {
		return result, services.Wrap(services.ErrWriteFailure, "content", "encode", path, err)
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, encoded) {
		result.Unchanged = true
		return result, nil
	}

	backup, err := fileutil.Backup(path, now)
	if err != nil {
		return result, services.Wrap(services.ErrWriteFailure, "content", "backup", path, err)
	}
	result.Backup = backup

	if err := fileutil.WriteFileAtomic(path, encoded, 0o644); err != nil {
		return result, services.Wrap(services.ErrWriteFailure, "content", "write", path, err)
	}

	if verr := verifyWritten(path, encoded); verr != nil {
		if rerr := fileutil.Restore(path, backup); rerr != nil {
			return result, services.Wrap(services.ErrWriteFailure, "content", "verify", path, errors.Join(verr, rerr))
		}
		return result, services.Wrap(services.ErrWriteFailure, "content", "verify", path+" (restored previous version)", verr)
	}
	return result, nil
}

// CheckpointTree atomically replaces the file at path without taking a
// backup. It is used for intermediate saves after SaveTree has already backed
// up the pre-run state. Callers hold the tree lock.
func CheckpointTree(path string, tree Tree) error {
	encoded, err := EncodeTree(tree)
	if err != nil {
		return services.Wrap(services.ErrWriteFailure, "content", "encode", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, encoded, 0o644); err != nil {
		return services.Wrap(services.ErrWriteFailure, "content", "checkpoint", path, err)
	}
	if err := verifyWritten(path, encoded); err != nil {
		return services.Wrap(services.ErrWriteFailure, "content", "verify checkpoint", path, err)
	}
	return nil
}

func verifyWritten(path string, want []byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	tree, err := ParseTree(data)
	if err != nil {
		return err
	}
	again, err := EncodeTree(tree)
	if err != nil {
		return err
	}
	if !bytes.Equal(again, want) {
		return errors.New("written tree does not round-trip")
	}
	return nil
}

// BlankField reports whether s carries no content.
func BlankField(s string) bool {
	return strings.TrimSpace(s) == ""
}
