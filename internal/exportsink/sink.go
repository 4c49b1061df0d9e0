package exportsink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"flashdeck/internal/config"
	"flashdeck/internal/fileutil"
	"flashdeck/internal/flashcards"
)

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FromConfig returns the archive sink configured under [exports], or nil when
// archiving is disabled.
func FromConfig(ctx context.Context, cfg *config.Config) (flashcards.Sink, error) {
	if cfg == nil || !cfg.ArchiveEnabled() {
		return nil, nil
	}
	sink, err := NewS3Sink(ctx, S3Options{
		Bucket:          cfg.Exports.ArchiveBucket,
		Region:          cfg.Exports.ArchiveRegion,
		Endpoint:        cfg.Exports.ArchiveEndpoint,
		Prefix:          cfg.Exports.ArchivePrefix,
		AccessKeyID:     cfg.Exports.AccessKeyID,
		SecretAccessKey: cfg.Exports.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// DirSink writes exports into a local directory. Existing files are kept;
// a new export of the same name gets a numbered suffix.
type DirSink struct {
	Dir string
}

// NewDirSink returns a sink rooted at dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Archive writes file under Dir (and an owner subdirectory when owner is set)
// and returns the written path.
func (d *DirSink) Archive(_ context.Context, owner string, file flashcards.File) (string, error) {
	dir := d.Dir
	if seg := cleanSegment(owner); seg != "" {
		dir = filepath.Join(dir, seg)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	name := cleanSegment(file.Name)
	if name == "" {
		return "", fmt.Errorf("export file name %q is not usable", file.Name)
	}
	path, err := fileutil.UniquePath(dir, name)
	if err != nil {
		return "", fmt.Errorf("pick export path: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func cleanSegment(value string) string {
	value = strings.TrimSpace(value)
	value = unsafeSegment.ReplaceAllString(value, "_")
	value = strings.Trim(value, "._")
	return value
}
