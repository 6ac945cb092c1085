package harness

import (
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/engine"
	"github.com/roach88/sqlharness/internal/vfs"
)

const (
	// DefaultScratchDir is the scratch root used when none is configured.
	DefaultScratchDir = "/tmp/hive"

	// DefaultTestPrefix is the key namespace reserved for the integration
	// layer under test.
	DefaultTestPrefix = "es."

	// DefaultScratchPerm is the permission string forced on the scratch directory.
	DefaultScratchPerm = "650"

	compatPathSeparator = ";"
)

// OverrideBuilder produces engine configurations fit for in-process execution.
type OverrideBuilder struct {
	// ScratchDir is the root all forced directories live under.
	ScratchDir string
	// TestPrefix is the key namespace purged on every pass.
	TestPrefix string
	// Platform is a GOOS value; "windows" selects the compat filesystem.
	Platform string
	// Driver is the metastore driver named in the connection URL.
	Driver string
}

// NewOverrideBuilder returns a builder with the harness defaults for the
// current platform.
func NewOverrideBuilder() *OverrideBuilder {
	return &OverrideBuilder{
		ScratchDir: DefaultScratchDir,
		TestPrefix: DefaultTestPrefix,
		Platform:   runtime.GOOS,
		Driver:     engine.DriverSQLite3,
	}
}

// ForcedValues returns the local-execution block that every pass forces.
func (b *OverrideBuilder) ForcedValues() map[string]string {
	root := filepath.ToSlash(b.scratchDir())
	metastore := path.Join(root, "metastore_db")
	driver := b.Driver
	if driver == "" {
		driver = engine.DriverSQLite3
	}
	return map[string]string{
		conf.KeyWarehouseDir:      path.Join(root, "warehouse"),
		conf.KeyMetastoreDir:      metastore,
		conf.KeyScratchDir:        root,
		conf.KeyScratchDirPerm:    DefaultScratchPerm,
		conf.KeyConnectionURL:     driver + ":" + path.Join(metastore, "metastore.db"),
		conf.KeyMetastoreLocal:    "true",
		conf.KeyAuxJarsPath:       "",
		conf.KeyAddedJarsPath:     "",
		conf.KeyAddedFilesPath:    "",
		conf.KeyAddedArchivesPath: "",
	}
}

// Build rewrites base in place for local execution and returns it. Caller
// settings are applied before the forced block, so forced keys always win.
func (b *OverrideBuilder) Build(base *conf.Configuration, settings map[string]string) (*conf.Configuration, error) {
	if err := b.Refresh(base, settings); err != nil {
		return nil, err
	}

	forced := b.ForcedValues()
	for _, k := range sortedKeys(forced) {
		if err := base.Set(k, forced[k]); err != nil {
			return nil, err
		}
	}

	if b.Platform == "windows" {
		if err := base.Set(conf.KeyFileImpl, vfs.ImplCompat); err != nil {
			return nil, err
		}
		if err := base.Set(conf.KeyPathSeparator, compatPathSeparator); err != nil {
			return nil, err
		}
	}

	// The engine hands work to a child process whenever the job tracker key
	// is present, default value included. Unset would only restore that
	// default, so the key is removed below the public accessors.
	props := base.Properties()
	delete(props, conf.KeyJobTracker)
	props[conf.KeyDefaultFS] = conf.LocalFS

	return base, nil
}

// Refresh purges test-namespace keys from c and copies settings on top.
func (b *OverrideBuilder) Refresh(c *conf.Configuration, settings map[string]string) error {
	prefix := b.TestPrefix
	if prefix == "" {
		prefix = DefaultTestPrefix
	}
	c.RemoveIf(func(k string) bool { return strings.HasPrefix(k, prefix) })

	for _, k := range sortedKeys(settings) {
		if err := c.Set(k, settings[k]); err != nil {
			return fmt.Errorf("caller setting: %w", err)
		}
	}
	return nil
}

func (b *OverrideBuilder) scratchDir() string {
	if b.ScratchDir == "" {
		return DefaultScratchDir
	}
	return b.ScratchDir
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
