package conf

import (
	_ "embed"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalidConfig is returned by Validate when a configuration cannot drive
// in-process execution.
var ErrInvalidConfig = errors.New("configuration not valid for local execution")

// Validate checks c against the local-execution schema: forced paths are
// absolute, scratch permissions are three octal digits, the metastore is
// local, extra jar/file/archive paths are empty, the default filesystem is
// file-based and no job tracker is configured.
func Validate(c *Configuration) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	local := schema.LookupPath(cue.ParsePath("#Local"))

	v := local.Unify(ctx.Encode(c.Properties()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, cueerrors.Details(err, nil))
	}
	return nil
}
