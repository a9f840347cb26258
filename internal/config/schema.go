// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config

import (
	_ "embed"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pkg/errors"
)

//go:embed schema.cue
var schemaSource []byte

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func schema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileBytes(schemaSource)
		if v.Err() != nil {
			schemaErr = errors.Wrap(v.Err(), "compiling config schema")
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Config"))
		if schemaDef.Err() != nil {
			schemaErr = errors.Wrap(schemaDef.Err(), "looking up #Config")
		}
	})
	return schemaCtx, schemaDef, schemaErr
}

// Validate checks a JSON configuration against the configuration schema.
// All schema violations are reported, one per line.
//
func Validate(data []byte) error {
	ctx, def, err := schema()
	if err != nil {
		return err
	}
	v := ctx.CompileBytes(data)
	if v.Err() != nil {
		return errors.Wrap(v.Err(), "parsing config file")
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return errors.Errorf("invalid configuration: %s", strings.Join(msgs, "\n"))
	}
	return nil
}
