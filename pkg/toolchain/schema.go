package toolchain

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// manifestSchema constrains the raw manifest document before decoding.
const manifestSchema = `
#Pins: {
	// On-chain protocol version numbers. Optional for components that do
	// not regenerate genesis.
	execution_version?: int & >=0
	proving_version?:   int & >=0

	// Source refs by repository name.
	refs?: {[string]: string & !=""}

	// Releases that need the zkstack-side contracts built before ecosystem
	// deployment say so here.
	prebuild_zkstack_contracts?: bool

	// Pinned local tool versions by binary name.
	tools: {[string]: =~"^\\d+\\.\\d+(\\.\\d+)?$"}
}

#Manifest: {
	components: {[string]: {
		releases: {[string]: #Pins}
	}}
}
`

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func compileManifestSchema() {
	schemaCtx = cuecontext.New()
	val := schemaCtx.CompileString(manifestSchema)
	if err := val.Err(); err != nil {
		schemaErr = fmt.Errorf("failed to compile manifest schema: %w", err)
		return
	}
	schemaDef = val.LookupPath(cue.MakePath(cue.Def("#Manifest")))
	if err := schemaDef.Err(); err != nil {
		schemaErr = fmt.Errorf("failed to resolve manifest schema: %w", err)
	}
}

// validateManifestSchema unifies the raw document with the manifest schema
// and requires the result to be concrete.
func validateManifestSchema(doc interface{}) error {
	schemaOnce.Do(compileManifestSchema)
	if schemaErr != nil {
		return schemaErr
	}

	docVal := schemaCtx.Encode(doc)
	if err := docVal.Err(); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	unified := schemaDef.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
