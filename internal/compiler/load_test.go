package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileClasses_DeclarationOrder(t *testing.T) {
	v := cuecontext.New().CompileString(`
		class: Zeta: {
			purpose: "z"
			method: a: impl: "echo"
		}
		class: Alpha: {
			purpose: "a"
			extends: "Zeta"
			method: b: impl: "echo"
		}
	`)
	specs, errs := CompileClasses(v)
	require.Empty(t, errs)
	require.Len(t, specs, 2)
	assert.Equal(t, "Zeta", specs[0].Name)
	assert.Equal(t, "Alpha", specs[1].Name)
	assert.Equal(t, "Zeta", specs[1].Extends)
}

func TestCompileClasses_CollectsErrors(t *testing.T) {
	v := cuecontext.New().CompileString(`
		class: Good: {
			purpose: "ok"
			method: a: impl: "echo"
		}
		class: NoPurpose: {
			method: a: impl: "echo"
		}
		class: NoImpl: {
			purpose: "x"
			method: a: message: "m"
		}
	`)
	specs, errs := CompileClasses(v)
	assert.Len(t, specs, 1)
	require.Len(t, errs, 2)

	var ce *CompileError
	require.ErrorAs(t, errs[0], &ce)
	assert.Equal(t, "purpose", ce.Field)
	require.ErrorAs(t, errs[1], &ce)
	assert.Equal(t, "method.a.impl", ce.Field)
}

func TestCompileClasses_NoClasses(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	_, errs := CompileClasses(v)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoClasses)
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calc.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
class: Calc: {
	purpose: "calculates"
	method: double: {
		impl: "multiply"
		args: {x: int}
	}
}
`), 0o644))

	specs, err := CompileFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "Calc", specs[0].Name)

	_, err = CompileFile(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte(`class: Bad: { method: a: impl: "echo" }`), 0o644))
	_, err = CompileFile(bad)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "purpose", ce.Field)
}
