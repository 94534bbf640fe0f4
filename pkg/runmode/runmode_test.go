package runmode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSynonyms(t *testing.T) {
	cases := map[string]Mode{
		"":          Default,
		"main":      Main,
		"init":      Init,
		"f":         Finish,
		"finished":  Finish,
		"final":     Finish,
		"fin":       Finish,
		"stop":      Finish,
		"interrupt": Finish,
		"U":         Update,
		"update":    Update,
		"c":         Copy,
		" copy ":    Copy,
		"latest":    Latest,
	}
	for arg, want := range cases {
		got, err := Parse(arg)
		require.NoError(t, err, arg)
		assert.Equal(t, want, got, arg)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("bogus")
	assert.ErrorIs(t, err, ErrInvalidRunMode)
	assert.Contains(t, err.Error(), "bogus")
}

type recorder struct {
	ops           []string
	acquirerMade  bool
	lifecycleMade bool
}

func (r *recorder) Run(context.Context) error    { r.ops = append(r.ops, "run"); return nil }
func (r *recorder) Init(context.Context) error   { r.ops = append(r.ops, "init"); return nil }
func (r *recorder) Finish(context.Context) error { r.ops = append(r.ops, "finish"); return nil }
func (r *recorder) Copy(context.Context) error   { r.ops = append(r.ops, "copy"); return nil }
func (r *recorder) Update(context.Context) error { r.ops = append(r.ops, "update"); return nil }

func (r *recorder) handlers() Handlers {
	return Handlers{
		Acquirer: func() (Acquirer, error) {
			r.acquirerMade = true
			return r, nil
		},
		Lifecycle: func() (Lifecycle, error) {
			r.lifecycleMade = true
			return r, nil
		},
		Latest: func(context.Context) error {
			r.ops = append(r.ops, "latest")
			return nil
		},
	}
}

func TestDispatchCopyOnlyCopies(t *testing.T) {
	r := &recorder{}
	mode, err := Parse("copy")
	require.NoError(t, err)

	require.NoError(t, Dispatch(context.Background(), mode, r.handlers()))
	assert.Equal(t, []string{"copy"}, r.ops)
	assert.False(t, r.acquirerMade)
}

func TestDispatchEachMode(t *testing.T) {
	for mode, want := range map[Mode]string{
		Default: "run",
		Main:    "run",
		Init:    "init",
		Finish:  "finish",
		Update:  "update",
		Copy:    "copy",
		Latest:  "latest",
	} {
		r := &recorder{}
		require.NoError(t, Dispatch(context.Background(), mode, r.handlers()))
		assert.Equal(t, []string{want}, r.ops, mode.String())
	}
}

func TestDispatchUnknownModeDoesNothing(t *testing.T) {
	r := &recorder{}
	err := Dispatch(context.Background(), Mode(99), r.handlers())
	assert.ErrorIs(t, err, ErrInvalidRunMode)
	assert.Empty(t, r.ops)
	assert.False(t, r.acquirerMade)
	assert.False(t, r.lifecycleMade)
}
