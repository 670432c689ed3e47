package keyword

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luispater/sl2browser/internal/browser"
	"github.com/luispater/sl2browser/internal/browser/browsertest"
)

func TestCatalogImplementedEntriesHaveMethods(t *testing.T) {
	t.Parallel()

	for _, entry := range Catalog {
		if !entry.Implemented {
			continue
		}
		m, ok := keywordMethods[Normalize(entry.Name)]
		require.True(t, ok, "no method for %s", entry.Name)

		mt := m.Func.Type()
		declared := 0
		for i := 1; i < mt.NumIn(); i++ {
			if mt.In(i) != contextType {
				declared++
			}
		}
		assert.Equal(t, len(entry.Args), declared, "argument count of %s", entry.Name)

		variadic := len(entry.Args) > 0 && strings.HasPrefix(entry.Args[len(entry.Args)-1], "*")
		assert.Equal(t, variadic, mt.IsVariadic(), "variadic flag of %s", entry.Name)
	}
}

func TestCatalogNamesAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]string)
	for _, entry := range Catalog {
		key := Normalize(entry.Name)
		prev, dup := seen[key]
		assert.False(t, dup, "%s collides with %s", entry.Name, prev)
		seen[key] = entry.Name
	}
	assert.Len(t, catalogIndex, len(Catalog))
}

func TestUnimplementedKeywordsFailUniformly(t *testing.T) {
	t.Parallel()

	var started atomic.Int32
	lib := New(func() (browser.Engine, error) {
		started.Add(1)
		return browsertest.New(), nil
	}, DefaultOptions())

	for _, entry := range Catalog {
		if entry.Implemented {
			continue
		}
		_, err := lib.Run(context.Background(), entry.Name, "some", "args")
		require.ErrorIs(t, err, ErrNotImplemented, entry.Name)

		var notImplemented *NotImplementedError
		require.True(t, errors.As(err, &notImplemented), entry.Name)
		assert.Equal(t, entry.Name, notImplemented.Keyword)
	}
	assert.Zero(t, started.Load(), "unimplemented keywords must not touch the engine")
}

func TestRunUnknownKeyword(t *testing.T) {
	t.Parallel()

	lib := New(nil, Options{})
	_, err := lib.Run(context.Background(), "Launch Rocket")
	require.ErrorIs(t, err, ErrUnknownKeyword)
	assert.NotErrorIs(t, err, ErrNotImplemented)
}

func TestLookupNormalizesNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"Click Button", "click button", "CLICK_BUTTON", "clickbutton", "Click_ Button"} {
		entry, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "Click Button", entry.Name)
	}
	_, ok := Lookup("Click Buttons")
	assert.False(t, ok)
}
