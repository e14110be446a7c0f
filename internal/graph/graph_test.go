package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/module"
)

type stubProvider struct {
	module.Base
	module.Noop
}

func provider(moduleName string, requires ...string) module.Provider {
	return &stubProvider{Base: module.Base{ModuleName: moduleName, ProviderName: "default", Requires: requires}}
}

func TestBuild_OrdersDependenciesFirst(t *testing.T) {
	// --- Arrange ---
	providers := []module.Provider{
		provider("receiver", "core", "storage", "telemetry"),
		provider("query", "core", "storage"),
		provider("storage", "core"),
		provider("telemetry"),
		provider("core"),
	}

	// --- Act ---
	order, err := Build(providers)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"telemetry", "core", "storage", "receiver", "query"}, order.Modules())
	assert.Equal(t, "telemetry(default) -> core(default) -> storage(default) -> receiver(default) -> query(default)", order.String())
	assert.Equal(t, 2, order.Index("storage"))
	assert.Equal(t, -1, order.Index("exporter"))
}

func TestBuild_EmptyInput(t *testing.T) {
	order, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestBuild_IndependentModulesKeepDeclarationOrder(t *testing.T) {
	order, err := Build([]module.Provider{provider("c"), provider("a"), provider("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order.Modules())
}

func TestBuild_UnresolvedDependency(t *testing.T) {
	_, err := Build([]module.Provider{
		provider("core"),
		provider("receiver", "core", "storage"),
	})

	require.ErrorIs(t, err, ErrUnresolvedDependency)
	var unresolved *UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "receiver", unresolved.Module)
	assert.Equal(t, "default", unresolved.Provider)
	assert.Equal(t, "storage", unresolved.Missing)
	assert.EqualError(t, err, `module "receiver" (provider "default") requires module "storage", which is not configured`)
}

func TestBuild_CyclicDependency(t *testing.T) {
	t.Run("two modules", func(t *testing.T) {
		_, err := Build([]module.Provider{
			provider("core"),
			provider("a", "core", "b"),
			provider("b", "a"),
		})

		require.ErrorIs(t, err, ErrCyclicDependency)
		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		assert.Equal(t, []string{"a", "b", "a"}, cyclic.Cycle)
		assert.EqualError(t, err, "cyclic module dependency: a -> b -> a")
	})

	t.Run("three modules", func(t *testing.T) {
		_, err := Build([]module.Provider{
			provider("a", "c"),
			provider("b", "a"),
			provider("c", "b"),
		})

		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		assert.Equal(t, []string{"a", "c", "b", "a"}, cyclic.Cycle)
	})

	t.Run("self dependency", func(t *testing.T) {
		_, err := Build([]module.Provider{provider("core", "core")})

		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		assert.Equal(t, []string{"core", "core"}, cyclic.Cycle)
	})
}

func TestBuild_DuplicateModule(t *testing.T) {
	other := &stubProvider{Base: module.Base{ModuleName: "storage", ProviderName: "sqlite"}}
	_, err := Build([]module.Provider{provider("storage"), other})

	require.ErrorIs(t, err, config.ErrInvalid)
	assert.ErrorContains(t, err, `more than one provider selected ("default" and "sqlite")`)
}

// TestBuild_RandomGraphs builds random acyclic module graphs, with modules
// declared in a shuffled order, and checks that each provider appears after
// every module it requires and that repeated builds agree.
func TestBuild_RandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 40; round++ {
		size := 1 + rng.Intn(10)
		requires := make([][]string, size)
		for i := 1; i < size; i++ {
			for j := 0; j < i; j++ {
				if rng.Intn(2) == 0 {
					requires[i] = append(requires[i], fmt.Sprintf("m%d", j))
				}
			}
		}

		var providers []module.Provider
		for _, i := range rng.Perm(size) {
			providers = append(providers, provider(fmt.Sprintf("m%d", i), requires[i]...))
		}

		order, err := Build(providers)
		require.NoError(t, err)
		require.Len(t, order, size)

		for idx, p := range order {
			for _, dep := range p.RequiredModules() {
				assert.Less(t, order.Index(dep), idx, "round %d: %s must precede %s", round, dep, p.Module())
			}
		}

		again, err := Build(providers)
		require.NoError(t, err)
		assert.Equal(t, order.Modules(), again.Modules())
	}
}
