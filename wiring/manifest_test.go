package wiring_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/wiring"
)

type Clock interface {
	Now() string
}

type fixedClock struct{ at string }

func (c fixedClock) Now() string { return c.at }

type Notifier interface {
	Notify(msg string) string
}

type EmailNotifier struct {
	Clock Clock
}

func (n *EmailNotifier) Notify(msg string) string {
	return n.Clock.Now() + " " + msg
}

func newCatalog() *wiring.Catalog {
	c := wiring.NewCatalog()
	wiring.Type[Clock](c, "Clock")
	wiring.Type[Notifier](c, "Notifier")
	c.AddSpec("EmailNotifier", di.Class[EmailNotifier]().InjectField("Clock").Spec())
	c.AddInstance("fixedClock", fixedClock{at: "09:00"})
	return c
}

const manifestYAML = `
bindings:
  - type: Clock
    instance: fixedClock
  - type: Notifier
    impl: EmailNotifier
    scope: singleton
    qualifiers: [email, default]
  - impl: EmailNotifier
`

func TestParseManifest(t *testing.T) {
	m, err := wiring.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)
	require.Len(t, m.Bindings, 3)
	assert.Equal(t, wiring.Entry{
		Type:       "Notifier",
		Impl:       "EmailNotifier",
		Scope:      "singleton",
		Qualifiers: []string{"email", "default"},
	}, m.Bindings[1])

	_, err = wiring.ParseManifest([]byte("bindings: {"))
	assert.Error(t, err)
}

func TestApplyBindsDeclarations(t *testing.T) {
	m, err := wiring.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	r := di.NewRegistry()
	require.NoError(t, m.Apply(r, newCatalog()))

	ctx, err := r.Context()
	require.NoError(t, err)

	email, err := di.Resolve[Notifier](ctx, di.Named("email"))
	require.NoError(t, err)
	assert.Equal(t, "09:00 hi", email.Notify("hi"))

	again, err := di.Resolve[Notifier](ctx, di.Named("default"))
	require.NoError(t, err)
	assert.Same(t, email, again, "同一声明的限定符共享单例")

	_, err = di.Resolve[Notifier](ctx)
	assert.ErrorIs(t, err, di.ErrNotBound, "声明了限定符时不注册无限定符形式")

	concrete, err := di.Resolve[*EmailNotifier](ctx)
	require.NoError(t, err)
	assert.NotSame(t, email, concrete)
}

func TestApplyReportsEveryBadEntry(t *testing.T) {
	m := &wiring.Manifest{Bindings: []wiring.Entry{
		{Type: "Clock"},
		{Type: "Clock", Impl: "x", Instance: "y"},
		{Type: "Unknown", Instance: "fixedClock"},
		{Impl: "Missing"},
		{Impl: "EmailNotifier", Scope: "request"},
		{Type: "Clock", Instance: "fixedClock", Scope: "singleton"},
	}}

	err := m.Apply(di.NewRegistry(), newCatalog())
	require.Error(t, err)
	for _, want := range []string{
		"binding #1: exactly one",
		"binding #2: exactly one",
		`unknown type "Unknown"`,
		`unknown implementation "Missing"`,
		"binding #5",
		"cannot declare a scope",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestApplyRejectsIncompatibleType(t *testing.T) {
	m := &wiring.Manifest{Bindings: []wiring.Entry{{Type: "Notifier", Instance: "fixedClock"}}}
	err := m.Apply(di.NewRegistry(), newCatalog())
	assert.True(t, di.IsMalformedComponent(err))
}

func TestConfigureFromConfiguration(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(
		core.WithConfiguration(func(b *config.ConfigurationBuilder) {
			b.AddInMemory(map[string]any{
				"wiring": map[string]any{
					"bindings": []any{
						map[string]any{"type": "Clock", "instance": "fixedClock"},
						map[string]any{"type": "Notifier", "impl": "EmailNotifier"},
					},
				},
			})
		}),
		wiring.Configure(newCatalog(), "wiring"),
	))

	ctx, _, err := rt.Build()
	require.NoError(t, err)

	n, err := di.Resolve[Notifier](ctx)
	require.NoError(t, err)
	assert.Equal(t, "09:00 ok", n.Notify("ok"))
}

func TestMissingSectionIsEmpty(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(wiring.Configure(newCatalog(), "wiring")))
}

func TestConfigureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o644))

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(wiring.ConfigureFile(newCatalog(), path)))
	assert.True(t, rt.Registry.Contains(di.RefOf[Notifier]().With(di.Named("email"))))

	err := wiring.ConfigureFile(newCatalog(), filepath.Join(t.TempDir(), "missing.yaml"))(core.NewRuntime())
	assert.Error(t, err)
}
