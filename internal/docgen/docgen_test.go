package docgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

func testClasses(t *testing.T) (*traits.Class, *traits.Class) {
	t.Helper()
	base, err := traits.NewClass("Base").
		Trait(traits.Declare("name", traits.Text(), traits.Config(), traits.WithDefault("demo"),
			traits.Help("Display name.")),
		).Build()
	require.NoError(t, err)
	cls, err := traits.NewClass("Listener", base).
		Trait(
			traits.Declare("port", traits.Int().Min(1).Max(65535), traits.Config(), traits.WithDefault(8080),
				traits.Help("TCP port.")),
			traits.Declare("cert", traits.Text(), traits.Config(), traits.AllowNone(), traits.WithDefault(nil)),
			traits.Declare("workers", traits.Int(), traits.Config()),
			traits.Declare("secret", traits.Text(), traits.WithDefault("hidden")),
		).
		Default("workers", func(*traits.Object) (any, error) { return 4, nil }).
		Build()
	require.NoError(t, err)
	return base, cls
}

func TestClassHelp(t *testing.T) {
	_, cls := testClasses(t)
	out := ClassHelp(cls)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Listener(Base) options", lines[0])
	assert.Equal(t, strings.Repeat("-", len(lines[0])), lines[1])
	assert.Contains(t, out, "--Listener.port=<integer>\n    TCP port.\n")
	assert.Contains(t, out, "    Default: 8080\n")
	assert.Contains(t, out, "--Listener.name=<text>")
	assert.Contains(t, out, "    Default: demo\n")
	assert.Contains(t, out, "or None")
	assert.Contains(t, out, "    Default: None\n")
	assert.Contains(t, out, "    Default: <computed>\n")
	assert.NotContains(t, out, "secret")
}

func TestClassHelpWithoutParents(t *testing.T) {
	base, _ := testClasses(t)
	assert.True(t, strings.HasPrefix(ClassHelp(base), "Base options\n------------\n"))
}

func TestClassRST(t *testing.T) {
	_, cls := testClasses(t)
	out := ClassRST(cls)

	assert.True(t, strings.HasPrefix(out, "Listener(Base)\n==============\n"))
	assert.Contains(t, out, ".. option:: --Listener.port=<integer>\n\n    TCP port.\n\n    :trait type: ")
	assert.Contains(t, out, "    :default: ``8080``\n")
	assert.NotContains(t, out, "secret")
}

func TestClassYAML(t *testing.T) {
	_, cls := testClasses(t)
	out, err := ClassYAML(cls)
	require.NoError(t, err)

	var doc ClassDoc
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Listener", doc.Name)
	assert.Equal(t, []string{"Base"}, doc.Parents)
	require.Len(t, doc.Traits, 5)

	byName := map[string]TraitDoc{}
	for _, td := range doc.Traits {
		byName[td.Name] = td
	}
	assert.Equal(t, "Base", byName["name"].DeclaredBy)
	assert.Equal(t, "8080", byName["port"].Default)
	assert.True(t, byName["cert"].AllowNone)
	assert.False(t, byName["secret"].Configurable)
	assert.Equal(t, computedDefault, byName["workers"].Default)
}

func TestRender(t *testing.T) {
	_, cls := testClasses(t)
	for _, format := range []string{FormatText, FormatRST, FormatYAML, ""} {
		out, err := Render(format, cls)
		require.NoError(t, err, format)
		assert.NotEmpty(t, out, format)
	}
	_, err := Render("html", cls)
	assert.ErrorContains(t, err, `unknown format "html"`)
}

func TestConfigTemplate(t *testing.T) {
	base, cls := testClasses(t)
	out, err := ConfigTemplate("generated\nedit me", base, cls)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# generated\n# edit me\n"))
	assert.Contains(t, out, "# Listener(Base) options\n# Listener:\n")
	assert.Contains(t, out, "#   # TCP port.\n#   port: \"8080\"\n")
	assert.Contains(t, out, "#   workers:\n")
	assert.NotContains(t, out, "secret")

	// Uncommenting the template yields a document that parses.
	plain := strings.NewReplacer("#   # ", "  # ", "#   ", "  ", "# Listener:", "Listener:", "# Base:", "Base:").Replace(out)
	var parsed map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(plain), &parsed))
	assert.Equal(t, "8080", parsed["Listener"]["port"])
	assert.Equal(t, "demo", parsed["Base"]["name"])
}
