package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("config", map[string]string{
		"config": "from the project",
		"gnu":    "GNU make",
		"posix":  "",
	})

	assert.Equal(t, "config", e.Value())
	assert.Equal(t, "[config, gnu, posix]", e.HelpString())

	require.NoError(t, e.Set("posix"))
	assert.Equal(t, "posix", e.String())

	err := e.Set("bsd")
	require.Error(t, err)
	assert.Equal(t, "posix", e.Value())
	assert.Contains(t, err.Error(), "config, gnu, posix")

	items, _ := e.CompletionFunc()(nil, nil, "")
	assert.Equal(t, []string{"config\tfrom the project", "gnu\tGNU make", "posix"}, items)
}

func TestNewEnumValueRejectsUnknownDefault(t *testing.T) {
	assert.Panics(t, func() {
		NewEnumValue("x", map[string]string{"y": ""})
	})
}

func TestModuleIdent(t *testing.T) {
	for _, tt := range []struct {
		name, want string
	}{
		{"Hello", "Hello"},
		{"my-suite", "my_suite"},
		{"5gc", "M5gc"},
		{"", "Main"},
		{"a.b c", "a_b_c"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moduleIdent(tt.name))
		})
	}
}
