package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "render", "version"}, names)
}

func TestRootCommand_VerboseReachesServe(t *testing.T) {
	root := newRootCommand()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)

	require.NoError(t, serve.ParseFlags([]string{"-v"}))
	verbose, err := serve.Flags().GetBool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)
}
