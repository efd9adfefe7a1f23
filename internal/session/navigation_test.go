package session

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryNavigator_Defaults(t *testing.T) {
	nav := NewMemoryNavigator(Location{})

	loc := nav.Location()
	require.Equal(t, PathRoot, loc.Path)
	require.NotNil(t, loc.Query)
}

func TestMemoryNavigator_LocationIsACopy(t *testing.T) {
	q := url.Values{}
	q.Set("name", "Ana")
	nav := NewMemoryNavigator(Location{Path: PathResults, Query: q})

	loc := nav.Location()
	loc.Query.Set("name", "mutated")

	require.Equal(t, "Ana", nav.Location().Query.Get("name"))
}

func TestMemoryNavigator_Flags(t *testing.T) {
	nav := NewMemoryNavigator(Location{})

	require.False(t, nav.SessionFlag(authorizedFlag))
	nav.SetSessionFlag(authorizedFlag, true)
	require.True(t, nav.SessionFlag(authorizedFlag))
	nav.SetSessionFlag(authorizedFlag, false)
	require.False(t, nav.SessionFlag(authorizedFlag))
}
