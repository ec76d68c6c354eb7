package menu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/domain/access"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/infrastructure/menu"
)

func TestDefault_CargaYAplicaRequisitos(t *testing.T) {
	def, err := menu.Default()
	require.NoError(t, err)
	assert.Equal(t, "/sign-in", def.SignIn)
	require.NotEmpty(t, def.Menu)

	g := def.Guard()
	in := access.GuardInput{
		IsAuthenticated: true, HasLoadedPermissions: true,
		Role: permission.RoleBackend, Permissions: permission.SetOf(permission.ViewTeamRequest),
	}
	in.Path = "/requests/r1"
	assert.Equal(t, access.OutcomeAllow, g.Decide(in).Outcome)

	in.Path = "/admin/roles"
	d := g.Decide(in)
	assert.Equal(t, access.OutcomeRedirect, d.Outcome)
	assert.Equal(t, "/dashboard", d.RedirectTo)
}

func TestDefault_MenuPodadoSinSeccionesVacias(t *testing.T) {
	def, err := menu.Default()
	require.NoError(t, err)

	out := def.MenuFilter().Filter(permission.Role("NUEVO"), permission.Set{})
	require.Len(t, out, 1, "solo General con Inicio")
	require.Len(t, out[0].Items, 1)
	assert.Equal(t, "/dashboard", out[0].Items[0].Path)

	all := def.MenuFilter().Filter(permission.RoleCEO, nil)
	assert.Equal(t, def.Menu, all)
}

func TestParse_ClaveDesconocida(t *testing.T) {
	_, err := menu.Parse([]byte(`
signIn: /sign-in
fallback: /dashboard
routes:
  - path: /x
    permission: ver_todo
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ver_todo")
}

func TestParse_RutaDuplicada(t *testing.T) {
	_, err := menu.Parse([]byte(`
signIn: /sign-in
fallback: /dashboard
routes:
  - path: /x
  - path: /x
`))
	assert.Error(t, err)
}
